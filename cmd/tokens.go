// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bmeddeb/gitfleet/pkg/token"
)

type tokenFileEntry struct {
	Name  string `yaml:"name"`
	Token string `yaml:"token"`
}

// loadCredentials reads the configured token file, if any, and returns its
// entries as Token Pool credentials. A missing file is not an error: the
// Manager is simply constructed with no credentials and clones proceed
// anonymously.
func loadCredentials() ([]token.Credential, error) {
	path := tokenFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".gitfleet", "tokens.yaml")
		}
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file %s: %w", path, err)
	}

	var entries []tokenFileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing token file %s: %w", path, err)
	}

	creds := make([]token.Credential, 0, len(entries))
	for _, e := range entries {
		creds = append(creds, token.Credential{Identifier: e.Name, Secret: e.Token})
	}
	return creds, nil
}
