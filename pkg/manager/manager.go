// Package manager wires the Token Pool, Clone Orchestrator, Blame Engine,
// Commit Extractor, and Provider Client into the single façade a caller
// constructs and drives.
package manager

import (
	"context"

	"go.uber.org/zap"

	"github.com/bmeddeb/gitfleet/pkg/blame"
	"github.com/bmeddeb/gitfleet/pkg/clone"
	"github.com/bmeddeb/gitfleet/pkg/commit"
	"github.com/bmeddeb/gitfleet/pkg/provider"
	"github.com/bmeddeb/gitfleet/pkg/token"
)

// Config controls the Manager's concurrency ceilings and working directory
// placement, passed straight through to the Clone Orchestrator and Blame
// Engine.
type Config struct {
	MaxWorkers int
	BaseDir    string
}

// Manager is the single entry point a caller constructs: seed it with
// repository URLs and one or more credentials, then drive SubmitAll,
// BulkBlame, ExtractCommits, and Cleanup.
type Manager struct {
	orchestrator *clone.Orchestrator
	blameEngine  *blame.Engine
	extractor    *commit.Extractor
	tokens       *token.Pool
	logger       *zap.Logger
}

// New constructs a Manager, seeding the CloneTask table with urls (deduped)
// and the Token Pool with creds.
func New(urls []string, creds []token.Credential, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}

	tokens := token.New(creds, logger)

	auth := func(string) (string, string, bool) {
		sel, ok := tokens.Select()
		if !ok || sel.Entry.Secret == "" {
			return "", "", false
		}
		return sel.Entry.Identifier, sel.Entry.Secret, true
	}

	return &Manager{
		orchestrator: clone.New(urls, clone.Config{MaxWorkers: cfg.MaxWorkers, BaseDir: cfg.BaseDir}, auth, tokens, logger),
		blameEngine:  blame.New(blame.Config{MaxWorkers: cfg.MaxWorkers}, logger),
		extractor:    commit.New(logger),
		tokens:       tokens,
		logger:       logger,
	}
}

// SubmitAll begins cloning every queued task and blocks until all reach a
// terminal state.
func (m *Manager) SubmitAll(ctx context.Context) error {
	return m.orchestrator.SubmitAll(ctx)
}

// CloneOne submits a single already-tracked URL.
func (m *Manager) CloneOne(ctx context.Context, url string) error {
	return m.orchestrator.CloneOne(ctx, url)
}

// SnapshotTasks returns a consistent point-in-time copy of the clone table.
func (m *Manager) SnapshotTasks() map[string]clone.Task {
	return m.orchestrator.SnapshotTasks()
}

// BulkBlame blames filePaths against repoPath's HEAD.
func (m *Manager) BulkBlame(ctx context.Context, repoPath string, filePaths []string) (blame.Result, error) {
	return m.blameEngine.BulkBlame(ctx, repoPath, filePaths)
}

// ExtractCommits walks repoPath's full commit graph.
func (m *Manager) ExtractCommits(repoPath string) ([]commit.Record, error) {
	return m.extractor.ExtractCommits(repoPath)
}

// Cleanup removes every task's working directory.
func (m *Manager) Cleanup(ctx context.Context) map[string]error {
	return m.orchestrator.Cleanup(ctx)
}

// Provider constructs a Provider Client authenticated with the Token
// Pool's current best credential, so a caller holding only a *Manager can
// reach repository metadata without building a second client.
func (m *Manager) Provider(ctx context.Context) (*provider.Client, bool) {
	sel, ok := m.tokens.Select()
	if !ok {
		return nil, false
	}
	cred := token.Credential{Identifier: sel.Entry.Identifier, Secret: sel.Entry.Secret}
	return provider.New(ctx, cred, m.logger), true
}

// Tokens exposes the underlying Token Pool for callers that need to record
// outcomes observed outside the Manager's own Provider calls.
func (m *Manager) Tokens() *token.Pool {
	return m.tokens
}
