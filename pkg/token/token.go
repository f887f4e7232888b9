// Package token implements the credential-rotation pool shared by every
// component that performs authenticated remote work against a Git forge.
package token

import (
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Credential is a named secret supplied by the caller at construction time.
type Credential struct {
	Identifier string
	Secret     string
}

// Observation is a rate-limit snapshot reported by a remote, either observed
// directly from a provider response or inferred from a 429/rate-limit error.
type Observation struct {
	Limit     int
	Remaining int
	ResetUnix int64
	Used      int
}

// Entry is the Token Pool's view of a single credential.
type Entry struct {
	Identifier string
	Secret     string
	Observed   Observation
	LastUsed   time.Time
}

// Pool holds a set of named credentials and serialises selection/recording
// against them. The zero value is not usable; use New.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*Entry
	logger  *zap.Logger
}

// New constructs a Pool seeded with creds. Duplicate identifiers overwrite
// earlier ones, last write wins.
func New(creds []Credential, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Pool{
		entries: make(map[string]*Entry, len(creds)),
		logger:  logger,
	}

	for _, c := range creds {
		p.entries[c.Identifier] = &Entry{
			Identifier: c.Identifier,
			Secret:     c.Secret,
		}
	}

	return p
}

// Selection is the result of Select: the chosen entry plus whether it is
// currently exhausted (remaining == 0 and its reset time has not passed).
type Selection struct {
	Entry     Entry
	Exhausted bool
}

// Select returns the entry with the highest Remaining, breaking ties by the
// oldest LastUsed. If the pool is empty, ok is false.
func (p *Pool) Select() (Selection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.entries) == 0 {
		return Selection{}, false
	}

	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var best *Entry
	for _, id := range ids {
		e := p.entries[id]
		if best == nil || isBetter(e, best) {
			best = e
		}
	}

	now := time.Now().Unix()
	exhausted := best.Observed.Remaining == 0 && best.Observed.ResetUnix > now

	return Selection{Entry: *best, Exhausted: exhausted}, true
}

// isBetter reports whether candidate should be preferred over current under
// Select's ordering: higher Remaining first, then earlier LastUsed.
func isBetter(candidate, current *Entry) bool {
	if candidate.Observed.Remaining != current.Observed.Remaining {
		return candidate.Observed.Remaining > current.Observed.Remaining
	}
	return candidate.LastUsed.Before(current.LastUsed)
}

// Outcome describes what happened the last time an entry was used.
type Outcome struct {
	// Snapshot, when non-nil, is an authoritative rate-limit observation.
	Snapshot *Observation
	// RateLimited indicates the remote rejected the call for exceeding quota.
	RateLimited bool
	// ResetUnix carries the reset time when RateLimited is true.
	ResetUnix int64
}

// Record updates identifier's entry with the outcome of its most recent use.
// Unknown identifiers are ignored: a caller recording against a credential
// that was never part of the pool has nothing to update.
func (p *Pool) Record(identifier string, outcome Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[identifier]
	if !ok {
		p.logger.Warn("record called for unknown token identifier", zap.String("identifier", Redact(identifier)))
		return
	}

	e.LastUsed = time.Now()

	switch {
	case outcome.Snapshot != nil:
		e.Observed = *outcome.Snapshot
	case outcome.RateLimited:
		e.Observed.Remaining = 0
		e.Observed.ResetUnix = outcome.ResetUnix
	}
}

// Len returns the number of credentials held by the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Redact strips userinfo (user:pass@) from a URL-shaped string so secrets
// never reach logs or error messages. Strings without an "@" pass through
// unchanged.
func Redact(s string) string {
	schemeIdx := strings.Index(s, "://")
	if schemeIdx == -1 {
		return s
	}
	rest := s[schemeIdx+3:]
	at := strings.Index(rest, "@")
	if at == -1 {
		return s
	}
	return s[:schemeIdx+3] + "***@" + rest[at+1:]
}
