package clone

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	gferrors "github.com/bmeddeb/gitfleet/internal/errors"
	"github.com/bmeddeb/gitfleet/pkg/token"
)

// sampleInterval is the minimum spacing between progress writes into a
// task's status, per the ~200ms sampling policy.
const sampleInterval = 200 * time.Millisecond

// Config controls an Orchestrator's concurrency ceiling and working
// directory placement.
type Config struct {
	// MaxWorkers caps how many clones run at once. Zero or negative means
	// runtime.NumCPU(), with a floor of 1.
	MaxWorkers int
	// BaseDir is the parent of per-task temporary directories. Empty means
	// os.TempDir().
	BaseDir string
}

func (c Config) normalize() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = runtime.NumCPU()
	}
	if c.MaxWorkers < 1 {
		c.MaxWorkers = 1
	}
	if c.BaseDir == "" {
		c.BaseDir = os.TempDir()
	}
	return c
}

// Authenticator supplies HTTP Basic credentials for a clone. It returns
// ok=false when cloning should proceed anonymously.
type Authenticator func(url string) (username, password string, ok bool)

// Orchestrator owns the CloneTask table for one Manager and performs
// bounded-concurrency clones against it.
type Orchestrator struct {
	mu    sync.Mutex
	tasks map[string]*Task
	order []string

	cfg    Config
	auth   Authenticator
	logger *zap.Logger
	tokens *token.Pool

	// cloneFn performs the actual clone; overridable in tests.
	cloneFn func(ctx context.Context, url, dest string, report func(int)) error
}

// New constructs an Orchestrator seeded with one Task per URL. Duplicate
// URLs are coalesced, keeping the first occurrence.
func New(urls []string, cfg Config, auth Authenticator, tokens *token.Pool, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		tasks:  make(map[string]*Task, len(urls)),
		cfg:    cfg.normalize(),
		auth:   auth,
		logger: logger,
		tokens: tokens,
	}
	o.cloneFn = o.defaultClone

	for _, u := range urls {
		if _, exists := o.tasks[u]; exists {
			continue
		}
		o.tasks[u] = &Task{URL: u, Status: Status{Tag: Queued}}
		o.order = append(o.order, u)
	}

	return o
}

// SubmitAll begins work for every Queued task and blocks until every task
// has reached a terminal state. It never returns an error of its own;
// per-task failures live in the task's Status.
func (o *Orchestrator) SubmitAll(ctx context.Context) error {
	o.mu.Lock()
	pending := make([]string, 0, len(o.order))
	for _, u := range o.order {
		if o.tasks[u].Status.Tag == Queued {
			pending = append(pending, u)
		}
	}
	o.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	workers := o.cfg.MaxWorkers
	if workers > len(pending) {
		workers = len(pending)
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gctx := errgroup.WithContext(ctx)

	for _, u := range pending {
		u := u
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled before a slot freed: task stays Queued.
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			o.runOne(gctx, u)
			return nil
		})
	}

	return g.Wait()
}

// CloneOne submits a single URL already present in the task set. Per §9's
// resolved Open Question, URLs outside the existing set are rejected rather
// than added.
func (o *Orchestrator) CloneOne(ctx context.Context, url string) error {
	o.mu.Lock()
	t, ok := o.tasks[url]
	if ok {
		ok = t.Status.Tag == Queued
	}
	o.mu.Unlock()

	if !ok {
		return fmt.Errorf("clone: url %q is not a queued task in this manager", token.Redact(url))
	}

	o.runOne(ctx, url)
	return nil
}

func (o *Orchestrator) runOne(ctx context.Context, url string) {
	dest := filepath.Join(o.cfg.BaseDir, "gitfleet-"+uuid.NewString())

	o.transitionToCloning(url, dest)

	if existing, ok := o.alreadyCloned(url, dest); ok {
		o.transitionToCompleted(url, existing)
		return
	}

	report := func(pct int) { o.reportProgress(url, pct) }

	err := o.cloneFn(ctx, url, dest, report)
	if err != nil {
		o.transitionToFailed(url, sanitizeCloneError(url, err))
		return
	}

	o.transitionToCompleted(url, dest)
}

// alreadyCloned implements the edge case where a task's target directory
// already exists and is a valid repository whose origin matches url.
func (o *Orchestrator) alreadyCloned(url, dest string) (string, bool) {
	repo, err := git.PlainOpen(dest)
	if err != nil {
		return "", false
	}
	remote, err := repo.Remote("origin")
	if err != nil || len(remote.Config().URLs) == 0 {
		return "", false
	}
	if remote.Config().URLs[0] != url {
		return "", false
	}
	return dest, true
}

func (o *Orchestrator) defaultClone(ctx context.Context, url, dest string, report func(int)) error {
	opts := &git.CloneOptions{
		URL:      url,
		Progress: newProgressWriter(report),
	}

	if o.auth != nil {
		if user, pass, ok := o.auth(url); ok {
			opts.Auth = &http.BasicAuth{Username: user, Password: pass}
		}
	}

	_, err := git.PlainCloneContext(ctx, dest, false, opts)
	return err
}

// transitionToCloning moves a task from Queued to Cloning(0), setting
// TempDir atomically with the transition per §9's resolved Open Question.
func (o *Orchestrator) transitionToCloning(url, dest string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t := o.tasks[url]
	t.Status = Status{Tag: Cloning, Progress: 0}
	t.TempDir = dest
}

// reportProgress folds an observed percentage into the task's status,
// never moving progress backward and never sampling more than once per
// sampleInterval — except the first and the terminal (100%) samples, which
// always apply so observers see at least one non-terminal tick.
func (o *Orchestrator) reportProgress(url string, pct int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t := o.tasks[url]
	if t.Status.Tag != Cloning {
		return
	}
	if pct <= t.Status.Progress {
		return
	}

	now := time.Now()
	force := t.updatedAt.IsZero() || pct >= 100
	if !force && now.Sub(t.updatedAt) < sampleInterval {
		return
	}

	t.Status.Progress = pct
	t.updatedAt = now
}

func (o *Orchestrator) transitionToCompleted(url, dest string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t := o.tasks[url]
	t.Status = Status{Tag: Completed}
	t.TempDir = dest
}

func (o *Orchestrator) transitionToFailed(url string, err error) {
	o.logger.Warn("clone failed", zap.String("url", token.Redact(url)), zap.Error(err))

	o.mu.Lock()
	defer o.mu.Unlock()

	t := o.tasks[url]
	t.Status = Status{Tag: Failed, Message: err.Error()}
}

// SnapshotTasks returns a consistent point-in-time copy of every task,
// keyed by URL.
func (o *Orchestrator) SnapshotTasks() map[string]Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]Task, len(o.tasks))
	for u, t := range o.tasks {
		out[u] = t.Snapshot()
	}
	return out
}

// Cleanup removes each task's working directory if present, clearing its
// TempDir, and reports a per-URL outcome. A still-Cloning task is rejected.
func (o *Orchestrator) Cleanup(_ context.Context) map[string]error {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]error, len(o.tasks))

	for u, t := range o.tasks {
		if t.Status.Tag == Cloning {
			out[u] = fmt.Errorf("task is active")
			continue
		}
		if t.TempDir == "" {
			out[u] = nil
			continue
		}
		if err := os.RemoveAll(t.TempDir); err != nil {
			out[u] = gferrors.WrapError(err, gferrors.ErrorCodeIOError, "failed to remove working directory", gferrors.SeverityMedium)
			continue
		}
		t.TempDir = ""
		out[u] = nil
	}

	return out
}

func sanitizeCloneError(url string, err error) error {
	return fmt.Errorf("clone %s: %w", token.Redact(url), err)
}
