// Package blame implements bulk per-line authorship attribution across many
// files of a single cloned working tree, with per-file error isolation.
package blame

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"github.com/bmeddeb/gitfleet/internal/workerpool"
)

// Line is one attributed line of a blamed file.
type Line struct {
	CommitID       string
	AuthorName     string
	AuthorEmail    string
	OriginalLineNo int
	FinalLineNo    int
	Content        string
}

// FileResult is either a successful line sequence or a per-file error
// string, never both.
type FileResult struct {
	Lines []Line
	Err   string
}

// Result maps file path to its FileResult.
type Result map[string]FileResult

// Engine runs bulk_blame against cloned working trees.
type Engine struct {
	maxWorkers int
	logger     *zap.Logger
}

// Config controls the Engine's blame fan-out ceiling.
type Config struct {
	// MaxWorkers caps how many files are blamed concurrently. Zero or
	// negative means runtime.NumCPU(), floor 1.
	MaxWorkers int
}

// New constructs a blame Engine.
func New(cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{maxWorkers: workers, logger: logger}
}

// BulkBlame blames every file in filePaths against repoPath's HEAD. A
// failure to open the repository itself is a whole-operation error; a
// failure for one file is recorded in that file's FileResult.Err and does
// not affect its siblings.
func (e *Engine) BulkBlame(ctx context.Context, repoPath string, filePaths []string) (Result, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("blame: could not open repository at %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("blame: could not resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("blame: could not load HEAD commit: %w", err)
	}

	result := make(Result, len(filePaths))
	var mu sync.Mutex

	poolCfg := workerpool.Config{
		WorkerCount: e.maxWorkers,
		BufferSize:  len(filePaths),
		Timeout:     5 * time.Minute,
	}

	// Per-file blame failures are data (a FileResult.Err), never a
	// processFn error, so one slow or broken file cannot abort its
	// siblings via ProcessBatch's own error propagation.
	_, err = workerpool.ProcessBatch(ctx, filePaths, poolCfg, func(_ context.Context, path string) error {
		fr := e.blameOne(commit, path)

		mu.Lock()
		result[path] = fr
		mu.Unlock()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("blame: %w", err)
	}

	return result, nil
}

func (e *Engine) blameOne(commit *object.Commit, path string) FileResult {
	br, err := git.Blame(commit, path)
	if err != nil {
		return FileResult{Err: classifyBlameError(path, err)}
	}

	// go-git's BlameResult does not itself carry the line's number within
	// the commit that introduced it, only the commit that last touched it.
	// We recover that number by counting, per introducing commit and in
	// final-line order, how many lines this file owes to that commit —
	// the Nth line attributed to commit C is C's Nth introduced line.
	introducedSoFar := make(map[plumbing.Hash]int, len(br.Lines))

	lines := make([]Line, 0, len(br.Lines))
	for i, l := range br.Lines {
		introducedSoFar[l.Hash]++
		lines = append(lines, Line{
			CommitID:       l.Hash.String(),
			AuthorName:     l.AuthorName,
			AuthorEmail:    strings.Trim(l.Author, "<>"),
			OriginalLineNo: introducedSoFar[l.Hash],
			FinalLineNo:    i + 1,
			Content:        strings.TrimSuffix(l.Text, "\n"),
		})
	}

	return FileResult{Lines: lines}
}

func classifyBlameError(path string, err error) string {
	if errors.Is(err, object.ErrFileNotFound) || errors.Is(err, plumbing.ErrObjectNotFound) {
		return fmt.Sprintf("%s: not present at HEAD", path)
	}
	return fmt.Sprintf("%s: %v", path, err)
}
