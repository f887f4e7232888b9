// Package commit implements full commit-history extraction: a single
// walk-and-diff of a cloned repository's commit graph with numeric-stat
// accumulation.
package commit

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"
)

// Signature is the {name, email, unix-timestamp-seconds, tz-offset-minutes}
// tuple recorded for both the author and the committer of a commit.
type Signature struct {
	Name         string
	Email        string
	UnixSeconds  int64
	TZOffsetMins int
}

// Record is one flattened commit in extract_commits' output sequence.
type Record struct {
	SHA            string
	RepositoryName string
	Message        string
	Author         Signature
	Committer      Signature
	Additions      int
	Deletions      int
	IsMerge        bool
}

// Extractor walks a cloned repository's commit graph.
type Extractor struct {
	logger *zap.Logger
}

// New constructs an Extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractCommits walks every commit reachable from HEAD exactly once, in
// strict reverse-chronological (committer time) order, and returns one
// Record per commit. A failure to open the repository or resolve HEAD is a
// whole-operation error; a failure to diff one commit skips that commit's
// stats (additions/deletions = 0) rather than aborting the walk.
func (x *Extractor) ExtractCommits(repoPath string) ([]Record, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("extract_commits: could not open repository at %s: %w", repoPath, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("extract_commits: could not resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("extract_commits: could not walk commit graph: %w", err)
	}

	repoName := repositoryName(repoPath)

	var records []Record
	err = iter.ForEach(func(c *object.Commit) error {
		records = append(records, x.toRecord(c, repoName))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract_commits: error walking commit graph: %w", err)
	}

	return records, nil
}

func (x *Extractor) toRecord(c *object.Commit, repoName string) Record {
	additions, deletions, isMerge := x.diffStats(c)

	return Record{
		SHA:            c.Hash.String(),
		RepositoryName: repoName,
		Message:        c.Message,
		Author:         toSignature(c.Author),
		Committer:      toSignature(c.Committer),
		Additions:      additions,
		Deletions:      deletions,
		IsMerge:        isMerge,
	}
}

// diffStats computes additions/deletions per §4.3: root commits diff
// against the empty tree, single-parent commits against their sole parent,
// and merge commits against their first parent only (is_merge=true).
func (x *Extractor) diffStats(c *object.Commit) (additions, deletions int, isMerge bool) {
	numParents := c.NumParents()
	isMerge = numParents >= 2

	currentTree, err := c.Tree()
	if err != nil {
		x.logger.Warn("skipping commit: could not load tree", zap.String("sha", c.Hash.String()), zap.Error(err))
		return 0, 0, isMerge
	}

	// Root commits diff against a synthetic, never-persisted empty tree
	// rather than nil, since DiffTree walks Entries directly and an empty
	// Tree{} needs no backing storer to be compared.
	parentTree := &object.Tree{}
	if numParents > 0 {
		parent, err := c.Parent(0)
		if err != nil {
			x.logger.Warn("skipping commit: could not load first parent", zap.String("sha", c.Hash.String()), zap.Error(err))
			return 0, 0, isMerge
		}
		parentTree, err = parent.Tree()
		if err != nil {
			x.logger.Warn("skipping commit: could not load parent tree", zap.String("sha", c.Hash.String()), zap.Error(err))
			return 0, 0, isMerge
		}
	}

	changes, err := object.DiffTree(parentTree, currentTree)
	if err != nil {
		x.logger.Warn("skipping commit: diff failed", zap.String("sha", c.Hash.String()), zap.Error(err))
		return 0, 0, isMerge
	}

	for _, change := range changes {
		patch, err := change.Patch()
		if err != nil {
			// Binary files and patch failures contribute 0/0, not an error.
			continue
		}
		for _, stat := range patch.Stats() {
			additions += stat.Addition
			deletions += stat.Deletion
		}
	}

	return additions, deletions, isMerge
}

func toSignature(sig object.Signature) Signature {
	_, offset := sig.When.Zone()
	return Signature{
		Name:         sig.Name,
		Email:        sig.Email,
		UnixSeconds:  sig.When.Unix(),
		TZOffsetMins: offset / 60,
	}
}

// repositoryName derives the repository name from the working directory's
// final path component, stripping a trailing ".git" per §3.
func repositoryName(repoPath string) string {
	base := filepath.Base(filepath.Clean(repoPath))
	return strings.TrimSuffix(base, ".git")
}
