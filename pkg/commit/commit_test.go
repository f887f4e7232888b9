package commit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bmeddeb/gitfleet/pkg/commit"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func sign(name string, when time.Time) *object.Signature {
	return &object.Signature{Name: name, Email: name + "@example.com", When: when}
}

func TestExtractCommits_LinearThreeCommitRepo(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)

	// A: root, adds file with 3 lines.
	writeFile(t, dir, "file.txt", "one\ntwo\nthree\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigA := sign("alice", base)
	_, err = wt.Commit("A", &git.CommitOptions{Author: sigA, Committer: sigA})
	require.NoError(t, err)

	// B: adds 2 lines.
	writeFile(t, dir, "file.txt", "one\ntwo\nthree\nfour\nfive\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigB := sign("bob", base.Add(time.Minute))
	_, err = wt.Commit("B", &git.CommitOptions{Author: sigB, Committer: sigB})
	require.NoError(t, err)

	// C: removes 1 line.
	writeFile(t, dir, "file.txt", "one\ntwo\nthree\nfour\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigC := sign("carol", base.Add(2*time.Minute))
	_, err = wt.Commit("C", &git.CommitOptions{Author: sigC, Committer: sigC})
	require.NoError(t, err)

	x := commit.New(nil)
	records, err := x.ExtractCommits(dir)
	require.NoError(t, err)
	require.Len(t, records, 3)

	byMessage := make(map[string]commit.Record, 3)
	for _, r := range records {
		byMessage[r.Message] = r
	}

	assert.Equal(t, 3, byMessage["A"].Additions)
	assert.Equal(t, 0, byMessage["A"].Deletions)
	assert.False(t, byMessage["A"].IsMerge)

	assert.Equal(t, 2, byMessage["B"].Additions)
	assert.Equal(t, 0, byMessage["B"].Deletions)

	assert.Equal(t, 0, byMessage["C"].Additions)
	assert.Equal(t, 1, byMessage["C"].Deletions)

	assert.Equal(t, filepath.Base(dir), byMessage["A"].RepositoryName)
}

func TestExtractCommits_MergeCommitDiffsAgainstFirstParentOnly(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)

	// A: root.
	writeFile(t, dir, "file.txt", "base\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigA := sign("alice", base)
	aHash, err := wt.Commit("A", &git.CommitOptions{Author: sigA, Committer: sigA})
	require.NoError(t, err)

	// B, on main: adds a line.
	writeFile(t, dir, "file.txt", "base\nfrom-b\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigB := sign("bob", base.Add(time.Minute))
	bHash, err := wt.Commit("B", &git.CommitOptions{Author: sigB, Committer: sigB})
	require.NoError(t, err)

	// C, on a side branch from A: adds a different line.
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: aHash, Create: false}))
	writeFile(t, dir, "file.txt", "base\nfrom-c\nfrom-c2\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigC := sign("carol", base.Add(2*time.Minute))
	cHash, err := wt.Commit("C", &git.CommitOptions{Author: sigC, Committer: sigC})
	require.NoError(t, err)

	// M: merge B (first parent) and C (second parent).
	require.NoError(t, wt.Checkout(&git.CheckoutOptions{Hash: bHash, Create: false}))
	writeFile(t, dir, "file.txt", "base\nfrom-b\nfrom-c\nfrom-c2\n")
	_, err = wt.Add("file.txt")
	require.NoError(t, err)
	sigM := sign("dave", base.Add(3*time.Minute))
	_, err = wt.Commit("M", &git.CommitOptions{
		Author:    sigM,
		Committer: sigM,
		Parents:   []plumbing.Hash{bHash, cHash},
	})
	require.NoError(t, err)

	x := commit.New(nil)
	records, err := x.ExtractCommits(dir)
	require.NoError(t, err)

	var merge *commit.Record
	for i := range records {
		if records[i].Message == "M" {
			merge = &records[i]
		}
	}
	require.NotNil(t, merge)
	assert.True(t, merge.IsMerge)
	// Against B: +from-c, +from-c2. Against C it would be +from-b only.
	assert.Equal(t, 2, merge.Additions)
	assert.Equal(t, 0, merge.Deletions)
}
