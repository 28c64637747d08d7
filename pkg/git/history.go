package git

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Commit is a read-only view of one commit in the workspace history.
type Commit struct {
	Hash    string
	Subject string // First line of the message
	Author  string // "Name <email>"
	When    time.Time
}

// History reads the workspace history in-process with go-git. It never
// writes; all mutations go through Client and the git binary.
type History struct {
	repo *gogit.Repository
}

// OpenHistory opens the repository rooted at dir.
func OpenHistory(dir string) (*History, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open repository at %s", dir)
	}
	return &History{repo: repo}, nil
}

// Commits returns up to limit commits reachable from HEAD, newest first.
// A limit of zero or less returns all of them. A repository without
// commits yields an empty slice.
func (h *History) Commits(limit int) ([]Commit, error) {
	head, err := h.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []Commit{}, nil
		}
		return nil, errors.Wrap(err, "failed to resolve HEAD")
	}

	iter, err := h.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read log")
	}
	defer iter.Close()

	commits := []Commit{}
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(commits) >= limit {
			return storer.ErrStop
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		commits = append(commits, Commit{
			Hash:    c.Hash.String(),
			Subject: strings.TrimSpace(subject),
			Author:  c.Author.Name + " <" + c.Author.Email + ">",
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to walk log")
	}
	return commits, nil
}

// Snapshots returns the commits whose subject starts with prefix.
func (h *History) Snapshots(prefix string, limit int) ([]Commit, error) {
	all, err := h.Commits(0)
	if err != nil {
		return nil, err
	}
	out := []Commit{}
	for _, c := range all {
		if limit > 0 && len(out) >= limit {
			break
		}
		if strings.HasPrefix(c.Subject, prefix) {
			out = append(out, c)
		}
	}
	return out, nil
}
