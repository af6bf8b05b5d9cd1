// Package vcs wraps the go-git operations the scaffolder needs: opening or
// initialising a repository, converging a named remote, creating branches and
// switching HEAD. No git binary is required.
package vcs

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Fallback identity for the root commit when no user.name/user.email is
// configured anywhere.
const (
	fallbackAuthorName  = "Magnolia Scaffolder"
	fallbackAuthorEmail = "scaffold@magnolia.invalid"
	rootCommitMessage   = "Initial commit"
)

// Change describes what an Ensure call did.
type Change int

const (
	Unchanged Change = iota
	Created
	Updated
)

// Repo is an opened working-tree repository.
type Repo struct {
	root string
	repo *git.Repository
}

// EnsureRepository opens the repository rooted at root, initialising one with
// defaultBranch as its unborn HEAD if none exists. Only root itself is
// checked; an enclosing repository does not count.
func EnsureRepository(root, defaultBranch string) (*Repo, Change, error) {
	repo, err := git.PlainOpen(root)
	if err == nil {
		return &Repo{root: root, repo: repo}, Unchanged, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, Unchanged, fmt.Errorf("opening repository at %s: %w", root, err)
	}

	slog.Debug("initialising repository", "root", root, "branch", defaultBranch)
	repo, err = git.PlainInitWithOptions(root, &git.PlainInitOptions{
		InitOptions: git.InitOptions{
			DefaultBranch: plumbing.NewBranchReferenceName(defaultBranch),
		},
	})
	if err != nil {
		return nil, Unchanged, fmt.Errorf("initialising repository at %s: %w", root, err)
	}
	return &Repo{root: root, repo: repo}, Created, nil
}

// Open opens an existing repository rooted at root.
func Open(root string) (*Repo, error) {
	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", root, err)
	}
	return &Repo{root: root, repo: repo}, nil
}

// Root returns the working tree path.
func (r *Repo) Root() string { return r.root }

// EnsureRemote makes remote name point at url, adding it or rewriting its
// URL as needed.
func (r *Repo) EnsureRemote(name, url string) (Change, error) {
	remote, err := r.repo.Remote(name)
	if errors.Is(err, git.ErrRemoteNotFound) {
		slog.Debug("adding remote", "name", name, "url", url)
		_, err := r.repo.CreateRemote(&config.RemoteConfig{
			Name: name,
			URLs: []string{url},
		})
		if err != nil {
			return Unchanged, fmt.Errorf("adding remote %s: %w", name, err)
		}
		return Created, nil
	}
	if err != nil {
		return Unchanged, fmt.Errorf("reading remote %s: %w", name, err)
	}

	if urls := remote.Config().URLs; len(urls) == 1 && urls[0] == url {
		return Unchanged, nil
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return Unchanged, fmt.Errorf("reading repository config: %w", err)
	}
	rc, ok := cfg.Remotes[name]
	if !ok {
		return Unchanged, fmt.Errorf("remote %s vanished from config", name)
	}
	slog.Debug("updating remote", "name", name, "from", rc.URLs, "to", url)
	rc.URLs = []string{url}
	if err := r.repo.SetConfig(cfg); err != nil {
		return Unchanged, fmt.Errorf("updating remote %s: %w", name, err)
	}
	return Updated, nil
}

// RemoteURL returns the first URL of remote name.
func (r *Repo) RemoteURL(name string) (string, error) {
	remote, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf("reading remote %s: %w", name, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %s has no URL", name)
	}
	return urls[0], nil
}

// HasCommits reports whether HEAD resolves to a commit.
func (r *Repo) HasCommits() (bool, error) {
	_, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolving HEAD: %w", err)
	}
	return true, nil
}

// EnsureRootCommit gives a repository without any local branch an empty
// first commit on branch, so other branches have something to point at.
// The commit is written directly to the object store with the empty tree;
// the index and working tree are left alone. A repository that has any
// branch, including one whose HEAD is an unborn orphan, is left alone.
func (r *Repo) EnsureRootCommit(branch string) (Change, error) {
	names, err := r.Branches()
	if err != nil {
		return Unchanged, err
	}
	if len(names) > 0 {
		return Unchanged, nil
	}

	treeHash, err := r.storeObject(&object.Tree{})
	if err != nil {
		return Unchanged, fmt.Errorf("writing empty tree: %w", err)
	}
	sig := r.signature()
	hash, err := r.storeObject(&object.Commit{
		Author:    *sig,
		Committer: *sig,
		Message:   rootCommitMessage,
		TreeHash:  treeHash,
	})
	if err != nil {
		return Unchanged, fmt.Errorf("creating root commit: %w", err)
	}

	target := plumbing.NewBranchReferenceName(branch)
	if err := r.repo.Storer.SetReference(plumbing.NewHashReference(target, hash)); err != nil {
		return Unchanged, fmt.Errorf("creating branch %s: %w", branch, err)
	}
	// HEAD may name a different unborn branch (e.g. master).
	if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, target)); err != nil {
		return Unchanged, fmt.Errorf("pointing HEAD at %s: %w", branch, err)
	}
	slog.Debug("created root commit", "hash", hash.String(), "branch", branch)
	return Created, nil
}

type encoder interface {
	Encode(plumbing.EncodedObject) error
}

func (r *Repo) storeObject(o encoder) (plumbing.Hash, error) {
	obj := r.repo.Storer.NewEncodedObject()
	if err := o.Encode(obj); err != nil {
		return plumbing.ZeroHash, err
	}
	return r.repo.Storer.SetEncodedObject(obj)
}

// BranchExists reports whether refs/heads/name exists.
func (r *Repo) BranchExists(name string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("looking up branch %s: %w", name, err)
	}
	return true, nil
}

// EnsureBranch creates refs/heads/name at the current HEAD commit if the
// branch does not exist yet.
func (r *Repo) EnsureBranch(name string) (Change, error) {
	exists, err := r.BranchExists(name)
	if err != nil {
		return Unchanged, err
	}
	if exists {
		return Unchanged, nil
	}

	head, err := r.repo.Head()
	if err != nil {
		return Unchanged, fmt.Errorf("resolving HEAD to branch %s from: %w", name, err)
	}
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return Unchanged, fmt.Errorf("creating branch %s: %w", name, err)
	}
	slog.Debug("created branch", "name", name, "from", head.Name().Short(), "hash", head.Hash().String())
	return Created, nil
}

// CurrentBranch returns the short name of the branch HEAD points at, even if
// that branch is unborn.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.repo.Storer.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	if head.Type() != plumbing.SymbolicReference {
		return "", nil
	}
	return head.Target().Short(), nil
}

// Checkout switches HEAD to branch. When branch points at the commit HEAD
// already resolves to, only HEAD moves and the working tree is untouched;
// otherwise the worktree is checked out, which fails on unstaged changes.
func (r *Repo) Checkout(branch string) (Change, error) {
	current, err := r.CurrentBranch()
	if err != nil {
		return Unchanged, err
	}
	if current == branch {
		return Unchanged, nil
	}

	target := plumbing.NewBranchReferenceName(branch)
	ref, err := r.repo.Reference(target, true)
	if err != nil {
		return Unchanged, fmt.Errorf("looking up branch %s: %w", branch, err)
	}

	head, err := r.repo.Head()
	if err == nil && head.Hash() == ref.Hash() {
		if err := r.repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, target)); err != nil {
			return Unchanged, fmt.Errorf("pointing HEAD at %s: %w", branch, err)
		}
		slog.Debug("switched branch", "from", current, "to", branch, "worktree", "unchanged")
		return Updated, nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return Unchanged, fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: target}); err != nil {
		return Unchanged, fmt.Errorf("checking out %s: %w", branch, err)
	}
	slog.Debug("switched branch", "from", current, "to", branch)
	return Updated, nil
}

// Branches returns the short names of all local branches.
func (r *Repo) Branches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return names, nil
}

// signature returns the configured user identity, falling back to a fixed
// scaffolder identity.
func (r *Repo) signature() *object.Signature {
	sig := &object.Signature{
		Name:  fallbackAuthorName,
		Email: fallbackAuthorEmail,
		When:  time.Now(),
	}
	cfg, err := r.repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		slog.Debug("reading git identity failed, using fallback", "error", err)
		return sig
	}
	if cfg.User.Name != "" {
		sig.Name = cfg.User.Name
	}
	if cfg.User.Email != "" {
		sig.Email = cfg.User.Email
	}
	return sig
}
