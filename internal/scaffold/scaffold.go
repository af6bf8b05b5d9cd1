package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/midnight-magnolia/magnolia/internal/blueprint"
	"github.com/midnight-magnolia/magnolia/internal/branding"
	"github.com/midnight-magnolia/magnolia/internal/manifest"
	"github.com/midnight-magnolia/magnolia/internal/platform"
	"github.com/midnight-magnolia/magnolia/internal/report"
	"github.com/midnight-magnolia/magnolia/internal/vcs"
)

// Step names as they appear in the report.
const (
	StepDirectories = "directories"
	StepRepository  = "repository"
	StepBranches    = "branches"
	StepPackage     = "package"
	StepDeployment  = "deployment"
)

const (
	dirPerm  os.FileMode = 0755
	filePerm os.FileMode = 0644
	execPerm os.FileMode = 0755

	gitIgnoreFile = ".gitignore"
)

// Options identifies the project being scaffolded.
type Options struct {
	Dir         string // project root; created if missing
	ProjectName string // e.g. "midnight-magnolia-1"
	Account     string // GitHub account owning the remote
	DisplayName string // site name written to the deployment configuration
}

// Scaffolder runs the scaffolding steps for one project directory.
type Scaffolder struct {
	opts Options
	bp   *blueprint.Blueprint
	rec  *report.Recorder
}

// New returns a Scaffolder writing bp into opts.Dir. Progress is printed
// through out; a nil out scaffolds silently.
func New(opts Options, bp *blueprint.Blueprint, out *report.Printer) *Scaffolder {
	if opts.ProjectName == "" {
		opts.ProjectName = branding.ProjectName()
	}
	if opts.DisplayName == "" {
		opts.DisplayName = branding.DisplayName()
	}
	return &Scaffolder{opts: opts, bp: bp, rec: report.NewRecorder(out)}
}

// RemoteURL is the URL the scaffolder points the remote at.
func (s *Scaffolder) RemoteURL() string {
	return blueprint.RemoteURL(s.opts.Account, s.opts.ProjectName)
}

// Run executes every step in order. Version-control failures are recorded
// and scaffolding continues; filesystem and template errors abort the run
// and are returned along with the report of what was done so far.
func (s *Scaffolder) Run() (*report.Report, error) {
	s.rec.Printer().Banner(branding.DisplayName() + " Repository Setup")

	if err := s.ensureDirectories(); err != nil {
		return s.rec.Report(), err
	}
	repo, err := s.ensureRepository()
	if err != nil {
		return s.rec.Report(), err
	}
	s.ensureBranches(repo)
	if err := s.ensurePackage(); err != nil {
		return s.rec.Report(), err
	}
	if err := s.ensureDeployment(); err != nil {
		return s.rec.Report(), err
	}
	if err := s.ensureFiles(); err != nil {
		return s.rec.Report(), err
	}

	s.rec.Printer().Banner(
		"Repository Setup Complete",
		"",
		"Next Steps:",
		"1. Update "+manifest.DeployConfigFile+" with your "+branding.Hosting()+" site ID",
		"2. Install dependencies: npm install",
		"3. Add your components and assets",
		"4. Deploy to "+branding.Hosting()+": npm run deploy:wix",
	)
	return s.rec.Report(), nil
}

func (s *Scaffolder) ensureDirectories() error {
	s.rec.Section("Creating directory structure...")
	if err := os.MkdirAll(s.opts.Dir, dirPerm); err != nil {
		return fmt.Errorf("creating project root %s: %w", s.opts.Dir, err)
	}
	for _, dir := range s.bp.Directories {
		if err := s.ensureDir(StepDirectories, dir); err != nil {
			return err
		}
	}
	return nil
}

// ensureRepository returns nil when the repository could not be opened or
// created; the failure is recorded and the branch step skipped.
func (s *Scaffolder) ensureRepository() (*vcs.Repo, error) {
	s.rec.Section("Initializing git repository...")

	repo, change, err := vcs.EnsureRepository(s.opts.Dir, s.bp.DefaultBranch)
	switch {
	case err != nil:
		s.rec.Failed(StepRepository, "git repository", err)
	case change == vcs.Created:
		s.rec.Created(StepRepository, "git repository")
	default:
		s.rec.Present(StepRepository, "git repository")
	}

	if err := s.ensureFile(StepRepository, gitIgnoreFile, filePerm, func() ([]byte, error) {
		return []byte(s.bp.GitIgnore), nil
	}); err != nil {
		return nil, err
	}

	if repo == nil {
		return nil, nil
	}
	remote := "remote " + s.bp.Remote
	change, err = repo.EnsureRemote(s.bp.Remote, s.RemoteURL())
	switch {
	case err != nil:
		s.rec.Failed(StepRepository, remote, err)
	case change == vcs.Created:
		s.rec.Created(StepRepository, remote+" ("+s.RemoteURL()+")")
	case change == vcs.Updated:
		s.rec.Updated(StepRepository, remote, "now "+s.RemoteURL())
	default:
		s.rec.Present(StepRepository, remote)
	}
	return repo, nil
}

// ensureBranches creates every missing branch and leaves HEAD on the default
// branch. Each branch is attempted even if an earlier one failed.
func (s *Scaffolder) ensureBranches(repo *vcs.Repo) {
	s.rec.Section("Setting up branch structure...")
	if repo == nil {
		s.rec.Failed(StepBranches, "branch structure", errors.New("no repository"))
		return
	}

	defaultBranch := s.bp.DefaultBranch
	change, err := repo.EnsureRootCommit(defaultBranch)
	switch {
	case err != nil:
		s.rec.Failed(StepBranches, "initial commit", err)
	case change == vcs.Created:
		s.rec.Created(StepBranches, "initial commit on "+defaultBranch)
	}

	for _, name := range s.bp.BranchNames() {
		artifact := "branch " + name
		change, err := repo.EnsureBranch(name)
		switch {
		case err != nil:
			s.rec.Failed(StepBranches, artifact, err)
		case change == vcs.Created:
			s.rec.Created(StepBranches, artifact)
		default:
			s.rec.Present(StepBranches, artifact)
		}
	}

	change, err = repo.Checkout(defaultBranch)
	switch {
	case err != nil:
		s.rec.Failed(StepBranches, "checkout of "+defaultBranch, err)
	case change == vcs.Updated:
		s.rec.Updated(StepBranches, "active branch", "switched to "+defaultBranch)
	default:
		s.rec.Passed(StepBranches, "Active branch is "+defaultBranch, "")
	}
}

func (s *Scaffolder) ensurePackage() error {
	s.rec.Section("Creating " + manifest.PackageFile + "...")
	return s.ensureFile(StepPackage, manifest.PackageFile, filePerm, func() ([]byte, error) {
		return manifest.Encode(s.bp.ProjectConfig(s.opts.ProjectName))
	})
}

func (s *Scaffolder) ensureDeployment() error {
	s.rec.Section("Creating " + branding.Hosting() + " configuration...")
	return s.ensureFile(StepDeployment, manifest.DeployConfigFile, filePerm, func() ([]byte, error) {
		return manifest.Encode(s.bp.DeploymentConfig(s.opts.DisplayName))
	})
}

func (s *Scaffolder) ensureFiles() error {
	data := s.bp.NewData(s.opts.ProjectName, s.opts.Account)
	for _, f := range s.bp.Files {
		s.rec.Section("Creating " + f.Step + "...")
		perm := filePerm
		if f.Executable {
			perm = execPerm
		}
		if err := s.ensureFile(f.Step, f.Path, perm, func() ([]byte, error) {
			return s.bp.Render(f, data)
		}); err != nil {
			return err
		}
	}
	return nil
}

// ensureDir creates a directory if it doesn't exist.
func (s *Scaffolder) ensureDir(step, rel string) error {
	path := filepath.Join(s.opts.Dir, filepath.FromSlash(rel))
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			s.rec.Present(step, rel)
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", path)
	}

	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	s.rec.Created(step, rel)
	return nil
}

// ensureFile creates a file with the produced content if nothing exists at
// rel. Existing files are never opened for writing.
func (s *Scaffolder) ensureFile(step, rel string, perm os.FileMode, content func() ([]byte, error)) error {
	path := filepath.Join(s.opts.Dir, filepath.FromSlash(rel))
	if info, err := os.Lstat(path); err == nil {
		if perm&0100 != 0 && info.Mode().IsRegular() && !platform.IsExecutable(info.Mode()) {
			s.rec.Record(report.Result{Step: step, Artifact: rel, Status: report.StatusPresent, Detail: "not executable"})
			return nil
		}
		s.rec.Present(step, rel)
		return nil
	}

	data, err := content()
	if err != nil {
		return fmt.Errorf("producing %s: %w", rel, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if errors.Is(err, fs.ErrExist) {
		s.rec.Present(step, rel)
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	// The umask may have stripped bits from perm.
	if err := platform.Chmod(path, perm); err != nil {
		return fmt.Errorf("setting permissions on %s: %w", path, err)
	}
	s.rec.Created(step, rel)
	return nil
}
