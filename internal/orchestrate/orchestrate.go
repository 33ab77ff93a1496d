// Package orchestrate drives a single manager run: check for a manager
// update (and hand off to the external executor when one exists), then bring
// the worker up to date and launch it with a single-use token.
package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/handoff"
	"github.com/cyberionsoft/devmanager/internal/release"
	"github.com/cyberionsoft/devmanager/internal/supervise"
)

const workerTerminateGrace = 10 * time.Second

// ReleaseSource is the subset of the release client the orchestrator needs.
type ReleaseSource interface {
	LatestRelease(ctx context.Context, repo string) (*release.Release, error)
	DownloadAsset(ctx context.Context, asset release.Asset, destPath, expectedSHA string, progress release.ProgressFunc) error
	FetchChecksum(ctx context.Context, rel *release.Release, assetName string) (string, error)
}

// TokenIssuer mints launch tokens for the worker.
type TokenIssuer interface {
	IssueLaunchToken(subject string) (string, error)
}

// Config wires an Orchestrator. Zero fields fall back to the real process
// supervisor and the current process identity.
type Config struct {
	Source ReleaseSource
	Tokens TokenIssuer

	// CurrentVersion is the running manager's version, nil when unknown.
	CurrentVersion *semver.Version

	ExecutablePath string // running manager binary
	WorkerPath     string // installed worker binary
	HandoffPath    string // handoff executor binary
	ConfigDir      string
	StagingDir     string // downloads land here before being applied

	SelfPid int

	Terminate func(ctx context.Context, identity string, grace time.Duration) error
	Launch    func(path string, args []string, detached bool) (int, error)

	Log    *logrus.Entry
	Events chan<- Event
}

// Orchestrator runs the update-and-launch sequence on the caller's goroutine.
type Orchestrator struct {
	cfg Config
}

func New(cfg Config) *Orchestrator {
	if cfg.Terminate == nil {
		cfg.Terminate = supervise.TerminateAll
	}
	if cfg.Launch == nil {
		cfg.Launch = supervise.Launch
	}
	if cfg.SelfPid == 0 {
		cfg.SelfPid = os.Getpid()
	}
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{cfg: cfg}
}

// Run executes one full pass of the state machine. It returns
// OutcomeHandedOff when the caller must exit so the handoff executor can
// replace its file; any returned error after OutcomeWorkerLaunched paths
// means the worker could not be started.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	o.emit(Event{State: Idle})

	handedOff, err := o.selfUpdate(ctx)
	if err != nil {
		// Self-update problems never block the worker: log and continue with
		// the executable we already have.
		o.cfg.Log.WithError(err).Warn("self-update skipped")
	}
	if handedOff {
		o.emit(Event{State: Exited})
		return OutcomeHandedOff, nil
	}

	if err := o.workerUpdate(ctx); err != nil {
		o.cfg.Log.WithError(err).Warn("worker update failed, launching existing binary")
	}

	if err := o.launchWorker(); err != nil {
		return OutcomeWorkerLaunched, err
	}

	o.emit(Event{State: Done})
	return OutcomeWorkerLaunched, nil
}

// selfUpdate checks the manager's own release channel and, when a newer
// version exists, downloads it and spawns the handoff executor. The bool
// result reports whether a handoff was started.
func (o *Orchestrator) selfUpdate(ctx context.Context) (bool, error) {
	o.emit(Event{State: CheckingSelf})

	rel, err := o.cfg.Source.LatestRelease(ctx, branding.ManagerRepo())
	if err != nil {
		return false, fmt.Errorf("checking manager releases: %w", err)
	}

	remote, verErr := rel.Version()
	decision := release.Decide(o.cfg.CurrentVersion, rel, o.assetNameFor(branding.ManagerAssetName, remote, verErr))
	o.recordCheck(decision)

	if !decision.NeedsUpdate {
		o.emit(Event{State: SelfUpToDate})
		return false, nil
	}
	if decision.Asset == nil {
		o.emit(Event{State: SelfUpToDate})
		return false, fmt.Errorf("release %s has no asset for this platform", rel.TagName)
	}

	o.emit(Event{State: DownloadingSelf, Message: decision.Asset.Name})
	staged, err := o.download(ctx, rel, *decision.Asset, DownloadingSelf)
	if err != nil {
		o.emit(Event{State: SelfUpToDate, Err: err})
		return false, err
	}

	o.emit(Event{State: HandingOff})
	args := []string{
		"--pid", fmt.Sprint(o.cfg.SelfPid),
		"--target", o.cfg.ExecutablePath,
		"--source", staged,
		"--relaunch",
	}
	if _, err := o.cfg.Launch(o.cfg.HandoffPath, args, true); err != nil {
		o.emit(Event{State: SelfUpToDate, Err: err})
		return false, fmt.Errorf("starting handoff executor: %w", err)
	}

	o.cfg.Log.WithField("version", decision.Remote).Info("handoff started, exiting for replacement")
	return true, nil
}

// workerUpdate brings the worker binary up to date. Failures leave whatever
// binary is installed in place.
func (o *Orchestrator) workerUpdate(ctx context.Context) error {
	o.emit(Event{State: CheckingWorker})

	installed, err := release.InstalledVersion(o.cfg.ConfigDir, branding.WorkerName())
	if err != nil {
		o.cfg.Log.WithError(err).Debug("no recorded worker version")
	}
	if _, statErr := os.Stat(o.cfg.WorkerPath); statErr != nil {
		// Binary missing: force a reinstall regardless of the recorded version.
		installed = nil
	}

	rel, err := o.cfg.Source.LatestRelease(ctx, branding.WorkerRepo())
	if err != nil {
		return fmt.Errorf("checking worker releases: %w", err)
	}

	remote, verErr := rel.Version()
	decision := release.Decide(installed, rel, o.assetNameFor(branding.WorkerAssetName, remote, verErr))
	if !decision.NeedsUpdate {
		o.emit(Event{State: WorkerUpToDate})
		return nil
	}
	if decision.Asset == nil {
		o.emit(Event{State: WorkerUpToDate})
		return fmt.Errorf("release %s has no worker asset for this platform", rel.TagName)
	}

	o.emit(Event{State: UpdatingWorker, Message: decision.Asset.Name})

	if err := o.cfg.Terminate(ctx, branding.WorkerExe(), workerTerminateGrace); err != nil {
		return fmt.Errorf("stopping running worker: %w", err)
	}

	staged, err := o.download(ctx, rel, *decision.Asset, UpdatingWorker)
	if err != nil {
		return err
	}

	if err := o.installWorker(staged); err != nil {
		return err
	}

	if err := release.RecordInstalledVersion(o.cfg.ConfigDir, branding.WorkerName(), decision.Remote.String()); err != nil {
		o.cfg.Log.WithError(err).Warn("recording worker version")
	}
	o.cfg.Log.WithField("version", decision.Remote).Info("worker updated")
	return nil
}

func (o *Orchestrator) installWorker(archivePath string) error {
	exeName := filepath.Base(o.cfg.WorkerPath)
	extracted := filepath.Join(o.cfg.StagingDir, exeName+".new")
	if err := handoff.ExtractExecutable(archivePath, exeName, extracted); err != nil {
		return fmt.Errorf("unpacking worker archive: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(o.cfg.WorkerPath), 0o755); err != nil {
		return err
	}
	if err := handoff.Apply(extracted, o.cfg.WorkerPath); err != nil {
		return fmt.Errorf("installing worker: %w", err)
	}
	os.Remove(archivePath)
	return nil
}

func (o *Orchestrator) launchWorker() error {
	o.emit(Event{State: IssuingToken})
	tok, err := o.cfg.Tokens.IssueLaunchToken(branding.WorkerName())
	if err != nil {
		return fmt.Errorf("issuing launch token: %w", err)
	}

	o.emit(Event{State: LaunchingWorker})
	pid, err := o.cfg.Launch(o.cfg.WorkerPath, []string{"--token", tok}, true)
	if err != nil {
		o.emit(Event{State: LaunchingWorker, Err: err})
		return fmt.Errorf("launching %s: %w", branding.WorkerName(), err)
	}
	o.cfg.Log.WithField("pid", pid).Info("worker launched")
	return nil
}

// download fetches an asset into the staging dir, verifying against the
// channel's checksums.txt when one is published.
func (o *Orchestrator) download(ctx context.Context, rel *release.Release, asset release.Asset, state State) (string, error) {
	expectedSHA, err := o.cfg.Source.FetchChecksum(ctx, rel, asset.Name)
	if err != nil {
		o.cfg.Log.WithError(err).Warn("fetching checksums")
		expectedSHA = ""
	}
	if expectedSHA == "" {
		o.cfg.Log.WithField("asset", asset.Name).Debug("no published checksum, downloading unverified")
	}

	if err := os.MkdirAll(o.cfg.StagingDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(o.cfg.StagingDir, asset.Name)
	progress := func(written, total int64) {
		if total > 0 {
			o.emit(Event{State: state, Progress: float64(written) / float64(total)})
		}
	}
	if err := o.cfg.Source.DownloadAsset(ctx, asset, dest, expectedSHA, progress); err != nil {
		return "", fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	return dest, nil
}

func (o *Orchestrator) assetNameFor(naming func(string) string, remote *semver.Version, verErr error) string {
	if verErr != nil || remote == nil {
		return ""
	}
	return naming(remote.String())
}

// recordCheck persists the self-check result so the CLI banner can show it
// without hitting the network.
func (o *Orchestrator) recordCheck(d release.UpdateDecision) {
	if o.cfg.ConfigDir == "" || d.Remote == nil {
		return
	}
	cache := &release.VersionCache{
		LatestVersion:   d.Remote.String(),
		CheckedAt:       time.Now(),
		UpdateAvailable: d.NeedsUpdate,
	}
	if d.Current != nil {
		cache.CurrentVersion = d.Current.String()
	}
	if err := release.SaveCache(o.cfg.ConfigDir, cache); err != nil {
		o.cfg.Log.WithError(err).Debug("saving version cache")
	}
}

func (o *Orchestrator) emit(ev Event) {
	if ev.Message == "" && ev.Err == nil && ev.Progress == 0 {
		ev.Message = ev.State.String()
	}
	if o.cfg.Events == nil {
		return
	}
	select {
	case o.cfg.Events <- ev:
	default:
		// Slow consumer: drop rather than stall the run.
	}
}
