// Package pipeline sequences one install run: a strictly ordered state
// machine on a dedicated worker goroutine, reporting progress over a single
// ordered channel and guaranteeing mount/chroot cleanup on success, failure
// and cancellation alike.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/cadence-os/installkit/internal/config"
	"github.com/cadence-os/installkit/internal/journal"
)

// ErrCancelled is stored as the run error when the operator aborts.
var ErrCancelled = errors.New("installation cancelled")

// Installer drives one install attempt. It is single-use: Run may be called
// once, and the request is immutable for the lifetime of the run.
type Installer struct {
	req     *config.InstallRequest
	logPath string
	jdb     *journal.DB
	runID   int64

	progress chan Progress
	done     chan struct{}

	cancelCh   chan struct{}
	cancelOnce sync.Once

	mu    sync.Mutex
	state State
	err   error

	steps *steps
	// terminate ends the process after a cancellation cleanup. The watcher
	// performs a deliberate hard stop; it does not wait for the worker to
	// reach a safe point.
	terminate func()
}

// New prepares an installer for the given request. The journal handle may be
// nil; logPath is surfaced alongside any install error.
func New(req *config.InstallRequest, logPath string, jdb *journal.DB) *Installer {
	inst := &Installer{
		req:       req,
		logPath:   logPath,
		jdb:       jdb,
		progress:  make(chan Progress, 64),
		done:      make(chan struct{}),
		cancelCh:  make(chan struct{}),
		state:     StateIdle,
		terminate: func() { os.Exit(130) },
	}
	inst.steps = defaultSteps(inst)
	return inst
}

// Progress returns the ordered event channel. It is closed when the worker
// terminates; closure without a prior Finished event means the run failed
// and Wait returns the stored error.
func (i *Installer) Progress() <-chan Progress {
	return i.progress
}

// LogPath returns the persisted log file path for error reporting.
func (i *Installer) LogPath() string {
	return i.logPath
}

// State returns the pipeline's current state.
func (i *Installer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Cancel requests a hard stop. The cancellation watcher, not the worker,
// performs the cleanup; safe to call more than once.
func (i *Installer) Cancel() {
	i.cancelOnce.Do(func() { close(i.cancelCh) })
}

// Wait blocks until the worker has terminated and returns its outcome.
func (i *Installer) Wait() error {
	<-i.done
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// Run starts the worker and the cancellation watcher, then returns.
func (i *Installer) Run() {
	if i.jdb != nil {
		id, err := i.jdb.BeginRun(i.req.Partition.Path, i.req.Partition.FSType,
			i.req.Variant.Name, i.req.Mirror.Name, i.req.Hostname)
		if err != nil {
			logrus.Warnf("Recording run in journal: %v", err)
		} else {
			i.runID = id
		}
	}

	go i.watchCancel()
	go i.work()
}

// watchCancel tears the mount session down from its own goroutine when the
// operator aborts. This races the worker's forward progress by design: every
// mount operation tolerates being undone underneath it, and the session
// serializes the actual teardown.
func (i *Installer) watchCancel() {
	select {
	case <-i.cancelCh:
		logrus.Info("Operator requested to abort the installation")
		i.setState(StateAborting)
		i.steps.cleanup()
		i.finishJournal("cancelled", ErrCancelled.Error())
		i.terminate()
	case <-i.done:
	}
}

// phase couples one pipeline state with the component call that advances it.
type phase struct {
	state   State
	message string
	percent int
	skip    func() bool
	run     func() error
}

func (i *Installer) phases() []phase {
	req := i.req
	return []phase{
		{StateFormatting, "Formatting system partition ...", 3, nil, i.steps.format},
		{StateMounting, "Mounting system partition ...", 8, nil, i.steps.mountRoot},
		{StateMountingBoot, "Mounting EFI system partition ...", 12, func() bool { return !i.steps.efiBooted() }, i.steps.mountBoot},
		{StateFetching, "Downloading system release ...", 15, nil, i.steps.fetch},
		{StateExtracting, "Unpacking system release ...", 55, nil, i.steps.extract},
		{StateConfiguringGuest, "Configuring installed system ...", 75, nil, i.steps.configureGuest},
		{StateSwapSetup, "Setting up swapfile ...", 85, func() bool { return !req.Swap.Enabled }, i.steps.setupSwap},
		{StateBootloaderInstall, "Installing bootloader ...", 90, nil, i.steps.installBootloader},
		{StateUnmounting, "Unmounting filesystems ...", 98, nil, i.steps.unmount},
	}
}

// work executes the forward sequence. The first error aborts the remaining
// steps; cleanup is attempted unconditionally before the error is surfaced.
func (i *Installer) work() {
	defer close(i.done)
	defer close(i.progress)

	if err := i.precheck(); err != nil {
		i.abort(err)
		return
	}

	for _, p := range i.phases() {
		if p.skip != nil && p.skip() {
			continue
		}
		i.setState(p.state)
		i.emit(p.message, p.percent)
		if err := p.run(); err != nil {
			i.abort(fmt.Errorf("%s: %w", p.state, err))
			return
		}
	}

	i.setState(StateDone)
	i.finishJournal("success", "")
	i.progress <- Progress{Finished: true, Percent: 100}
	logrus.Info("Installation finished")
}

// precheck runs everything that must reject a doomed request before the
// first destructive step: the size check and the partition table validators.
func (i *Installer) precheck() error {
	req := i.req
	if req.Partition.Size < req.Variant.InstallSize {
		return fmt.Errorf(
			"the specified partition does not have enough space for this release: available %s, required %s",
			humanize.IBytes(req.Partition.Size), humanize.IBytes(req.Variant.InstallSize))
	}
	return i.steps.validateTarget()
}

func (i *Installer) abort(err error) {
	logrus.Errorf("Installation failed: %v", err)
	i.setState(StateAborting)
	i.steps.cleanup()

	i.mu.Lock()
	i.err = err
	i.mu.Unlock()
	i.finishJournal("failed", err.Error())
}

func (i *Installer) setState(s State) {
	i.mu.Lock()
	i.state = s
	i.mu.Unlock()

	if i.jdb != nil && i.runID != 0 {
		if err := i.jdb.RecordStep(i.runID, string(s), "", 0); err != nil {
			logrus.Debugf("Recording step: %v", err)
		}
	}
}

func (i *Installer) emit(message string, percent int) {
	i.progress <- Progress{Message: message, Percent: percent}
}

func (i *Installer) finishJournal(outcome, errText string) {
	if i.jdb == nil || i.runID == 0 {
		return
	}
	if err := i.jdb.FinishRun(i.runID, outcome, errText); err != nil {
		logrus.Debugf("Finishing journal run: %v", err)
	}
}
