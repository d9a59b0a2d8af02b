package pipeline

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cadence-os/installkit/internal/config"
	"github.com/cadence-os/installkit/internal/disks"
	"github.com/cadence-os/installkit/internal/network"
)

func testRequest() *config.InstallRequest {
	return &config.InstallRequest{
		Partition: disks.Partition{Path: "/dev/sda2", ParentPath: "/dev/sda", FSType: "ext4", Size: 1 << 37},
		Variant:   network.VariantEntry{Name: "Desktop", URL: "/os/d.tar.xz", InstallSize: 1 << 34, SHA256: "aa"},
		Mirror:    network.Mirror{Name: "origin", URL: "https://releases.example.org"},
		User:      "alice",
		Password:  "hunter2",
		Hostname:  "mybox",
		Locale:    "en_US.UTF-8",
		Timezone:  "UTC",
	}
}

// recordingSteps replaces every phase with a call recorder so the state
// machine can run without block devices or network.
type recordingSteps struct {
	calls    []string
	cleanups int32
}

func (r *recordingSteps) install(efi bool) *steps {
	record := func(name string) func() error {
		return func() error {
			r.calls = append(r.calls, name)
			return nil
		}
	}
	return &steps{
		efiBooted:         func() bool { return efi },
		validateTarget:    record("validateTarget"),
		format:            record("format"),
		mountRoot:         record("mountRoot"),
		mountBoot:         record("mountBoot"),
		fetch:             record("fetch"),
		extract:           record("extract"),
		configureGuest:    record("configureGuest"),
		setupSwap:         record("setupSwap"),
		installBootloader: record("installBootloader"),
		unmount:           record("unmount"),
		cleanup:           func() { atomic.AddInt32(&r.cleanups, 1) },
	}
}

func drain(t *testing.T, inst *Installer) []Progress {
	t.Helper()
	var events []Progress
	for event := range inst.Progress() {
		events = append(events, event)
	}
	return events
}

func TestRunSuccess(t *testing.T) {
	inst := New(testRequest(), "/var/log/installkit/test.log", nil)
	rec := &recordingSteps{}
	inst.steps = rec.install(false)

	inst.Run()
	events := drain(t, inst)
	require.NoError(t, inst.Wait())
	require.Equal(t, StateDone, inst.State())

	// BIOS boot and no swap requested: those phases are skipped entirely.
	require.Equal(t, []string{
		"validateTarget", "format", "mountRoot", "fetch", "extract",
		"configureGuest", "installBootloader", "unmount",
	}, rec.calls)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.True(t, last.Finished)
	require.Equal(t, 100, last.Percent)

	// Percentages are monotonically non-decreasing and Finished is terminal.
	prev := -1
	for _, event := range events[:len(events)-1] {
		require.False(t, event.Finished)
		require.GreaterOrEqual(t, event.Percent, prev)
		prev = event.Percent
	}
}

func TestRunSuccessEFIWithSwap(t *testing.T) {
	req := testRequest()
	req.Swap = config.SwapConfig{Enabled: true, SizeBytes: 1 << 33}

	inst := New(req, "", nil)
	rec := &recordingSteps{}
	inst.steps = rec.install(true)

	inst.Run()
	drain(t, inst)
	require.NoError(t, inst.Wait())

	require.Equal(t, []string{
		"validateTarget", "format", "mountRoot", "mountBoot", "fetch",
		"extract", "configureGuest", "setupSwap", "installBootloader", "unmount",
	}, rec.calls)
}

func TestRunRejectsSmallPartition(t *testing.T) {
	req := testRequest()
	req.Partition.Size = 1 << 30
	req.Variant.InstallSize = 1 << 34

	inst := New(req, "", nil)
	rec := &recordingSteps{}
	inst.steps = rec.install(false)

	inst.Run()
	events := drain(t, inst)
	err := inst.Wait()
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not have enough space")
	require.Equal(t, StateAborting, inst.State())

	// Rejected before anything destructive ran, or even the validators.
	require.Empty(t, rec.calls)
	require.EqualValues(t, 1, atomic.LoadInt32(&rec.cleanups))
	for _, event := range events {
		require.False(t, event.Finished)
	}
}

func TestRunAbortsOnPhaseError(t *testing.T) {
	inst := New(testRequest(), "", nil)
	rec := &recordingSteps{}
	s := rec.install(false)
	phaseErr := errors.New("mkfs.ext4 /dev/sda2 failed")
	s.format = func() error { return phaseErr }
	inst.steps = s

	inst.Run()
	drain(t, inst)
	err := inst.Wait()
	require.ErrorIs(t, err, phaseErr)
	require.Contains(t, err.Error(), string(StateFormatting))
	require.Equal(t, StateAborting, inst.State())

	require.Equal(t, []string{"validateTarget"}, rec.calls)
	require.EqualValues(t, 1, atomic.LoadInt32(&rec.cleanups))
}

func TestCancelDuringFetch(t *testing.T) {
	inst := New(testRequest(), "", nil)
	rec := &recordingSteps{}
	s := rec.install(false)

	fetchStarted := make(chan struct{})
	release := make(chan struct{})
	s.fetch = func() error {
		close(fetchStarted)
		<-release
		return ErrCancelled
	}
	inst.steps = s

	terminated := make(chan struct{})
	inst.terminate = func() { close(terminated) }

	inst.Run()
	<-fetchStarted
	inst.Cancel()
	inst.Cancel() // safe to repeat

	select {
	case <-terminated:
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation watcher never terminated the run")
	}
	require.Equal(t, StateAborting, inst.State())
	require.GreaterOrEqual(t, atomic.LoadInt32(&rec.cleanups), int32(1))

	close(release)
	err := inst.Wait()
	require.ErrorIs(t, err, ErrCancelled)

	// Later phases never ran and no success event was emitted.
	require.NotContains(t, rec.calls, "configureGuest")
	for _, event := range drain(t, inst) {
		require.False(t, event.Finished)
	}
}
