package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cadence-os/installkit/internal/command"
	"github.com/cadence-os/installkit/internal/disks"
	"github.com/cadence-os/installkit/internal/fstab"
	"github.com/cadence-os/installkit/internal/guest"
	"github.com/cadence-os/installkit/internal/mount"
	"github.com/cadence-os/installkit/internal/network"
	"github.com/cadence-os/installkit/internal/swap"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

// steps holds the component calls behind each pipeline phase as swappable
// functions, so the state machine can be exercised without touching real
// block devices.
type steps struct {
	efiBooted         func() bool
	validateTarget    func() error
	format            func() error
	mountRoot         func() error
	mountBoot         func() error
	fetch             func() error
	extract           func() error
	configureGuest    func() error
	setupSwap         func() error
	installBootloader func() error
	unmount           func() error
	cleanup           func()
}

func defaultSteps(i *Installer) *steps {
	real := &realSteps{inst: i}
	return &steps{
		efiBooted:         sysinfo.EFIBooted,
		validateTarget:    real.validateTarget,
		format:            real.format,
		mountRoot:         real.mountRoot,
		mountBoot:         real.mountBoot,
		fetch:             real.fetch,
		extract:           real.extract,
		configureGuest:    real.configureGuest,
		setupSwap:         real.setupSwap,
		installBootloader: real.installBootloader,
		unmount:           real.unmount,
		cleanup:           real.cleanup,
	}
}

// realSteps performs the phases against the live system.
type realSteps struct {
	inst    *Installer
	session *mount.Session
}

func (r *realSteps) root() string {
	if r.session == nil {
		return ""
	}
	return r.session.Root()
}

func (r *realSteps) tarballPath() string {
	return filepath.Join(r.root(), "tarball")
}

func (r *realSteps) validateTarget() error {
	parent := r.inst.req.Partition.ParentPath
	if err := disks.CheckMBRPrimary(parent, r.inst.req.Partition.Path); err != nil {
		return err
	}
	return disks.CheckTableMatchesFirmware(parent)
}

func (r *realSteps) format() error {
	return disks.Format(r.inst.req.Partition)
}

func (r *realSteps) mountRoot() error {
	mount.DetachStale()

	dir, err := os.MkdirTemp(filepath.Dir(mount.MountDirPrefix), filepath.Base(mount.MountDirPrefix))
	if err != nil {
		return fmt.Errorf("failed to create mount directory: %w", err)
	}

	// The escape anchor must exist before anything can chroot.
	session, err := mount.Begin(dir)
	if err != nil {
		return err
	}
	r.session = session

	return mount.Mount(r.inst.req.Partition, dir)
}

func (r *realSteps) mountBoot() error {
	esp, err := disks.FindESP(r.inst.req.Partition.ParentPath)
	if err != nil {
		return err
	}
	efiDir := filepath.Join(r.root(), "efi")
	if err := os.MkdirAll(efiDir, 0755); err != nil {
		return fmt.Errorf("failed to create EFI mount directory: %w", err)
	}
	return mount.Mount(esp, efiDir)
}

func (r *realSteps) fetch() error {
	req := r.inst.req
	lastPercent := -1
	return network.Download(req.Mirror.URL, req.Variant.URL, r.tarballPath(), req.Variant.SHA256,
		func(total uint64) {
			if req.Variant.Size == 0 {
				return
			}
			percent := 15 + int(total*40/req.Variant.Size)
			if percent > 55 {
				percent = 55
			}
			if percent != lastPercent {
				lastPercent = percent
				r.inst.emit("Downloading system release ...", percent)
			}
		})
}

func (r *realSteps) extract() error {
	if err := command.Run("tar",
		"-xpJf", r.tarballPath(),
		"--xattrs", "--xattrs-include=*",
		"-C", r.root()); err != nil {
		return err
	}
	return os.Remove(r.tarballPath())
}

func (r *realSteps) configureGuest() error {
	req := r.inst.req

	// fstab needs the host-visible device node, so it is generated before
	// the dive into the guest.
	if err := fstab.Append(r.root(), req.Partition.Path, req.Partition.FSType, "/"); err != nil {
		return err
	}

	if err := r.session.Enter(); err != nil {
		return err
	}

	if err := guest.SetHostname(req.Hostname); err != nil {
		return fmt.Errorf("failed to set hostname: %w", err)
	}
	if err := guest.SetLocale(req.Locale); err != nil {
		return fmt.Errorf("failed to set locale: %w", err)
	}
	if err := guest.SetZoneinfo(req.Timezone); err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}
	if err := guest.SetHwclock(!req.RTCLocal); err != nil {
		return err
	}
	if err := guest.AddUser(req.User, req.Password); err != nil {
		return err
	}
	return guest.UpdateInitramfs()
}

// setupSwap runs inside the chroot: /swapfile resolves under the guest root.
func (r *realSteps) setupSwap() error {
	req := r.inst.req
	if err := swap.CreateSwapfile(req.Swap.SizeBytes, "/"); err != nil {
		return err
	}
	if err := fstab.AppendSwapfile("/"); err != nil {
		return err
	}
	if !req.Swap.Hibernation {
		return guest.DisableHibernate()
	}
	return nil
}

func (r *realSteps) installBootloader() error {
	if sysinfo.EFIBooted() {
		return guest.InstallBootloader(sysinfo.Arch(), "")
	}
	return guest.InstallBootloader(sysinfo.Arch(), r.inst.req.Partition.ParentPath)
}

func (r *realSteps) unmount() error {
	r.session.Cleanup()
	return nil
}

// cleanup is shared between the failure path and the cancellation watcher.
// Safe to call before the session exists and safe to call twice: the session
// runs its teardown at most once.
func (r *realSteps) cleanup() {
	if r.session != nil {
		r.session.Cleanup()
	}
}
