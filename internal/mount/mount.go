package mount

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/cadence-os/installkit/internal/disks"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

// bindMounts are the host pseudo-filesystems the guest needs while it is
// being configured from inside a chroot.
var bindMounts = []string{"/dev", "/proc", "/sys", "/run/udev"}

const efivarsPath = "/sys/firmware/efi/efivars"

// MountError reports a failed native mount call.
type MountError struct {
	Source string
	Target string
	Err    error
}

func (e *MountError) Error() string {
	return fmt.Sprintf("failed to mount %s on %s: %v", e.Source, e.Target, e.Err)
}

func (e *MountError) Unwrap() error { return e.Err }

// Mount mounts a partition's filesystem on the target directory. The fat12,
// fat16 and fat32 signature names all map to the generic vfat mount type.
// No extra mount flags are passed: MS_LAZYTIME is deliberately not used, as
// it is rejected on several supported kernels.
func Mount(p disks.Partition, target string) error {
	if p.Path == "" || p.FSType == "" {
		return disks.ErrIncompleteTarget
	}

	fsType := p.FSType
	if strings.HasPrefix(fsType, "fat") {
		fsType = "vfat"
	}

	logrus.Infof("Mounting %s (%s) on %s", p.Path, fsType, target)
	if err := unix.Mount(p.Path, target, fsType, 0, ""); err != nil {
		return &MountError{Source: p.Path, Target: target, Err: err}
	}
	return nil
}

// SetupBindMounts creates the pseudo-filesystem directories under root and
// bind-mounts the host paths onto them. On an EFI-booted machine the EFI
// variable store is bind-mounted as well, so the bootloader installer can
// write boot entries.
//
// A failure part-way through leaves the earlier bind mounts in place; the
// caller runs RemoveBindMounts regardless of how far setup progressed.
func SetupBindMounts(root string) error {
	for _, src := range bindMountSources() {
		dst := filepath.Join(root, src)
		if err := os.MkdirAll(dst, 0755); err != nil {
			return fmt.Errorf("failed to create bind mount target %s: %w", dst, err)
		}
		if err := unix.Mount(src, dst, "", unix.MS_BIND, ""); err != nil {
			return &MountError{Source: src, Target: dst, Err: err}
		}
	}
	return nil
}

// RemoveBindMounts lazily detaches every bind mount SetupBindMounts creates.
// Best effort: a mount that is already gone is not an error worth stopping
// for. Must be called from outside an active chroot.
func RemoveBindMounts(root string) {
	for _, src := range bindMountSources() {
		dst := filepath.Join(root, src)
		if err := unix.Unmount(dst, unix.MNT_DETACH); err != nil {
			logrus.Debugf("Unmounting %s: %v", dst, err)
		}
	}
}

func bindMountSources() []string {
	sources := bindMounts
	if sysinfo.EFIBooted() {
		sources = append(sources[:len(sources):len(sources)], efivarsPath)
	}
	return sources
}

// UnmountRoot lazily detaches the filesystem mounted at root and syncs.
func UnmountRoot(root string) error {
	if err := unix.Unmount(root, unix.MNT_DETACH); err != nil {
		return &MountError{Source: root, Target: root, Err: err}
	}
	unix.Sync()
	return nil
}
