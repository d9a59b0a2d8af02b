package mount

import (
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cadence-os/installkit/internal/swap"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

// Session owns the mount state of one install run: the guest root mount, its
// bind mounts and the escape anchor. It is the single owner of the process
// root context; all root transitions go through its methods.
//
// Access is serialized behind a mutex because the cancellation watcher may
// tear the session down while the install worker is still mid-step.
type Session struct {
	mu     sync.Mutex
	root   string
	anchor *Anchor

	cleanupOnce sync.Once
}

// Begin captures the escape anchor and records the guest root path. The
// anchor must exist before any chroot is entered, so Begin is the first
// mount-phase operation of every run.
func Begin(root string) (*Session, error) {
	anchor, err := CaptureEscapeAnchor()
	if err != nil {
		return nil, err
	}
	return &Session{root: root, anchor: anchor}, nil
}

// Root returns the guest root mount path.
func (s *Session) Root() string {
	return s.root
}

// Enter dives into the guest root. The anchor captured by Begin stays valid
// on the host side.
func (s *Session) Enter() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DiveIntoGuest(s.root)
}

// Escape returns the process to the host root.
func (s *Session) Escape() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EscapeChroot(s.anchor)
}

// Cleanup is the master teardown: escape the chroot, unmount the EFI
// submount, disable the swapfile, detach the bind mounts, then unmount the
// guest root. Every step is best effort; the contract is "leave the system
// as clean as possible", not "never fail". Runs at most once per session,
// whether invoked from the natural end of the pipeline, the failure path or
// the cancellation watcher.
func (s *Session) Cleanup() {
	s.cleanupOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		logrus.Info("Cleaning up mount path ...")

		if err := EscapeChroot(s.anchor); err != nil {
			logrus.Warnf("Escaping chroot: %v", err)
		}
		if sysinfo.EFIBooted() {
			if err := UnmountRoot(filepath.Join(s.root, "efi")); err != nil {
				logrus.Debugf("Unmounting EFI submount: %v", err)
			}
		}
		swap.Swapoff(s.root)
		RemoveBindMounts(s.root)
		if err := UnmountRoot(s.root); err != nil {
			logrus.Warnf("Unmounting %s: %v", s.root, err)
		}
		if err := s.anchor.Close(); err != nil {
			logrus.Debugf("Closing escape anchor: %v", err)
		}
	})
}
