package mount

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// ChrootError reports a failed change of the process root.
type ChrootError struct {
	Op  string
	Err error
}

func (e *ChrootError) Error() string {
	return fmt.Sprintf("chroot %s failed: %v", e.Op, e.Err)
}

func (e *ChrootError) Unwrap() error { return e.Err }

// Anchor is an open directory handle on the host root, captured before any
// chroot is entered. It is the only way back to host-filesystem visibility
// once the process root has moved into the guest.
type Anchor struct {
	fd int
}

// CaptureEscapeAnchor opens the current (pre-chroot) root directory. It must
// be called, and its result retained, before DiveIntoGuest.
func CaptureEscapeAnchor() (*Anchor, error) {
	fd, err := unix.Open("/", unix.O_RDONLY|unix.O_DIRECTORY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, &ChrootError{Op: "open host root", Err: err}
	}
	return &Anchor{fd: fd}, nil
}

// Close releases the anchor's file descriptor.
func (a *Anchor) Close() error {
	return unix.Close(a.fd)
}

// DiveIntoGuest sets up the bind mounts, changes the process root to the
// guest root and resets the working directory. After this call every
// relative filesystem operation the process performs executes inside the
// guest. The only way back out is EscapeChroot with a previously captured
// anchor.
func DiveIntoGuest(root string) error {
	if err := SetupBindMounts(root); err != nil {
		return err
	}
	if err := unix.Chroot(root); err != nil {
		return &ChrootError{Op: "enter " + root, Err: err}
	}
	if err := os.Chdir("/"); err != nil {
		return &ChrootError{Op: "chdir to new root", Err: err}
	}
	return nil
}

// EscapeChroot uses the anchor as a trampoline back to the host root: change
// the working directory to the anchor, re-root there, then reset the working
// directory to the absolute root.
func EscapeChroot(anchor *Anchor) error {
	if err := unix.Fchdir(anchor.fd); err != nil {
		return &ChrootError{Op: "fchdir to anchor", Err: err}
	}
	if err := unix.Chroot("."); err != nil {
		return &ChrootError{Op: "restore host root", Err: err}
	}
	if err := os.Chdir("/"); err != nil {
		return &ChrootError{Op: "chdir to host root", Err: err}
	}

	logrus.Info("Escaped chroot environment")
	return nil
}
