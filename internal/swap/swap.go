package swap

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/cadence-os/installkit/internal/command"
)

const gib = 1024 * 1024 * 1024

// TooSmallError rejects a user-chosen swapfile below the minimum workable
// size for this machine. RecommendGiB is carried for display.
type TooSmallError struct {
	RecommendGiB float64
}

func (e *TooSmallError) Error() string {
	return fmt.Sprintf("the specified swapfile size is too small; at least %.0f GiB is recommended for this device", e.RecommendGiB)
}

// RecommendedBytes computes the recommended swapfile size for a machine with
// the given memory, in bytes. The heuristic is piecewise linear in GiB and
// the result is rounded to the nearest GiB.
func RecommendedBytes(totalMemGiB float64) uint64 {
	var swapGiB float64
	switch {
	case totalMemGiB <= 5:
		swapGiB = 1.3*totalMemGiB + 0.7
	case totalMemGiB <= 32:
		swapGiB = 1.1543*totalMemGiB + 1.36328
	default:
		swapGiB = 1.009945*totalMemGiB + 16.087529
	}
	return uint64(math.Round(swapGiB)) * gib
}

// DefaultSize reports whether candidateBytes matches the recommendation for
// this machine. Sizes that round-trip through a configuration file survive
// GiB rounding, so the comparison tolerates one byte of drift instead of
// requiring bit-exact equality.
func DefaultSize(candidateBytes uint64, totalMemGiB float64) bool {
	recommended := RecommendedBytes(totalMemGiB)
	diff := int64(candidateBytes) - int64(recommended)
	return diff >= -1 && diff <= 1
}

// HibernationFeasible decides whether a swapfile of candidateBytes supports
// hibernation on a machine with totalMemBytes of memory. The floor is the
// recommended size minus installed memory: below it the swapfile is too
// small to be useful at all, between floor and recommended it works but
// cannot hold a RAM image, at or above recommended hibernation is possible.
func HibernationFeasible(candidateBytes, totalMemBytes uint64) (bool, error) {
	recommended := RecommendedBytes(float64(totalMemBytes / gib))
	floor := int64(recommended) - int64(totalMemBytes)

	switch {
	case candidateBytes >= recommended:
		return true, nil
	case int64(candidateBytes) >= floor:
		return false, nil
	default:
		return false, &TooSmallError{RecommendGiB: math.Round(float64(recommended) / gib)}
	}
}

// CreateSwapfile allocates <root>/swapfile, initializes and enables it.
// Enabling is best effort: a swapfile that could not be switched on is still
// valid for the installed system's own boot.
func CreateSwapfile(sizeBytes uint64, root string) error {
	path := filepath.Join(root, "swapfile")
	logrus.Infof("Creating %d-byte swapfile at %s", sizeBytes, path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create swapfile: %w", err)
	}
	if err := unix.Fallocate(int(f.Fd()), 0, 0, int64(sizeBytes)); err != nil {
		f.Close()
		return fmt.Errorf("failed to allocate swapfile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close swapfile: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set swapfile permissions: %w", err)
	}

	if err := command.Run("mkswap", path); err != nil {
		return err
	}
	if err := command.Run("swapon", path); err != nil {
		logrus.Warnf("Enabling swapfile: %v", err)
	}
	return nil
}

// Swapoff disables the run's swapfile, if any. Best effort; part of cleanup.
func Swapoff(root string) {
	path := filepath.Join(root, "swapfile")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := command.Run("swapoff", path); err != nil {
		logrus.Debugf("Disabling swapfile: %v", err)
	}
}
