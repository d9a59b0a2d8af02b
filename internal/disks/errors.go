package disks

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an expected partition, device or partition
// flag is absent.
var ErrNotFound = errors.New("partition or device not found")

// ErrIncompleteTarget is returned when a partition lacks the device path or
// filesystem information required for the requested operation.
var ErrIncompleteTarget = errors.New("partition is missing device path or filesystem type")

// NonPrimaryPartitionError rejects install targets on MBR extended or logical
// partitions, which may cause startup issues.
type NonPrimaryPartitionError struct {
	Path     string
	PartKind string
}

func (e *NonPrimaryPartitionError) Error() string {
	return fmt.Sprintf("%s is an MBR %s partition; the system partition must be a primary partition", e.Path, e.PartKind)
}

// FirmwareTableMismatchError rejects partition table kinds that the booted
// firmware cannot start from.
type FirmwareTableMismatchError struct {
	Table    string // detected table kind
	Firmware string // "EFI" or "BIOS"
	Want     string // table kind the user must switch to
}

func (e *FirmwareTableMismatchError) Error() string {
	return fmt.Sprintf("unsupported partition map: %s table on an %s-based device; please use a %s partition map", e.Table, e.Firmware, e.Want)
}
