package disks

import (
	"fmt"

	"github.com/cadence-os/installkit/internal/command"
)

// Format invokes the external mkfs tool matching the partition's filesystem
// kind, defaulting when none is set. This is destructive and must only run
// after all validators have accepted the target.
func Format(p Partition) error {
	if p.Path == "" {
		return fmt.Errorf("cannot format: %w", ErrIncompleteTarget)
	}

	fsType := p.FSType
	if fsType == "" {
		fsType = DefaultFSType
	}

	args := []string{mkfsFlag(fsType), p.Path}
	return command.Run("mkfs."+fsType, args...)
}

// mkfsFlag picks the force/quick variant each formatter understands.
func mkfsFlag(fsType string) string {
	switch fsType {
	case "ext4":
		return "-Fq"
	case "vfat":
		return "-F32"
	default:
		return "-f"
	}
}
