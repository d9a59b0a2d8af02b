package disks

import (
	"fmt"
	"strings"

	"github.com/cadence-os/installkit/internal/command"
)

// Partition table kinds as reported by the partitioning stack.
const (
	TableGPT = "gpt"
	TableMBR = "msdos"
)

// TableKind reads the partition table kind of a whole disk. The result is
// derived on every call: external partitioning tools may have rewritten the
// label since the last probe.
func TableKind(device string) (string, error) {
	if device == "" {
		return "", ErrNotFound
	}
	out, err := command.Output("lsblk", "-ndo", "PTTYPE", device)
	if err != nil {
		return "", fmt.Errorf("failed to read partition table of %s: %w", device, err)
	}

	kind := strings.TrimSpace(string(out))
	switch kind {
	case "":
		return "", fmt.Errorf("%s has no recognizable partition table: %w", device, ErrNotFound)
	case "dos":
		// blkid/lsblk call the legacy label "dos"; parted and the rest of
		// the installer call it "msdos".
		return TableMBR, nil
	default:
		return kind, nil
	}
}
