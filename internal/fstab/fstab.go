package fstab

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cadence-os/installkit/internal/command"
)

// ErrUnsupportedFilesystem rejects filesystem kinds outside the recognized
// set; an fstab line for them would leave the guest unbootable.
var ErrUnsupportedFilesystem = errors.New("unsupported filesystem type")

// ErrNoUUID is returned when no persistent UUID can be obtained for a device.
var ErrNoUUID = errors.New("could not obtain partition UUID")

// SwapfileEntry is the static fstab line for the installer-created swapfile.
const SwapfileEntry = "/swapfile none swap defaults,nofail 0 0\n"

// fsEntry maps a probed filesystem kind to its canonical fstab type and
// default mount options.
type fsEntry struct {
	fstype  string
	options string
}

var fsEntries = map[string]fsEntry{
	"vfat":  {"vfat", "defaults"},
	"fat16": {"vfat", "defaults"},
	"fat32": {"vfat", "defaults"},
	"ext4":  {"ext4", "defaults"},
	"btrfs": {"btrfs", "defaults"},
	"xfs":   {"xfs", "defaults"},
	"f2fs":  {"f2fs", "defaults"},
	"swap":  {"swap", "sw"},
}

// resolveUUID reads the persistent filesystem UUID off the device. Swappable
// in tests.
var resolveUUID = func(devicePath string) (string, error) {
	out, err := command.Output("blkid", "-o", "value", "-s", "UUID", devicePath)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Entry builds one newline-terminated fstab line for the given device.
// The same inputs always produce the same bytes.
func Entry(devicePath, fsKind, mountPoint string) (string, error) {
	if devicePath == "" {
		return "", fmt.Errorf("fstab entry: %w", ErrNoUUID)
	}
	ent, ok := fsEntries[fsKind]
	if !ok {
		return "", fmt.Errorf("fstab entry for %q: %w", fsKind, ErrUnsupportedFilesystem)
	}

	id, err := resolveUUID(devicePath)
	if err != nil || id == "" {
		return "", fmt.Errorf("fstab entry for %s: %w", devicePath, ErrNoUUID)
	}
	// FAT volume serials are not RFC 4122 UUIDs; everything else must parse.
	if ent.fstype != "vfat" {
		if _, err := uuid.Parse(id); err != nil {
			return "", fmt.Errorf("fstab entry for %s: invalid UUID %q: %w", devicePath, id, ErrNoUUID)
		}
	}

	mp := mountPoint
	if ent.fstype == "swap" {
		mp = "none"
	}
	return fmt.Sprintf("UUID=%s %s %s %s 0 0\n", id, mp, ent.fstype, ent.options), nil
}

// Append writes an fstab line for the partition into <root>/etc/fstab.
func Append(root, devicePath, fsKind, mountPoint string) error {
	line, err := Entry(devicePath, fsKind, mountPoint)
	if err != nil {
		return err
	}
	return appendLine(filepath.Join(root, "etc/fstab"), line)
}

// AppendSwapfile writes the swapfile line into <root>/etc/fstab.
func AppendSwapfile(root string) error {
	return appendLine(filepath.Join(root, "etc/fstab"), SwapfileEntry)
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
