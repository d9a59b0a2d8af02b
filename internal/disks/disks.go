package disks

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/cadence-os/installkit/internal/command"
)

// AllowedFSTypes are the filesystems the installer can format and boot from.
var AllowedFSTypes = []string{"ext4", "xfs", "btrfs", "f2fs"}

// DefaultFSType is used whenever the requested filesystem is unsupported or
// the partition carries no recognizable signature.
const DefaultFSType = "ext4"

// ESP partition type identifiers: the GPT partition type GUID and the MBR
// type byte reported by lsblk.
const (
	espTypeGUID = "c12a7328-f81f-11d2-ba4b-00a0c93ec93b"
	espTypeMBR  = "0xef"
)

// Partition describes a single partition on a block device. An empty Path
// means the partition node could not be resolved; an empty FSType means the
// partition is unformatted or carries no recognizable signature.
//
// Partition is a value type: transformations return a new value and never
// mutate in place.
type Partition struct {
	Path       string `json:"path,omitempty" yaml:"path,omitempty"`
	ParentPath string `json:"parent_path,omitempty" yaml:"parent_path,omitempty"`
	FSType     string `json:"fs_type,omitempty" yaml:"fs_type,omitempty"`
	Size       uint64 `json:"size" yaml:"size"`
}

// Usable reports whether the partition can serve as an install target.
func (p Partition) Usable() bool {
	return p.Path != "" && p.Size > 0
}

// lsblkOutput represents the JSON output from lsblk
type lsblkOutput struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

// lsblkDevice represents a single device in lsblk output
type lsblkDevice struct {
	Path     string        `json:"path"`
	PKName   string        `json:"pkname"`
	Type     string        `json:"type"`
	Size     uint64        `json:"size"`
	FSType   string        `json:"fstype"`
	PartType string        `json:"parttype"`
	PartN    int           `json:"partn"`
	PTType   string        `json:"pttype"`
	Children []lsblkDevice `json:"children,omitempty"`
}

// List probes all block devices and returns every partition found across all
// disks. A device that cannot be probed contributes no partitions; it never
// fails the whole enumeration.
func List() []Partition {
	var partitions []Partition
	for _, disk := range listDisks() {
		parts, err := probeDevice("/dev/" + disk)
		if err != nil {
			continue
		}
		partitions = append(partitions, parts...)
	}
	return partitions
}

// listDisks enumerates whole-disk devices from /sys/block, skipping loop,
// device-mapper and ram devices.
func listDisks() []string {
	entries, err := os.ReadDir("/sys/block")
	if err != nil {
		return nil
	}

	var disks []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "dm-") ||
			strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "zram") {
			continue
		}
		disks = append(disks, name)
	}
	return disks
}

// probeDevice runs lsblk against a single disk and collects its partitions.
// Table metadata entries (extended partition containers keep their node but
// lsblk already hides placeholder indices) are excluded by the "part" filter.
func probeDevice(device string) ([]Partition, error) {
	out, err := command.Output("lsblk", "-J", "-b", "-o",
		"PATH,PKNAME,TYPE,SIZE,FSTYPE,PARTTYPE,PARTN,PTTYPE", device)
	if err != nil {
		return nil, err
	}

	var output lsblkOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, err
	}

	var partitions []Partition
	for _, dev := range output.Blockdevices {
		collectPartitions(dev, device, &partitions)
	}
	return partitions, nil
}

func collectPartitions(dev lsblkDevice, parent string, out *[]Partition) {
	if dev.Type == "part" && dev.PartN > 0 {
		parentPath := parent
		if dev.PKName != "" {
			parentPath = "/dev/" + dev.PKName
		}
		*out = append(*out, Partition{
			Path:       dev.Path,
			ParentPath: parentPath,
			FSType:     dev.FSType,
			Size:       dev.Size,
		})
	}
	for _, child := range dev.Children {
		collectPartitions(child, parent, out)
	}
}

// RecommendFilesystem returns the requested filesystem if it is supported,
// and the default otherwise.
func RecommendFilesystem(requested string) string {
	for _, fs := range AllowedFSTypes {
		if fs == requested {
			return fs
		}
	}
	return DefaultFSType
}

// FillFilesystem returns a copy of the partition with its filesystem kind
// normalized: the recommended kind for whatever is currently on disk, or the
// default when the partition has no signature or forceDefault is set.
func FillFilesystem(p Partition, forceDefault bool) Partition {
	filled := p
	switch {
	case forceDefault || p.FSType == "":
		filled.FSType = DefaultFSType
	default:
		filled.FSType = RecommendFilesystem(p.FSType)
	}
	return filled
}

// FindESP scans the partitions of a disk for the EFI system partition.
// Returns ErrNotFound if the disk carries no ESP flag or cannot be probed.
func FindESP(device string) (Partition, error) {
	out, err := command.Output("lsblk", "-J", "-b", "-o",
		"PATH,PKNAME,TYPE,SIZE,FSTYPE,PARTTYPE,PARTN,PTTYPE", device)
	if err != nil {
		return Partition{}, ErrNotFound
	}

	var output lsblkOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return Partition{}, ErrNotFound
	}

	var esp *lsblkDevice
	var walk func(dev lsblkDevice)
	walk = func(dev lsblkDevice) {
		if esp == nil && dev.Type == "part" && isESPType(dev.PartType) {
			d := dev
			esp = &d
		}
		for _, child := range dev.Children {
			walk(child)
		}
	}
	for _, dev := range output.Blockdevices {
		walk(dev)
	}

	if esp == nil || esp.Path == "" {
		return Partition{}, ErrNotFound
	}
	return Partition{
		Path:   esp.Path,
		FSType: esp.FSType,
		Size:   esp.Size,
	}, nil
}

func isESPType(partType string) bool {
	return strings.EqualFold(partType, espTypeGUID) || partType == espTypeMBR
}
