package disks

import (
	"encoding/json"
	"strings"

	"github.com/cadence-os/installkit/internal/command"
	"github.com/cadence-os/installkit/internal/sysinfo"
)

// MBR partition type bytes marking extended partition containers.
var extendedPartTypes = map[string]bool{
	"0x5":  true,
	"0xf":  true,
	"0x85": true,
}

// CheckMBRPrimary succeeds trivially for non-MBR disks. On an MBR disk it
// locates the selected partition and rejects it unless it is a primary
// partition. Installing onto an extended or logical partition may leave the
// system unbootable.
func CheckMBRPrimary(device, partition string) error {
	table, err := TableKind(device)
	if err != nil {
		return err
	}
	if table != TableMBR {
		return nil
	}

	parts, err := probeMBRKinds(device)
	if err != nil {
		return err
	}
	kind, ok := parts[partition]
	if !ok {
		return ErrNotFound
	}
	if kind != "primary" {
		return &NonPrimaryPartitionError{Path: partition, PartKind: kind}
	}
	return nil
}

// probeMBRKinds classifies every partition of an MBR disk as primary,
// extended or logical. Partition numbers 5 and up are carved out of an
// extended container; the container itself is identified by its type byte.
func probeMBRKinds(device string) (map[string]string, error) {
	out, err := command.Output("lsblk", "-J", "-b", "-o",
		"PATH,TYPE,PARTTYPE,PARTN", device)
	if err != nil {
		return nil, ErrNotFound
	}

	var output lsblkOutput
	if err := json.Unmarshal(out, &output); err != nil {
		return nil, ErrNotFound
	}

	kinds := make(map[string]string)
	var walk func(dev lsblkDevice)
	walk = func(dev lsblkDevice) {
		if dev.Type == "part" && dev.Path != "" {
			kinds[dev.Path] = classifyMBRPart(dev.PartN, dev.PartType)
		}
		for _, child := range dev.Children {
			walk(child)
		}
	}
	for _, dev := range output.Blockdevices {
		walk(dev)
	}
	return kinds, nil
}

func classifyMBRPart(partN int, partType string) string {
	switch {
	case extendedPartTypes[strings.ToLower(partType)]:
		return "extended"
	case partN >= 5:
		return "logical"
	default:
		return "primary"
	}
}

// CheckTableMatchesFirmware rejects disks whose partition table the booted
// firmware cannot start from: EFI firmware requires GPT, legacy BIOS requires
// MBR. On ppc64le the firmware always requires GPT regardless of the
// EFI probe.
func CheckTableMatchesFirmware(device string) error {
	table, err := TableKind(device)
	if err != nil {
		return err
	}
	return tableFirmwareRule(table, sysinfo.EFIBooted(), sysinfo.Arch())
}

// tableFirmwareRule is the pure decision behind CheckTableMatchesFirmware.
func tableFirmwareRule(table string, efiBooted bool, arch string) error {
	if arch == "ppc64le" {
		if table != TableGPT {
			return &FirmwareTableMismatchError{Table: table, Firmware: "POWER/CHRP", Want: "GPT"}
		}
		return nil
	}

	if (table == TableGPT && efiBooted) || (table == TableMBR && !efiBooted) {
		return nil
	}

	firmware := "BIOS"
	want := "MBR"
	if efiBooted {
		firmware = "EFI"
		want = "GPT"
	}
	return &FirmwareTableMismatchError{Table: table, Firmware: firmware, Want: want}
}
