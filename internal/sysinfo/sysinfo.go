package sysinfo

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const efiDetectPath = "/sys/firmware/efi"

// EFIBooted reports whether the machine booted via EFI firmware. The kernel
// exposes the efivars directory only on EFI systems.
func EFIBooted() bool {
	info, err := os.Stat(efiDetectPath)
	return err == nil && info.IsDir()
}

// TotalMemoryBytes reads the installed memory size from /proc/meminfo.
// Returns 0 if the value cannot be determined.
func TotalMemoryBytes() uint64 {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kib, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0
		}
		return kib * 1024
	}
	return 0
}

// TotalMemoryGiB returns the installed memory size in whole GiB, the unit the
// swap sizing heuristic works in.
func TotalMemoryGiB() float64 {
	return float64(TotalMemoryBytes() / 1024 / 1024 / 1024)
}

// Arch returns the architecture name used for bootloader target selection.
func Arch() string {
	return runtime.GOARCH
}
