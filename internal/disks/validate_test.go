package disks

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyMBRPart(t *testing.T) {
	require.Equal(t, "primary", classifyMBRPart(1, "0x83"))
	require.Equal(t, "primary", classifyMBRPart(4, "0x7"))
	require.Equal(t, "extended", classifyMBRPart(2, "0x5"))
	require.Equal(t, "extended", classifyMBRPart(3, "0xf"))
	require.Equal(t, "extended", classifyMBRPart(4, "0x85"))
	require.Equal(t, "extended", classifyMBRPart(4, "0xF"))
	require.Equal(t, "logical", classifyMBRPart(5, "0x83"))
	require.Equal(t, "logical", classifyMBRPart(7, "0x82"))
}

func TestTableFirmwareRule(t *testing.T) {
	// Matching combinations pass.
	require.NoError(t, tableFirmwareRule(TableGPT, true, "amd64"))
	require.NoError(t, tableFirmwareRule(TableMBR, false, "amd64"))

	// GPT on a BIOS boot is rejected with the table to switch to.
	err := tableFirmwareRule(TableGPT, false, "amd64")
	var mismatch *FirmwareTableMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "BIOS", mismatch.Firmware)
	require.Equal(t, "MBR", mismatch.Want)

	// MBR on an EFI boot is rejected the other way around.
	err = tableFirmwareRule(TableMBR, true, "arm64")
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "EFI", mismatch.Firmware)
	require.Equal(t, "GPT", mismatch.Want)
}

func TestTableFirmwareRulePPC64(t *testing.T) {
	// POWER firmware requires GPT whether or not the EFI probe fires.
	require.NoError(t, tableFirmwareRule(TableGPT, false, "ppc64le"))
	require.NoError(t, tableFirmwareRule(TableGPT, true, "ppc64le"))

	err := tableFirmwareRule(TableMBR, false, "ppc64le")
	var mismatch *FirmwareTableMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "GPT", mismatch.Want)
}

func TestNonPrimaryPartitionError(t *testing.T) {
	err := &NonPrimaryPartitionError{Path: "/dev/sda5", PartKind: "logical"}
	require.Contains(t, err.Error(), "/dev/sda5")
	require.Contains(t, err.Error(), "logical")
	require.False(t, errors.Is(err, ErrNotFound))
}
