package fstab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubUUID(t *testing.T, id string) {
	old := resolveUUID
	resolveUUID = func(string) (string, error) { return id, nil }
	t.Cleanup(func() { resolveUUID = old })
}

func TestEntry(t *testing.T) {
	stubUUID(t, "c0ffee00-1234-5678-9abc-def012345678")

	line, err := Entry("/dev/sda2", "ext4", "/")
	require.NoError(t, err)
	require.Equal(t, "UUID=c0ffee00-1234-5678-9abc-def012345678 / ext4 defaults 0 0\n", line)

	// The same inputs always yield the same bytes.
	again, err := Entry("/dev/sda2", "ext4", "/")
	require.NoError(t, err)
	require.Equal(t, line, again)

	line, err = Entry("/dev/sda2", "xfs", "/")
	require.NoError(t, err)
	require.Equal(t, "UUID=c0ffee00-1234-5678-9abc-def012345678 / xfs defaults 0 0\n", line)
}

func TestEntrySwap(t *testing.T) {
	stubUUID(t, "c0ffee00-1234-5678-9abc-def012345678")

	// Swap entries ignore the requested mount point.
	line, err := Entry("/dev/sda3", "swap", "/ignored")
	require.NoError(t, err)
	require.Equal(t, "UUID=c0ffee00-1234-5678-9abc-def012345678 none swap sw 0 0\n", line)
}

func TestEntryVFATSerial(t *testing.T) {
	// FAT volume serials are short and not RFC 4122; they must still pass.
	stubUUID(t, "1B2C-3D4E")

	line, err := Entry("/dev/sda1", "fat32", "/efi")
	require.NoError(t, err)
	require.Equal(t, "UUID=1B2C-3D4E /efi vfat defaults 0 0\n", line)
}

func TestEntryRejectsBadUUID(t *testing.T) {
	stubUUID(t, "not-a-uuid")

	_, err := Entry("/dev/sda2", "ext4", "/")
	require.ErrorIs(t, err, ErrNoUUID)
}

func TestEntryRejectsUnsupportedFilesystem(t *testing.T) {
	stubUUID(t, "c0ffee00-1234-5678-9abc-def012345678")

	_, err := Entry("/dev/sda2", "ntfs", "/")
	require.ErrorIs(t, err, ErrUnsupportedFilesystem)

	_, err = Entry("", "ext4", "/")
	require.ErrorIs(t, err, ErrNoUUID)
}

func TestAppend(t *testing.T) {
	stubUUID(t, "c0ffee00-1234-5678-9abc-def012345678")

	root := t.TempDir()
	etc := filepath.Join(root, "etc")
	require.NoError(t, os.MkdirAll(etc, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(etc, "fstab"), []byte("# static file system information\n"), 0644))

	require.NoError(t, Append(root, "/dev/sda2", "ext4", "/"))
	require.NoError(t, AppendSwapfile(root))

	data, err := os.ReadFile(filepath.Join(etc, "fstab"))
	require.NoError(t, err)
	require.Equal(t,
		"# static file system information\n"+
			"UUID=c0ffee00-1234-5678-9abc-def012345678 / ext4 defaults 0 0\n"+
			SwapfileEntry,
		string(data))
}
