package sysinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskKindFromSysfs(t *testing.T) {
	if _, err := os.Stat("/sys/class/block"); err != nil {
		t.Skip("sysfs block class not available")
	}

	root := t.TempDir()
	old := sysClassBlock
	sysClassBlock = root
	t.Cleanup(func() { sysClassBlock = old })

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sda", "queue"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sda", "queue", "rotational"), []byte("1\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sda", "sda1"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "sda", "sda1"), filepath.Join(root, "sda1")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nvme0n1", "queue"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "nvme0n1", "queue", "rotational"), []byte("0\n"), 0o644))

	assert.Equal(t, DiskHDD, diskKind("/dev/sda"))
	assert.Equal(t, DiskHDD, diskKind("/dev/sda1"))
	assert.Equal(t, DiskSSD, diskKind("/dev/nvme0n1"))
	assert.Equal(t, DiskUnknown, diskKind("/dev/loop9"))
	assert.Equal(t, DiskUnknown, diskKind(""))
}
