package sysinfo

import (
	"os"
	"path/filepath"
	"strings"
)

var sysClassBlock = "/sys/class/block"

// diskKind reads the rotational flag of the block device backing device. A
// partition has no queue directory of its own, so its parent is checked too.
func diskKind(device string) string {
	name := filepath.Base(device)
	if name == "" || name == "." || name == "/" {
		return DiskUnknown
	}

	dir := filepath.Join(sysClassBlock, name)
	candidates := []string{dir}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		candidates = append(candidates, resolved, filepath.Dir(resolved))
	}

	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(c, "queue", "rotational"))
		if err != nil {
			continue
		}
		switch strings.TrimSpace(string(data)) {
		case "0":
			return DiskSSD
		case "1":
			return DiskHDD
		}
	}
	return DiskUnknown
}
