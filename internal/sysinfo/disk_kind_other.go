//go:build !linux

package sysinfo

// diskKind is only implemented on Linux.
func diskKind(string) string {
	return DiskUnknown
}
