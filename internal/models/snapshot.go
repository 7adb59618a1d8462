package models

type ProcessorInfo struct {
	Name    string    `json:"name"`
	Vendor  string    `json:"vendor"`
	Family  string    `json:"family"`
	Speed   string    `json:"speed"`
	Cores   string    `json:"cores"`
	Usage   string    `json:"usage"`
	PerCore []float64 `json:"per_core,omitempty"`
}

type MemoryInfo struct {
	Total string `json:"total"`
	Used  string `json:"used"`
	Free  string `json:"free"`
}

// StorageInfo describes the first enumerated disk. Every field is nil when no
// disk could be enumerated.
type StorageInfo struct {
	Name        *string `json:"name,omitempty"`
	TotalSpace  *string `json:"total_space,omitempty"`
	FreeSpace   *string `json:"free_space,omitempty"`
	UsedSpace   *string `json:"used_space,omitempty"`
	PercentUsed *string `json:"percent_used,omitempty"`
	MountPoint  *string `json:"mount_point,omitempty"`
	FileSystem  *string `json:"file_system,omitempty"`
	Type        *string `json:"type,omitempty"`
}

func (s StorageInfo) Empty() bool {
	return s.Name == nil && s.TotalSpace == nil && s.FreeSpace == nil &&
		s.UsedSpace == nil && s.PercentUsed == nil && s.MountPoint == nil &&
		s.FileSystem == nil && s.Type == nil
}
