package sysinfo

import (
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/metorial/machineinfo/internal/log"
	"github.com/metorial/machineinfo/internal/models"
)

// Disk kinds reported in StorageInfo.Type.
const (
	DiskSSD     = "SSD"
	DiskHDD     = "HDD"
	DiskUnknown = "Unknown"
)

type DiskSource interface {
	Partitions(all bool) ([]disk.PartitionStat, error)
	Usage(path string) (*disk.UsageStat, error)
	Kind(device string) string
}

type hostDisk struct{}

func (hostDisk) Partitions(all bool) ([]disk.PartitionStat, error) { return disk.Partitions(all) }
func (hostDisk) Usage(path string) (*disk.UsageStat, error)        { return disk.Usage(path) }
func (hostDisk) Kind(device string) string                         { return diskKind(device) }

// StorageHandle holds the most recent partition list.
type StorageHandle struct {
	src        DiskSource
	partitions []disk.PartitionStat
}

func OpenStorage() *StorageHandle {
	return OpenStorageWith(hostDisk{})
}

func OpenStorageWith(src DiskSource) *StorageHandle {
	h := &StorageHandle{src: src}
	h.refresh()
	return h
}

func (h *StorageHandle) refresh() {
	parts, err := h.src.Partitions(false)
	if err != nil {
		log.Warn("Unable to list disks: %v", err)
		h.partitions = nil
		return
	}
	h.partitions = parts
}

// Sample describes the first enumerated disk only. When nothing can be
// enumerated the record is empty and a warning is logged.
func (h *StorageHandle) Sample() models.StorageInfo {
	h.refresh()

	if len(h.partitions) == 0 {
		log.Warn("No disks found, returning an empty storage record")
		return models.StorageInfo{}
	}

	p := h.partitions[0]
	info := models.StorageInfo{
		Name:       strPtr(p.Device),
		MountPoint: strPtr(p.Mountpoint),
		FileSystem: strPtr(p.Fstype),
		Type:       strPtr(h.src.Kind(p.Device)),
	}

	usage, err := h.src.Usage(p.Mountpoint)
	if err != nil {
		log.Warn("Unable to read usage of %s: %v", p.Mountpoint, err)
		return info
	}

	space := storageSpace(usage.Total, usage.Free)
	info.TotalSpace = &space.total
	info.FreeSpace = &space.free
	info.UsedSpace = &space.used
	info.PercentUsed = &space.percent
	return info
}

type spaceStrings struct {
	total, free, used, percent string
}

// storageSpace converts to decimal gigabytes. The percentage is 0 unless both
// total and used are positive.
func storageSpace(totalBytes, freeBytes uint64) spaceStrings {
	total := float64(totalBytes) / bytesPerGB
	free := float64(freeBytes) / bytesPerGB
	used := total - free

	var percent float64
	if total > 0 && used > 0 {
		percent = used / total * 100
	}

	return spaceStrings{
		total:   formatGB(total),
		free:    formatGB(free),
		used:    formatGB(used),
		percent: formatPercent(percent),
	}
}

func strPtr(s string) *string {
	return &s
}
