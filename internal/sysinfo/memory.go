package sysinfo

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/metorial/machineinfo/internal/models"
)

type MemorySource interface {
	VirtualMemory() (*mem.VirtualMemoryStat, error)
}

type hostMemory struct{}

func (hostMemory) VirtualMemory() (*mem.VirtualMemoryStat, error) { return mem.VirtualMemory() }

type MemoryHandle struct {
	src  MemorySource
	stat *mem.VirtualMemoryStat
}

func OpenMemory() (*MemoryHandle, error) {
	return OpenMemoryWith(hostMemory{})
}

func OpenMemoryWith(src MemorySource) (*MemoryHandle, error) {
	h := &MemoryHandle{src: src}
	if err := h.refresh(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *MemoryHandle) refresh() error {
	stat, err := h.src.VirtualMemory()
	if err != nil {
		return fmt.Errorf("get memory info: %w", err)
	}
	h.stat = stat
	return nil
}

func (h *MemoryHandle) Sample() (models.MemoryInfo, error) {
	if err := h.refresh(); err != nil {
		return models.MemoryInfo{}, err
	}
	return memoryInfo(h.stat.Total, h.stat.Available), nil
}

// memoryInfo converts to binary gigabytes and derives used before rounding.
func memoryInfo(totalBytes, availableBytes uint64) models.MemoryInfo {
	total := float64(totalBytes) / bytesPerGiB
	free := float64(availableBytes) / bytesPerGiB
	used := total - free

	return models.MemoryInfo{
		Total: formatGB(total),
		Used:  formatGB(used),
		Free:  formatGB(free),
	}
}
