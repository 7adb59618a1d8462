package sysinfo

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/metorial/machineinfo/internal/log"
	"github.com/metorial/machineinfo/internal/models"
)

// ErrNoProcessors means the OS reported no logical cores.
var ErrNoProcessors = errors.New("no processors enumerated")

// CPUSource reads processor state from the OS.
type CPUSource interface {
	Times(percpu bool) ([]cpu.TimesStat, error)
	Counts(logical bool) (int, error)
	Info() ([]cpu.InfoStat, error)
}

type hostCPU struct{}

func (hostCPU) Times(percpu bool) ([]cpu.TimesStat, error) { return cpu.Times(percpu) }
func (hostCPU) Counts(logical bool) (int, error)           { return cpu.Counts(logical) }
func (hostCPU) Info() ([]cpu.InfoStat, error)              { return cpu.Info() }

// cpuMode is how much of the processor the OS lets us read. Darwin builds
// without cgo, for instance, report core counts but no times at all.
type cpuMode int

const (
	modePerCore cpuMode = iota
	modeAggregate
	modeCountOnly
)

func (m cpuMode) String() string {
	switch m {
	case modePerCore:
		return "per-core"
	case modeAggregate:
		return "aggregate"
	default:
		return "count-only"
	}
}

// ProcessorHandle keeps the previous times so each Sample reports usage over
// the interval since the last refresh. It is not safe for concurrent use.
type ProcessorHandle struct {
	src   CPUSource
	mode  cpuMode
	cores int
	last  map[string]cpu.TimesStat
}

func OpenProcessor() (*ProcessorHandle, error) {
	return OpenProcessorWith(hostCPU{})
}

// OpenProcessorWith takes the baseline reading. When per-core times are
// unavailable it falls back to whole-machine times and then to the core
// count alone; usage then reads 0.
func OpenProcessorWith(src CPUSource) (*ProcessorHandle, error) {
	h := &ProcessorHandle{src: src}

	times, err := src.Times(true)
	if err == nil {
		if len(times) == 0 {
			return nil, ErrNoProcessors
		}
		h.mode = modePerCore
		h.cores = len(times)
		h.remember(times)
		return h, nil
	}
	log.Warn("Per-core CPU times unavailable: %v", err)

	if err := h.countCores(); err != nil {
		return nil, err
	}

	h.mode = modeCountOnly
	if total, err := src.Times(false); err == nil && len(total) > 0 {
		h.mode = modeAggregate
		h.remember(total)
	} else {
		log.Warn("CPU usage unavailable on this platform, reporting 0")
	}

	log.Debug("Processor handle opened in %s mode with %d cores", h.mode, h.cores)
	return h, nil
}

func (h *ProcessorHandle) countCores() error {
	n, err := h.src.Counts(true)
	if err != nil {
		return fmt.Errorf("get cpu count: %w", err)
	}
	if n <= 0 {
		return ErrNoProcessors
	}
	h.cores = n
	return nil
}

func (h *ProcessorHandle) refresh(percpu bool) ([]cpu.TimesStat, error) {
	times, err := h.src.Times(percpu)
	if err != nil {
		return nil, fmt.Errorf("get cpu times: %w", err)
	}
	if len(times) == 0 {
		return nil, ErrNoProcessors
	}
	return times, nil
}

func (h *ProcessorHandle) remember(times []cpu.TimesStat) {
	h.last = make(map[string]cpu.TimesStat, len(times))
	for _, t := range times {
		h.last[t.CPU] = t
	}
}

// Sample refreshes every core and returns a formatted record. Usage is the
// mean of the per-core usage since the previous refresh; two refreshes in
// quick succession may read close to zero.
func (h *ProcessorHandle) Sample() (models.ProcessorInfo, error) {
	var (
		usage   float64
		perCore []float64
	)

	switch h.mode {
	case modePerCore:
		times, err := h.refresh(true)
		if err != nil {
			return models.ProcessorInfo{}, err
		}
		perCore = make([]float64, len(times))
		var sum float64
		for i, t := range times {
			if prev, ok := h.last[t.CPU]; ok {
				perCore[i] = coreUsage(prev, t)
			}
			sum += perCore[i]
		}
		h.cores = len(times)
		usage = sum / float64(len(times))
		h.remember(times)

	case modeAggregate:
		if err := h.countCores(); err != nil {
			return models.ProcessorInfo{}, err
		}
		times, err := h.refresh(false)
		if err != nil {
			return models.ProcessorInfo{}, err
		}
		if prev, ok := h.last[times[0].CPU]; ok {
			usage = coreUsage(prev, times[0])
		}
		h.remember(times)

	case modeCountOnly:
		if err := h.countCores(); err != nil {
			return models.ProcessorInfo{}, err
		}
	}

	info := models.ProcessorInfo{
		Family:  Architecture(),
		Cores:   strconv.Itoa(h.cores),
		Usage:   formatPercent(usage),
		PerCore: perCore,
	}

	var mhz float64
	infos, err := h.src.Info()
	switch {
	case err != nil:
		log.Warn("Unable to read processor info: %v", err)
	case len(infos) == 0:
		log.Warn("Processor info is empty")
	default:
		first := infos[0]
		info.Name = first.ModelName
		info.Vendor = first.VendorID
		mhz = first.Mhz
	}
	info.Speed = formatGHz(mhz)

	return info, nil
}

// coreUsage is the busy share of the time that elapsed between two readings
// of the same core, in percent.
func coreUsage(prev, cur cpu.TimesStat) float64 {
	prevTotal, prevIdle := splitTimes(prev)
	curTotal, curIdle := splitTimes(cur)

	total := curTotal - prevTotal
	if total <= 0 {
		return 0
	}
	busy := total - (curIdle - prevIdle)

	pct := busy / total * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// Guest time is already counted in User and Nice on Linux, so it is left out.
func splitTimes(t cpu.TimesStat) (total, idle float64) {
	idle = t.Idle + t.Iowait
	total = t.User + t.System + t.Nice + t.Irq + t.Softirq + t.Steal + idle
	return total, idle
}
