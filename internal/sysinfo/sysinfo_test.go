package sysinfo

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCPU struct {
	readings [][]cpu.TimesStat
	infos    []cpu.InfoStat
	infoErr  error
	calls    int

	// Per-core and whole-machine times fail independently.
	perCoreErr error
	total      [][]cpu.TimesStat
	totalErr   error
	totalCalls int
	count      int
	countErr   error
}

func (f *fakeCPU) Times(percpu bool) ([]cpu.TimesStat, error) {
	if !percpu {
		if f.totalErr != nil {
			return []cpu.TimesStat{}, f.totalErr
		}
		return nextReading(f.total, &f.totalCalls), nil
	}
	if f.perCoreErr != nil {
		return []cpu.TimesStat{}, f.perCoreErr
	}
	return nextReading(f.readings, &f.calls), nil
}

func nextReading(readings [][]cpu.TimesStat, calls *int) []cpu.TimesStat {
	if len(readings) == 0 {
		return nil
	}
	if *calls >= len(readings) {
		return readings[len(readings)-1]
	}
	r := readings[*calls]
	*calls++
	return r
}

func (f *fakeCPU) Counts(bool) (int, error) {
	return f.count, f.countErr
}

func (f *fakeCPU) Info() ([]cpu.InfoStat, error) {
	return f.infos, f.infoErr
}

type fakeMemory struct {
	stat *mem.VirtualMemoryStat
	err  error
}

func (f fakeMemory) VirtualMemory() (*mem.VirtualMemoryStat, error) {
	return f.stat, f.err
}

type fakeDisk struct {
	parts    []disk.PartitionStat
	partsErr error
	usage    map[string]*disk.UsageStat
	kind     string
}

func (f fakeDisk) Partitions(bool) ([]disk.PartitionStat, error) { return f.parts, f.partsErr }

func (f fakeDisk) Usage(path string) (*disk.UsageStat, error) {
	u, ok := f.usage[path]
	if !ok {
		return nil, errors.New("no such mount")
	}
	return u, nil
}

func (f fakeDisk) Kind(string) string { return f.kind }

func TestFamily(t *testing.T) {
	tests := map[string]string{
		"amd64":   "x86_64",
		"386":     "x86",
		"arm64":   "aarch64",
		"arm":     "arm",
		"riscv64": "riscv64",
		"ppc64le": "powerpc64",
		"mips64":  "mips64",
		"sparc64": UnknownArchitecture,
		"":        UnknownArchitecture,
	}
	for goarch, want := range tests {
		assert.Equal(t, want, Family(goarch), "GOARCH=%q", goarch)
	}
	assert.NotEmpty(t, Architecture())
}

func TestProcessorSampleAveragesCores(t *testing.T) {
	src := &fakeCPU{
		readings: [][]cpu.TimesStat{
			{{CPU: "cpu0", User: 100, Idle: 100}, {CPU: "cpu1", User: 100, Idle: 100}},
			// cpu0: 50 busy of 100, cpu1: 100 busy of 100
			{{CPU: "cpu0", User: 150, Idle: 150}, {CPU: "cpu1", User: 200, Idle: 100}},
		},
		infos: []cpu.InfoStat{{ModelName: "Test CPU 9000", VendorID: "GenuineTest", Mhz: 3200}},
	}

	h, err := OpenProcessorWith(src)
	require.NoError(t, err)

	info, err := h.Sample()
	require.NoError(t, err)

	assert.Equal(t, "Test CPU 9000", info.Name)
	assert.Equal(t, "GenuineTest", info.Vendor)
	assert.Equal(t, "3.20 GHz", info.Speed)
	assert.Equal(t, "2", info.Cores)
	assert.Equal(t, "75.00 %", info.Usage)
	assert.Equal(t, Architecture(), info.Family)
	assert.Equal(t, []float64{50, 100}, info.PerCore)
}

func TestProcessorSampleWithoutElapsedTime(t *testing.T) {
	reading := []cpu.TimesStat{{CPU: "cpu0", User: 10, Idle: 10}}
	src := &fakeCPU{readings: [][]cpu.TimesStat{reading, reading}}

	h, err := OpenProcessorWith(src)
	require.NoError(t, err)

	info, err := h.Sample()
	require.NoError(t, err)
	assert.Equal(t, "0.00 %", info.Usage)
	assert.Equal(t, "0.00 GHz", info.Speed, "missing info leaves speed at zero")
}

func TestProcessorNewCoreReadsZero(t *testing.T) {
	src := &fakeCPU{
		readings: [][]cpu.TimesStat{
			{{CPU: "cpu0", User: 0, Idle: 0}},
			{{CPU: "cpu0", User: 100, Idle: 0}, {CPU: "cpu1", User: 50, Idle: 50}},
		},
	}

	h, err := OpenProcessorWith(src)
	require.NoError(t, err)

	info, err := h.Sample()
	require.NoError(t, err)
	assert.Equal(t, "2", info.Cores)
	assert.Equal(t, "50.00 %", info.Usage)
}

func TestProcessorNoCores(t *testing.T) {
	_, err := OpenProcessorWith(&fakeCPU{readings: [][]cpu.TimesStat{{}}})
	assert.True(t, errors.Is(err, ErrNoProcessors), "got %v", err)

	src := &fakeCPU{readings: [][]cpu.TimesStat{{{CPU: "cpu0"}}, {}}}
	h, err := OpenProcessorWith(src)
	require.NoError(t, err)

	_, err = h.Sample()
	assert.True(t, errors.Is(err, ErrNoProcessors), "got %v", err)
}

var errNotImplemented = errors.New("not implemented yet")

func TestProcessorFallsBackToAggregateTimes(t *testing.T) {
	src := &fakeCPU{
		perCoreErr: errNotImplemented,
		total: [][]cpu.TimesStat{
			{{CPU: "cpu-total", User: 100, Idle: 300}},
			{{CPU: "cpu-total", User: 125, Idle: 375}},
		},
		count: 8,
		infos: []cpu.InfoStat{{ModelName: "Apple M1", Mhz: 3200}},
	}

	h, err := OpenProcessorWith(src)
	require.NoError(t, err)
	assert.Equal(t, modeAggregate, h.mode)

	info, err := h.Sample()
	require.NoError(t, err)
	assert.Equal(t, "8", info.Cores)
	assert.Equal(t, "25.00 %", info.Usage)
	assert.Nil(t, info.PerCore)
	assert.Equal(t, "Apple M1", info.Name)
}

func TestProcessorFallsBackToCoreCount(t *testing.T) {
	src := &fakeCPU{
		perCoreErr: errNotImplemented,
		totalErr:   errNotImplemented,
		count:      10,
	}

	h, err := OpenProcessorWith(src)
	require.NoError(t, err)
	assert.Equal(t, modeCountOnly, h.mode)

	for i := 0; i < 2; i++ {
		info, err := h.Sample()
		require.NoError(t, err)
		assert.Equal(t, "10", info.Cores)
		assert.Equal(t, "0.00 %", info.Usage)
	}
}

func TestProcessorFallbackStillNeedsCores(t *testing.T) {
	_, err := OpenProcessorWith(&fakeCPU{perCoreErr: errNotImplemented, totalErr: errNotImplemented})
	assert.True(t, errors.Is(err, ErrNoProcessors), "got %v", err)

	countErr := errors.New("sysctl failed")
	_, err = OpenProcessorWith(&fakeCPU{perCoreErr: errNotImplemented, countErr: countErr})
	assert.True(t, errors.Is(err, countErr), "got %v", err)
}

func TestCoreUsageBounds(t *testing.T) {
	prev := cpu.TimesStat{User: 10, System: 10, Idle: 80}

	assert.Equal(t, 0.0, coreUsage(prev, prev))
	assert.Equal(t, 100.0, coreUsage(prev, cpu.TimesStat{User: 60, System: 10, Idle: 80}))
	assert.InDelta(t, 20.0, coreUsage(prev, cpu.TimesStat{User: 15, System: 15, Idle: 120}), 1e-9)
	assert.Equal(t, 0.0, coreUsage(prev, cpu.TimesStat{User: 5, System: 5, Idle: 40}), "counter reset")
}

func TestMemoryUsedIsTotalMinusFree(t *testing.T) {
	cases := []struct{ total, available uint64 }{
		{16 * bytesPerGiB, 4 * bytesPerGiB},
		{8 * bytesPerGiB, 8 * bytesPerGiB},
		{0, 0},
		{17179869184, 1234567890},
		{1 << 40, 123},
	}

	for _, c := range cases {
		info := memoryInfo(c.total, c.available)

		total := parseUnit(t, info.Total, " GB")
		free := parseUnit(t, info.Free, " GB")
		used := parseUnit(t, info.Used, " GB")
		assert.InDelta(t, total-free, used, 0.011, "total=%d available=%d", c.total, c.available)
	}

	info := memoryInfo(16*bytesPerGiB, 4*bytesPerGiB)
	assert.Equal(t, "16.00 GB", info.Total)
	assert.Equal(t, "12.00 GB", info.Used)
	assert.Equal(t, "4.00 GB", info.Free)
}

func TestMemoryHandle(t *testing.T) {
	h, err := OpenMemoryWith(fakeMemory{stat: &mem.VirtualMemoryStat{Total: 2 * bytesPerGiB, Available: bytesPerGiB / 2}})
	require.NoError(t, err)

	info, err := h.Sample()
	require.NoError(t, err)
	assert.Equal(t, "1.50 GB", info.Used)

	_, err = OpenMemoryWith(fakeMemory{err: errors.New("boom")})
	assert.Error(t, err)
}

func TestStorageSpace(t *testing.T) {
	s := storageSpace(500*bytesPerGB, 120*bytesPerGB)
	assert.Equal(t, "500.00 GB", s.total)
	assert.Equal(t, "120.00 GB", s.free)
	assert.Equal(t, "380.00 GB", s.used)
	assert.Equal(t, "76.00 %", s.percent)

	assert.Equal(t, "0.00 %", storageSpace(0, 0).percent)
	assert.Equal(t, "0.00 %", storageSpace(0, 10).percent, "free larger than total")
	assert.Equal(t, "0.00 %", storageSpace(10*bytesPerGB, 10*bytesPerGB).percent)
	assert.Equal(t, "100.00 %", storageSpace(10*bytesPerGB, 0).percent)
}

func TestStoragePercentInRange(t *testing.T) {
	values := []uint64{0, 1, 999, bytesPerGB, 3 * bytesPerGB, 1 << 42, math.MaxUint32}
	for _, total := range values {
		for _, free := range values {
			pct := parseUnit(t, storageSpace(total, free).percent, " %")
			assert.GreaterOrEqual(t, pct, 0.0)
			assert.LessOrEqual(t, pct, 100.0)
			if total == 0 {
				assert.Equal(t, 0.0, pct)
			}
		}
	}
}

func TestStorageSampleFirstDiskOnly(t *testing.T) {
	src := fakeDisk{
		parts: []disk.PartitionStat{
			{Device: "/dev/nvme0n1p2", Mountpoint: "/", Fstype: "ext4"},
			{Device: "/dev/sdb1", Mountpoint: "/data", Fstype: "xfs"},
		},
		usage: map[string]*disk.UsageStat{
			"/":     {Total: 500 * bytesPerGB, Free: 120 * bytesPerGB},
			"/data": {Total: 4000 * bytesPerGB, Free: 1 * bytesPerGB},
		},
		kind: DiskSSD,
	}

	info := OpenStorageWith(src).Sample()
	require.False(t, info.Empty())
	assert.Equal(t, "/dev/nvme0n1p2", *info.Name)
	assert.Equal(t, "/", *info.MountPoint)
	assert.Equal(t, "ext4", *info.FileSystem)
	assert.Equal(t, DiskSSD, *info.Type)
	assert.Equal(t, "500.00 GB", *info.TotalSpace)
	assert.Equal(t, "380.00 GB", *info.UsedSpace)
	assert.Equal(t, "76.00 %", *info.PercentUsed)
}

func TestStorageSampleNoDisks(t *testing.T) {
	info := OpenStorageWith(fakeDisk{}).Sample()
	assert.True(t, info.Empty())

	info = OpenStorageWith(fakeDisk{partsErr: errors.New("denied")}).Sample()
	assert.True(t, info.Empty())
}

func TestStorageSampleUsageUnavailable(t *testing.T) {
	src := fakeDisk{parts: []disk.PartitionStat{{Device: "/dev/sda1", Mountpoint: "/mnt", Fstype: "vfat"}}, kind: DiskUnknown}

	info := OpenStorageWith(src).Sample()
	require.NotNil(t, info.Name)
	assert.Equal(t, "/dev/sda1", *info.Name)
	assert.Nil(t, info.TotalSpace)
	assert.Nil(t, info.PercentUsed)
}

func TestHostProcessorSample(t *testing.T) {
	h, err := OpenProcessor()
	if err != nil {
		t.Fatalf("Failed to open processor handle: %v", err)
	}

	info, err := h.Sample()
	require.NoError(t, err)

	want, err := cpu.Counts(true)
	require.NoError(t, err)

	cores, err := strconv.Atoi(info.Cores)
	require.NoError(t, err)
	assert.Equal(t, want, cores)

	usage := parseUnit(t, info.Usage, " %")
	assert.GreaterOrEqual(t, usage, 0.0)
	assert.LessOrEqual(t, usage, 100.0)
	assert.True(t, strings.HasSuffix(info.Speed, " GHz"))
}

func TestHostMemorySample(t *testing.T) {
	h, err := OpenMemory()
	if err != nil {
		t.Skipf("Skipping test: memory metrics unavailable: %v", err)
	}

	info, err := h.Sample()
	require.NoError(t, err)

	total := parseUnit(t, info.Total, " GB")
	assert.Greater(t, total, 0.0)
	assert.InDelta(t, total-parseUnit(t, info.Free, " GB"), parseUnit(t, info.Used, " GB"), 0.011)
}

func TestHostStorageSample(t *testing.T) {
	info := OpenStorage().Sample()
	if info.Empty() || info.PercentUsed == nil {
		t.Skip("Skipping test: no disk usage available")
	}

	pct := parseUnit(t, *info.PercentUsed, " %")
	assert.GreaterOrEqual(t, pct, 0.0)
	assert.LessOrEqual(t, pct, 100.0)
}

func parseUnit(t *testing.T, s, suffix string) float64 {
	t.Helper()
	require.True(t, strings.HasSuffix(s, suffix), "%q lacks suffix %q", s, suffix)
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
	require.NoError(t, err)
	return v
}
