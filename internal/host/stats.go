package host

import (
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
)

// Stats is a point-in-time snapshot of process runtime metrics.
type Stats struct {
	PID          int
	UsedMemoryMB uint64
	HeapUsage    uint64
	Goroutines   int
	Cores        int
	OS           string
	Arch         string
	GoVersion    string
	CPUPercent   float64
}

// StatsCollector produces runtime snapshots for the system-info endpoint.
type StatsCollector interface {
	Collect() Stats
}

// RuntimeCollector samples the Go runtime and process CPU time. CPU percent
// is the machine-wide share of process CPU since the previous sample,
// rounded half-up to two places.
type RuntimeCollector struct {
	mu       sync.Mutex
	lastCPU  time.Duration
	lastWall time.Time
}

// NewRuntimeCollector creates a collector primed with an initial CPU sample.
func NewRuntimeCollector() *RuntimeCollector {
	c := new(RuntimeCollector)
	c.lastCPU = processCPUTime()
	c.lastWall = time.Now()
	return c
}

// Collect implements StatsCollector.
func (c *RuntimeCollector) Collect() Stats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Stats{
		PID:          os.Getpid(),
		UsedMemoryMB: ms.Alloc >> 20,
		HeapUsage:    ms.HeapAlloc,
		Goroutines:   runtime.NumGoroutine(),
		Cores:        runtime.NumCPU(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
		GoVersion:    runtime.Version(),
		CPUPercent:   c.cpuPercent(),
	}
}

func (c *RuntimeCollector) cpuPercent() float64 {
	now := time.Now()
	cpu := processCPUTime()

	c.mu.Lock()
	wallDelta := now.Sub(c.lastWall)
	cpuDelta := cpu - c.lastCPU
	c.lastWall = now
	c.lastCPU = cpu
	c.mu.Unlock()

	return cpuShare(cpuDelta, wallDelta, runtime.NumCPU())
}

// cpuShare converts a CPU-time delta over a wall-clock delta into a
// machine-wide percentage. Rusage and wall samples are not taken atomically,
// so the raw ratio can overshoot; the result is clamped to [0,100].
func cpuShare(cpuDelta, wallDelta time.Duration, cores int) float64 {
	if wallDelta <= 0 || cpuDelta < 0 || cores <= 0 {
		return 0
	}
	raw := cpuDelta.Seconds() / wallDelta.Seconds() / float64(cores) * 100.0
	if raw > 100 {
		raw = 100
	}
	rounded, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	return rounded
}

func processCPUTime() time.Duration {
	var usage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &usage); err != nil {
		return 0
	}
	user := time.Duration(usage.Utime.Sec)*time.Second + time.Duration(usage.Utime.Usec)*time.Microsecond
	system := time.Duration(usage.Stime.Sec)*time.Second + time.Duration(usage.Stime.Usec)*time.Microsecond
	return user + system
}
