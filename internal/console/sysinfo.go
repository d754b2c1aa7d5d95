package console

import (
	"fmt"
	"time"
)

// systemInfoDocument is the wire shape of the system-info endpoint. Field
// names are part of the dashboard contract.
type systemInfoDocument struct {
	PID                int      `json:"pid"`
	UsedMemory         string   `json:"usedMemory"`
	Services           int      `json:"services"`
	ServiceNames       []string `json:"serviceNames"`
	Listeners          int      `json:"listeners"`
	HeapUsage          uint64   `json:"heapUsage"`
	OS                 string   `json:"os"`
	Arch               string   `json:"arch"`
	GoVersion          string   `json:"go"`
	Cores              int      `json:"cores"`
	ThreadsActive      int      `json:"threadsActive"`
	CPUUsage           float64  `json:"cpuUsage"`
	TotalEvents        int64    `json:"totalEvents"`
	LastLogsRetained   int      `json:"lastLogsRetained"`
	LastEventsRetained int      `json:"lastEventsRetained"`
	LastUpdated        string   `json:"lastUpdated"`
}

func (c *Console) systemInfo() systemInfoDocument {
	stats := c.stats.Collect()
	services := c.visibleServices()
	names := make([]string, len(services))
	for i, svc := range services {
		names[i] = svc.Name()
	}
	return systemInfoDocument{
		PID:                stats.PID,
		UsedMemory:         fmt.Sprintf("%d MB", stats.UsedMemoryMB),
		Services:           len(services),
		ServiceNames:       names,
		Listeners:          c.bus.Listeners(),
		HeapUsage:          stats.HeapUsage,
		OS:                 stats.OS,
		Arch:               stats.Arch,
		GoVersion:          stats.GoVersion,
		Cores:              stats.Cores,
		ThreadsActive:      stats.Goroutines,
		CPUUsage:           stats.CPUPercent,
		TotalEvents:        c.totalEvents.Load(),
		LastLogsRetained:   c.logs.Len(),
		LastEventsRetained: c.events.Len(),
		LastUpdated:        time.Now().Format("2006-01-02 15:04:05"),
	}
}
