// Package metrics turns the cumulative counters a container runtime reports
// into instantaneous CPU and memory usage.
package metrics

import "math"

const bytesPerMB = 1024 * 1024

// Sample is one raw stats reading for a container. The Pre* fields are the
// runtime's previous reading of the same counters.
type Sample struct {
	CPUTotal       uint64
	PreCPUTotal    uint64
	SystemUsage    uint64
	PreSystemUsage uint64
	MemoryUsage    uint64
	// MemoryLimit of 0 means the runtime reported no limit.
	MemoryLimit uint64
}

// Usage is the derived, rounded view of a Sample.
type Usage struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryMB      float64 `json:"memory_mb"`
	MemoryPercent float64 `json:"memory_percent"`
}

// StatResult is the outcome of sampling one container. A failed sample
// carries zero usage and the cause in Err.
type StatResult struct {
	Usage
	Err error
}

// Failed reports whether the sample could not be taken.
func (r StatResult) Failed() bool {
	return r.Err != nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CPUPercent derives CPU utilization from two consecutive counter readings.
// It is 0 unless the system counter advanced; a decreasing CPU counter
// (runtime restart) also yields 0.
func CPUPercent(curTotal, prevTotal, curSystem, prevSystem uint64) float64 {
	cpuDelta := float64(curTotal) - float64(prevTotal)
	systemDelta := float64(curSystem) - float64(prevSystem)
	if systemDelta <= 0 || cpuDelta <= 0 {
		return 0
	}
	return Round2(cpuDelta / systemDelta * 100)
}

// Memory converts bytes to MiB and computes percent of the limit.
// A zero limit yields a percent of 0.
func Memory(usageBytes, limitBytes uint64) (usageMB, percent float64) {
	mb := float64(usageBytes) / bytesPerMB
	if limitBytes > 0 {
		limitMB := float64(limitBytes) / bytesPerMB
		percent = Round2(mb / limitMB * 100)
	}
	return Round2(mb), percent
}

// Compute derives Usage from a sample.
func Compute(s Sample) Usage {
	mb, pct := Memory(s.MemoryUsage, s.MemoryLimit)
	return Usage{
		CPUPercent:    CPUPercent(s.CPUTotal, s.PreCPUTotal, s.SystemUsage, s.PreSystemUsage),
		MemoryMB:      mb,
		MemoryPercent: pct,
	}
}

// Succeed wraps a sample into a successful result.
func Succeed(s Sample) StatResult {
	return StatResult{Usage: Compute(s)}
}

// Degrade returns the zero-usage result recorded for a failed sample.
func Degrade(err error) StatResult {
	return StatResult{Err: err}
}

// SizeMB converts a byte count to MiB rounded to two decimals.
func SizeMB(bytes int64) float64 {
	if bytes <= 0 {
		return 0
	}
	return Round2(float64(bytes) / bytesPerMB)
}
