package common

import (
	"fmt"
	"runtime"
)

// MemoryStats is a snapshot of the Go heap, reported after batch runs.
type MemoryStats struct {
	Alloc         uint64  `json:"alloc"           yaml:"alloc"`
	TotalAlloc    uint64  `json:"total_alloc"     yaml:"total_alloc"`
	Sys           uint64  `json:"sys"             yaml:"sys"`
	HeapInuse     uint64  `json:"heap_inuse"      yaml:"heap_inuse"`
	NumGC         uint32  `json:"num_gc"          yaml:"num_gc"`
	GCCPUFraction float64 `json:"gc_cpu_fraction" yaml:"gc_cpu_fraction"`
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:         m.Alloc,
		TotalAlloc:    m.TotalAlloc,
		Sys:           m.Sys,
		HeapInuse:     m.HeapInuse,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Heap: %d KB, Sys: %d KB, GC: %d (%.2f%% CPU)",
		m.Alloc/1024,
		m.HeapInuse/1024,
		m.Sys/1024,
		m.NumGC,
		m.GCCPUFraction*100)
}
