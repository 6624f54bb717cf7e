package memory

import (
	"runtime"
)

// Memory is a point in time process and system memory reading
type Memory struct {
	HeapAllocatedBytes uint64
	HeapTotalBytes     uint64
	RAMAppBytes        uint64
	RAMSystemBytes     uint64
}

// MegaBytes is the rounded form of a Memory reading served by the status api
type MegaBytes struct {
	HeapAllocatedMB int `json:"heapAllocatedMB"`
	HeapTotalMB     int `json:"heapTotalMB"`
	RAMAppMB        int `json:"ramAppMB"`
	RAMSystemMB     int `json:"ramSystemMB"`
}

// NewMemory creates a new Memory reading
func NewMemory() *Memory {
	m := &Memory{}
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	m.HeapAllocatedBytes = memStats.Alloc
	m.HeapTotalBytes = memStats.Sys
	m.RAMAppBytes = GetRAMAppBytes()
	m.RAMSystemBytes = GetRAMSystemBytes()
	return m
}

// InMegaBytes converts the reading to MegaBytes
func (m *Memory) InMegaBytes() MegaBytes {
	return MegaBytes{
		HeapAllocatedMB: int(bytesToMegaBytes(m.HeapAllocatedBytes)),
		HeapTotalMB:     int(bytesToMegaBytes(m.HeapTotalBytes)),
		RAMAppMB:        int(bytesToMegaBytes(m.RAMAppBytes)),
		RAMSystemMB:     int(bytesToMegaBytes(m.RAMSystemBytes)),
	}
}

func bytesToMegaBytes(in uint64) float64 {
	return float64(in) / 1000 / 1000
}
