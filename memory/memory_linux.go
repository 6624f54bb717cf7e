//go:build linux
// +build linux

package memory

import "syscall"

// GetRAMAppBytes returns the app ram usage in bytes
func GetRAMAppBytes() uint64 {
	var rmem syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rmem); err != nil {
		return 0
	}
	return uint64(rmem.Maxrss) * 1000 // maxrss is in kilobytes
}

// GetRAMSystemBytes returns the system total ram in bytes
func GetRAMSystemBytes() uint64 {
	var info syscall.Sysinfo_t
	if err := syscall.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}
