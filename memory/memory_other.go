//go:build !linux && !windows
// +build !linux,!windows

package memory

// GetRAMAppBytes returns the app ram usage in bytes, unsupported here
func GetRAMAppBytes() uint64 {
	return 0
}

// GetRAMSystemBytes returns the system total ram in bytes, unsupported here
func GetRAMSystemBytes() uint64 {
	return 0
}
