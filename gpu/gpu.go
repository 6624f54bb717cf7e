package gpu

import "os"

// Vendor is the detected graphics hardware vendor
type Vendor string

// Vendor values
const (
	Nvidia Vendor = "nvidia"
	Amd    Vendor = "amd"
	Cpu    Vendor = "cpu"
)

// Detect probes the system for a dedicated gpu and returns its vendor, or
// Cpu when none is found. Meant to run once at startup; the result is
// reported, never consulted by the capture workers.
func Detect() Vendor {
	if hasNvidia() {
		return Nvidia
	}
	if hasAmd() {
		return Amd
	}
	return Cpu
}

// HasCudaInstalled on system
func HasCudaInstalled() bool {
	out, err := os.ReadFile("/usr/local/cuda/version.txt")
	if err != nil || len(out) == 0 {
		return false
	}
	return true
}

func hasNvidia() bool {
	if HasCudaInstalled() {
		return true
	}
	if _, err := os.Stat("/proc/driver/nvidia/version"); err == nil {
		return true
	}
	return false
}

func hasAmd() bool {
	if _, err := os.Stat("/sys/module/amdgpu"); err == nil {
		return true
	}
	return false
}

// OptimalCodec returns the ffmpeg encoder name best suited to vendor
func OptimalCodec(vendor Vendor) string {
	switch vendor {
	case Nvidia:
		return "hevc_nvenc"
	case Amd:
		return "hevc_amf"
	}
	return "libx265"
}
