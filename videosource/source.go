package videosource

import (
	"fmt"
	"path/filepath"
)

// SourceKind tags a SourceID as a camera device or a video file
type SourceKind int

// SourceKind values
const (
	KindDevice SourceKind = iota + 1
	KindFile
)

// SourceID identifies a capture source by camera device index or by video
// file path. It is the stable key for "the same source" across restarts and
// is comparable, so it can key a map. The zero value is invalid.
type SourceID struct {
	Kind   SourceKind
	Device int
	Path   string
}

// DeviceID creates a SourceID for a camera device index
func DeviceID(index int) SourceID {
	return SourceID{Kind: KindDevice, Device: index}
}

// FileID creates a SourceID for a video file path
func FileID(path string) SourceID {
	return SourceID{Kind: KindFile, Path: path}
}

// IsDevice returns true when the SourceID names a camera device
func (s SourceID) IsDevice() bool {
	return s.Kind == KindDevice
}

// IsFile returns true when the SourceID names a video file
func (s SourceID) IsFile() bool {
	return s.Kind == KindFile
}

// IsValid returns true when the SourceID names anything at all
func (s SourceID) IsValid() bool {
	return s.Kind == KindDevice || s.Kind == KindFile
}

// String returns the identifier form used in logs and the api
func (s SourceID) String() string {
	switch s.Kind {
	case KindDevice:
		return fmt.Sprintf("device:%d", s.Device)
	case KindFile:
		return s.Path
	}
	return "invalid"
}

// DefaultName returns a human readable name derived from the identifier
func (s SourceID) DefaultName() string {
	switch s.Kind {
	case KindDevice:
		return fmt.Sprintf("Device %d", s.Device)
	case KindFile:
		return filepath.Base(s.Path)
	}
	return "invalid"
}
