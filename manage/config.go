package manage

import (
	"os"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

// Config Constants
var (
	ConfigFilename = "manage.yaml"
)

// Config defaults
const (
	DefaultDisplayFps  = 10
	DefaultJpegQuality = 85
)

// Config contains the parameters for Manage
type Config struct {
	// Folder scanned for video files; empty disables the file scan
	Folder string `yaml:"folder,omitempty"`
	// Extensions of video files to pick up, default .mp4
	Extensions []string `yaml:"extensions,omitempty"`
	// MaxDevices is the highest camera device index probed, default 10
	MaxDevices int `yaml:"maxDevices,omitempty"`
	// DisplayFps paces the consumption loop, default 10
	DisplayFps int `yaml:"displayFps,omitempty"`
	// SaveDirectory receives frame snapshots; empty disables saving
	SaveDirectory string `yaml:"saveDirectory,omitempty"`
	// JpegQuality for streamed and saved frames, default 85
	JpegQuality int `yaml:"jpegQuality,omitempty"`
	// NameLabel stamps each streamed frame with its source name
	NameLabel bool `yaml:"nameLabel,omitempty"`
	// NameTimestamp stamps each streamed frame with its capture time
	NameTimestamp bool `yaml:"nameTimestamp,omitempty"`
}

// NewConfig creates a new Config
func NewConfig(configPath string) *Config {
	c := &Config{}
	yamlFile, err := os.ReadFile(configPath)
	if err != nil {
		log.Printf("yamlFile.Get err   #%v ", err)
		return nil
	}
	err = yaml.Unmarshal(yamlFile, c)
	if err != nil {
		log.Printf("Unmarshal: %v", err)
		return nil
	}
	return c
}
