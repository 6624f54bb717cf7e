package http

import (
	"os"

	log "github.com/sirupsen/logrus"

	"gopkg.in/yaml.v2"
)

// Config Constants
var (
	ConfigFilename = "http.yaml"
)

// Config defaults
const (
	DefaultLimitPerSecond = 100
	DefaultSessionMinutes = 60 * 24 * 7
)

// Link names a remote instance whose live frames are pulled over a websocket
// and republished under the link's name
type Link struct {
	Name string `yaml:"name"`
	Url  string `yaml:"url"`
	// Source is the remote source to pull; empty pulls the remote mosaic
	Source   string `yaml:"source,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Config contains the parameters for Http
type Config struct {
	// Port to listen on, default 8080
	Port int `yaml:"port,omitempty"`
	// LimitPerSecond caps requests per client, default 100
	LimitPerSecond int `yaml:"limitPerSecond,omitempty"`
	// User enables login when set together with a password
	User string `yaml:"user,omitempty"`
	// Password in the clear; prefer PasswordHash
	Password string `yaml:"password,omitempty"`
	// PasswordHash is a bcrypt hash and wins over Password when set
	PasswordHash string `yaml:"passwordHash,omitempty"`
	// SigningKey for tokens; default is random per process
	SigningKey string `yaml:"signingKey,omitempty"`
	// SessionMinutes until a token expires, default one week
	SessionMinutes int `yaml:"sessionMinutes,omitempty"`
	// Links to remote instances republished locally
	Links []Link `yaml:"links,omitempty"`
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
