package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/go-data-exporter/dbrelay"
)

// Remote is a named relay with its session parameters.
type Remote struct {
	URL            string `yaml:"url"`
	Server         string `yaml:"server,omitempty"`
	Database       string `yaml:"database,omitempty"`
	User           string `yaml:"user,omitempty"`
	Password       string `yaml:"password,omitempty"`
	ConnectionName string `yaml:"connection_name,omitempty"`
	Keepalive      int    `yaml:"keepalive,omitempty"`
}

func (r Remote) params() dbrelay.Params {
	return dbrelay.Params{
		Server:         r.Server,
		Database:       r.Database,
		User:           r.User,
		Password:       r.Password,
		ConnectionName: r.ConnectionName,
		HTTPKeepalive:  r.Keepalive,
	}
}

// Config is the content of the configuration file.
type Config struct {
	DefaultRemote string            `yaml:"default-remote"`
	Remotes       map[string]Remote `yaml:"remotes"`

	// path the configuration was loaded from and is saved to.
	path string
}

func getConfigPath() (string, error) {
	if dir := os.Getenv("DBRELAY_CONF"); dir != "" {
		return filepath.Join(dir, "config.yml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dbrelay", "config.yml"), nil
}

// LoadConfig reads the configuration from path; if the file does not exist
// an empty configuration is returned. An empty path picks the default
// location.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}

	c := &Config{path: path}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		c.Remotes = make(map[string]Remote)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Unable to read the configuration file: %w", err)
	}

	err = yaml.Unmarshal(content, c)
	if err != nil {
		return nil, fmt.Errorf("Unable to decode the configuration: %w", err)
	}
	if c.Remotes == nil {
		c.Remotes = make(map[string]Remote)
	}
	return c, nil
}

// SaveConfig writes the configuration back where it was loaded from. The
// file holds passwords and is only readable by its owner.
func (c *Config) SaveConfig() error {
	err := os.MkdirAll(filepath.Dir(c.path), 0o700)
	if err != nil {
		return fmt.Errorf("Unable to create the configuration directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Unable to marshal the configuration: %w", err)
	}

	err = os.WriteFile(c.path, data, 0o600)
	if err != nil {
		return fmt.Errorf("Unable to write the configuration: %w", err)
	}
	return nil
}
