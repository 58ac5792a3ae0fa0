// Package config persists mailbox credentials, monitored services, and
// refresh options as a YAML file, and exposes them as a read view to the
// detection and refresh entry points.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/concierge-services/concierge/internal/service"
)

const (
	defaultIMAPPort       = 993
	defaultFolder         = "INBOX"
	defaultRefreshMinutes = 30
	defaultScanLimit      = 100
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Mailbox  MailboxConfig    `yaml:"mailbox"`
	Services []service.Record `yaml:"services,omitempty"`
	Options  Options          `yaml:"options,omitempty"`
}

// MailboxConfig holds IMAP settings for the monitored account.
type MailboxConfig struct {
	Server   string `yaml:"server"`   // e.g. "imap.gmail.com"
	Port     int    `yaml:"port"`     // e.g. 993
	Email    string `yaml:"email"`    // Account to monitor
	Password string `yaml:"password"` // App password (not main password)
	Folder   string `yaml:"folder"`   // Folder to scan (default: "INBOX")
}

type Options struct {
	RefreshMinutes int    `yaml:"refresh_minutes"` // Interval between refresh cycles
	ScanLimit      int    `yaml:"scan_limit"`      // Most recent messages scanned per cycle
	HistoryDB      string `yaml:"history_db,omitempty"`
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".concierge", "config.yaml")
}

func Load(path string) (*Config, error) {
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.Mailbox.Port == 0 {
		cfg.Mailbox.Port = defaultIMAPPort
	}
	if cfg.Mailbox.Folder == "" {
		cfg.Mailbox.Folder = defaultFolder
	}
	if cfg.Options.RefreshMinutes == 0 {
		cfg.Options.RefreshMinutes = defaultRefreshMinutes
	}
	if cfg.Options.ScanLimit == 0 {
		cfg.Options.ScanLimit = defaultScanLimit
	}

	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Mailbox.Server == "" {
		return fmt.Errorf("mailbox: IMAP server is required")
	}
	if c.Mailbox.Port == 0 {
		return fmt.Errorf("mailbox: IMAP port is required")
	}
	if c.Mailbox.Email == "" {
		return fmt.Errorf("mailbox: email address is required")
	}
	if c.Mailbox.Password == "" {
		return fmt.Errorf("mailbox: password (app password) is required")
	}
	return nil
}

// AddService appends a service record, rejecting duplicate ids.
func (c *Config) AddService(rec service.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("service id is required")
	}
	for _, s := range c.Services {
		if s.ID == rec.ID {
			return fmt.Errorf("service %q is already configured", rec.ID)
		}
	}
	c.Services = append(c.Services, rec)
	return nil
}

// RemoveService deletes a service record by id. Returns false when the id
// is not configured.
func (c *Config) RemoveService(id string) bool {
	for i, s := range c.Services {
		if s.ID == id {
			c.Services = append(c.Services[:i], c.Services[i+1:]...)
			return true
		}
	}
	return false
}

// ServiceByID returns the record for id, if configured.
func (c *Config) ServiceByID(id string) (service.Record, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return service.Record{}, false
}
