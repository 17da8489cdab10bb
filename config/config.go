package config

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/safrinnetwork/MikReMan/internal/routeros"
)

// LoggerConfig controls log output. Mode "prod" selects JSON logs, anything
// else the console encoder.
type LoggerConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

// APIConfig is the admin HTTP listener.
type APIConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

// DeviceConfig identifies the managed RouterOS device. Serialize opts into
// the in-process per-device mutex; off by default, matching the accepted
// allocator race under concurrent callers.
type DeviceConfig struct {
	Host      string `yaml:"host" json:"host"`
	Username  string `yaml:"username" json:"username"`
	Password  string `yaml:"password" json:"-"`
	Port      int    `yaml:"port" json:"port"`
	UseTLS    bool   `yaml:"use_tls" json:"use_tls"`
	Serialize bool   `yaml:"serialize" json:"serialize"`
}

// TelegramConfig enables the backup delivery sink.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	BotToken string `yaml:"bot_token" json:"-"`
	ChatID   string `yaml:"chat_id" json:"chat_id"`
}

// AppConfig is the full application configuration.
type AppConfig struct {
	Logger   LoggerConfig    `yaml:"logger" json:"logger"`
	API      APIConfig       `yaml:"api" json:"api"`
	Device   DeviceConfig    `yaml:"device" json:"device"`
	Telegram TelegramConfig  `yaml:"telegram" json:"telegram"`
	Services map[string]bool `yaml:"services" json:"services"`
}

// DefaultConfig returns a configuration suitable for a first run against a
// local device.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Logger: LoggerConfig{
			Mode:       "dev",
			FileEnable: true,
			Filename:   "mikreman.log",
		},
		API:    APIConfig{Listen: ":8088"},
		Device: DeviceConfig{Host: "192.168.88.1", Username: "admin", UseTLS: true},
		Services: map[string]bool{
			"l2tp": true,
			"pptp": true,
			"sstp": true,
		},
	}
}

// LoadConfig reads a yaml configuration file. Missing fields keep their
// defaults.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Store wraps an AppConfig with write-back persistence for the mutable
// pieces, currently only the service enable flags.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  *AppConfig
}

func NewStore(path string, cfg *AppConfig) *Store {
	return &Store{path: path, cfg: cfg}
}

func (s *Store) Config() *AppConfig {
	return s.cfg
}

// Credentials builds the device credentials, validating the required
// fields.
func (s *Store) Credentials() (routeros.Credentials, error) {
	d := s.cfg.Device
	if d.Host == "" {
		return routeros.Credentials{}, errors.New("device.host is not configured")
	}
	if d.Username == "" {
		return routeros.Credentials{}, errors.New("device.username is not configured")
	}
	return routeros.Credentials{
		Host:     d.Host,
		Username: d.Username,
		Password: d.Password,
		Port:     d.Port,
		UseTLS:   d.UseTLS,
	}, nil
}

// SetServiceStatus records a service enable flag and persists the whole
// configuration back to disk.
func (s *Store) SetServiceStatus(service string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Services == nil {
		s.cfg.Services = map[string]bool{}
	}
	s.cfg.Services[service] = enabled
	return s.save()
}

func (s *Store) save() error {
	raw, err := yaml.Marshal(s.cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "write config %s", s.path)
	}
	return nil
}
