package wifiscan

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultInterval = 5000 * time.Millisecond
	DefaultBackend  = "iwlist"
)

var ValidBackends = []string{"iwlist", "iw", "fake"}

type ScanConfig struct {
	// Interface to scan with, empty picks the first station radio.
	Interface string `yaml:"interface"`
	Backend   string `yaml:"backend"`
	Capacity  int    `yaml:"capacity"`
	// IntervalMs is the sleep between the end of one cycle and the next.
	IntervalMs int `yaml:"intervalMs"`
	// ScanTimeoutMs bounds each radio call, 0 waits forever.
	ScanTimeoutMs int           `yaml:"scanTimeoutMs"`
	PublishURL    string        `yaml:"publishUrl"`
	Log           LogConfig     `yaml:"log"`
	Fake          FakeConfig    `yaml:"fake"`
	Systemd       SystemdConfig `yaml:"systemd"`
}

type LogConfig struct {
	Verbose    bool   `yaml:"verbose"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
	Journald   bool   `yaml:"journald"`
}

// FakeConfig drives the simulated radio used by the "fake" backend.
type FakeConfig struct {
	Networks        int    `yaml:"networks"`
	PowerOnErrCode  uint32 `yaml:"powerOnErrCode"`
	ScanErrCode     uint32 `yaml:"scanErrCode"`
	ScanErrEveryNth int    `yaml:"scanErrEveryNth"`
}

type SystemdConfig struct {
	Notify bool `yaml:"notify"`
}

func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Backend:    DefaultBackend,
		Capacity:   MaxScanResults,
		IntervalMs: int(DefaultInterval / time.Millisecond),
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Fake: FakeConfig{
			Networks: 8,
		},
		Systemd: SystemdConfig{
			Notify: true,
		},
	}
}

func (c ScanConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func (c ScanConfig) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMs) * time.Millisecond
}

// LoadScanConfig layers an optional YAML file and the environment over the
// defaults. Flags are applied by the caller afterwards, then Validate.
func LoadScanConfig(path string) (ScanConfig, error) {
	cfg := DefaultScanConfig()

	if path != "" {
		if err := loadFromFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func loadFromFile(cfg *ScanConfig, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *ScanConfig) error {
	if iface := os.Getenv("WIFISCAN_INTERFACE"); iface != "" {
		cfg.Interface = iface
	}

	if backend := os.Getenv("WIFISCAN_BACKEND"); backend != "" {
		cfg.Backend = backend
	}

	if interval := os.Getenv("WIFISCAN_INTERVAL_MS"); interval != "" {
		ms, err := strconv.Atoi(interval)
		if err != nil {
			return fmt.Errorf("invalid WIFISCAN_INTERVAL_MS %q: %w", interval, err)
		}
		cfg.IntervalMs = ms
	}

	if publish := os.Getenv("WIFISCAN_PUBLISH_URL"); publish != "" {
		cfg.PublishURL = publish
	}

	return nil
}

func (c ScanConfig) Validate() error {
	if c.Capacity < 1 || c.Capacity > MaxScanResults {
		return fmt.Errorf("capacity %d is outside range [1, %d]", c.Capacity, MaxScanResults)
	}

	if c.IntervalMs <= 0 {
		return fmt.Errorf("interval %dms must be positive", c.IntervalMs)
	}

	if c.ScanTimeoutMs < 0 {
		return fmt.Errorf("scan timeout %dms must not be negative", c.ScanTimeoutMs)
	}

	if !contains(ValidBackends, c.Backend) {
		return fmt.Errorf("invalid backend %s, must be one of: %v", c.Backend, ValidBackends)
	}

	if c.PublishURL != "" {
		u, err := url.Parse(c.PublishURL)
		if err != nil {
			return fmt.Errorf("invalid publish url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("publish url must be an absolute http(s) url")
		}
	}

	if c.Fake.ScanErrEveryNth < 0 {
		return fmt.Errorf("fake scanErrEveryNth %d must not be negative", c.Fake.ScanErrEveryNth)
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
