// Package config loads the YAML device configuration cmd/simulator,
// cmd/provision, and cmd/reset share, grounded on the strict-decode
// pattern the teacher's sdmconfig and minter tools use.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidationMode selects which fields Load requires, since
// cmd/provision needs the attestation key/cert paths to exist on disk
// before cmd/simulator is ever run against them.
type ValidationMode int

const (
	ValidationFull ValidationMode = iota
	ValidationProvision
)

type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Store       StoreConfig       `yaml:"store"`
	Attestation AttestationConfig `yaml:"attestation"`
	Runtime     RuntimeConfig     `yaml:"runtime"`
}

type DeviceConfig struct {
	VendorID  *int   `yaml:"vendor_id"`
	ProductID *int   `yaml:"product_id"`
	AAGUIDHex string `yaml:"aaguid_hex"`
}

type StoreConfig struct {
	BaseDir string `yaml:"base_dir"`
}

type AttestationConfig struct {
	PrivateKeyHexFile string `yaml:"private_key_hex_file"`
	CertFile          string `yaml:"cert_file"`
}

type RuntimeConfig struct {
	LogFormat         string `yaml:"log_format"`
	Verbose           *bool  `yaml:"verbose"`
	PresenceTimeoutMS *int   `yaml:"presence_timeout_ms"`
}

// Load reads and validates path against ValidationFull.
func Load(path string) (*Config, error) {
	return LoadWithMode(path, ValidationFull)
}

// LoadWithMode reads, strictly decodes (unknown keys are a hard
// error, as with the teacher's config loaders), resolves relative file
// paths against the config file's own directory, and validates.
func LoadWithMode(path string, mode ValidationMode) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.ValidateWithMode(mode); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return c.ValidateWithMode(ValidationFull)
}

func (c *Config) ValidateWithMode(mode ValidationMode) error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	switch mode {
	case ValidationProvision:
		return nil
	case ValidationFull:
		return c.validateFullMode()
	default:
		return fmt.Errorf("unsupported validation mode: %d", mode)
	}
}

func (c *Config) validateCommon() error {
	if c.Device.VendorID == nil {
		return fmt.Errorf("config.device.vendor_id is required")
	}
	if c.Device.ProductID == nil {
		return fmt.Errorf("config.device.product_id is required")
	}
	if strings.TrimSpace(c.Device.AAGUIDHex) == "" {
		return fmt.Errorf("config.device.aaguid_hex is required")
	}
	if len(c.Device.AAGUIDHex) != 32 {
		return fmt.Errorf("config.device.aaguid_hex must be 32 hex characters (16 bytes)")
	}
	if strings.TrimSpace(c.Store.BaseDir) == "" {
		return fmt.Errorf("config.store.base_dir is required")
	}
	return nil
}

func (c *Config) validateFullMode() error {
	if strings.TrimSpace(c.Attestation.PrivateKeyHexFile) == "" {
		return fmt.Errorf("config.attestation.private_key_hex_file is required")
	}
	if err := validateReadableFile(c.Attestation.PrivateKeyHexFile, "config.attestation.private_key_hex_file"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Attestation.CertFile) == "" {
		return fmt.Errorf("config.attestation.cert_file is required")
	}
	if err := validateReadableFile(c.Attestation.CertFile, "config.attestation.cert_file"); err != nil {
		return err
	}
	return nil
}

func (c *Config) resolvePaths(configPath string) {
	configDir := filepath.Dir(configPath)
	c.Attestation.PrivateKeyHexFile = resolvePath(configDir, c.Attestation.PrivateKeyHexFile)
	c.Attestation.CertFile = resolvePath(configDir, c.Attestation.CertFile)
	c.Store.BaseDir = resolvePath(configDir, c.Store.BaseDir)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func validateReadableFile(path string, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s must point to a file, got directory", field)
	}
	return nil
}
