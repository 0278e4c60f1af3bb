package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadValidFullConfigAndResolveRelativePaths(t *testing.T) {
	tmp := t.TempDir()
	privPath := filepath.Join(tmp, "attestation.hex")
	certPath := filepath.Join(tmp, "attestation.der")
	if err := os.WriteFile(privPath, []byte(strings.Repeat("ab", 32)+"\n"), 0o644); err != nil {
		t.Fatalf("write private key: %v", err)
	}
	if err := os.WriteFile(certPath, []byte{0x30, 0x00}, 0o644); err != nil {
		t.Fatalf("write cert: %v", err)
	}

	cfgPath := filepath.Join(tmp, "config.yaml")
	cfgYAML := `
device:
  vendor_id: 0x1209
  product_id: 0x0001
  aaguid_hex: "00112233445566778899aabbccddeeff"
store:
  base_dir: "store"
attestation:
  private_key_hex_file: "attestation.hex"
  cert_file: "attestation.der"
runtime:
  log_format: "text"
  verbose: false
  presence_timeout_ms: 30000
`
	if err := os.WriteFile(cfgPath, []byte(cfgYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Attestation.PrivateKeyHexFile != privPath {
		t.Fatalf("expected resolved private key path %q, got %q", privPath, cfg.Attestation.PrivateKeyHexFile)
	}
	if cfg.Attestation.CertFile != certPath {
		t.Fatalf("expected resolved cert path %q, got %q", certPath, cfg.Attestation.CertFile)
	}
}

func TestLoadWithModeProvisionAllowsMinimalConfig(t *testing.T) {
	cfgPath := writeConfig(t, `
device:
  vendor_id: 4661
  product_id: 1
  aaguid_hex: "00112233445566778899aabbccddeeff"
store:
  base_dir: "store"
`)

	cfg, err := LoadWithMode(cfgPath, ValidationProvision)
	if err != nil {
		t.Fatalf("LoadWithMode returned error: %v", err)
	}
	if *cfg.Device.VendorID != 4661 {
		t.Fatalf("unexpected vendor id: %d", *cfg.Device.VendorID)
	}
}

func TestLoadFullFailsWithoutAttestationKey(t *testing.T) {
	cfgPath := writeConfig(t, `
device:
  vendor_id: 4661
  product_id: 1
  aaguid_hex: "00112233445566778899aabbccddeeff"
store:
  base_dir: "store"
`)

	_, err := Load(cfgPath)
	if err == nil || !strings.Contains(err.Error(), "config.attestation.private_key_hex_file is required") {
		t.Fatalf("expected missing attestation key error, got %v", err)
	}
}

func TestLoadFailsOnInvalidAAGUID(t *testing.T) {
	cfgPath := writeConfig(t, `
device:
  vendor_id: 4661
  product_id: 1
  aaguid_hex: "not-hex"
store:
  base_dir: "store"
`)

	_, err := LoadWithMode(cfgPath, ValidationProvision)
	if err == nil || !strings.Contains(err.Error(), "aaguid_hex must be 32 hex characters") {
		t.Fatalf("expected aaguid length error, got %v", err)
	}
}

func TestLoadFailsOnUnknownField(t *testing.T) {
	cfgPath := writeConfig(t, `
device:
  vendor_id: 4661
  product_id: 1
  aaguid_hex: "00112233445566778899aabbccddeeff"
store:
  base_dir: "store"
bogus_field: true
`)

	_, err := LoadWithMode(cfgPath, ValidationProvision)
	if err == nil {
		t.Fatalf("expected strict decode to reject an unknown top-level field")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	cfgPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}
