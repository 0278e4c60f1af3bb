// Command provision generates a fresh attestation keypair and
// self-signed certificate for a simulated device, writing them to the
// paths a config.yaml's attestation section names. It never touches
// the device's master key or signature counter; those are created
// lazily by the store facade the first time the simulator runs.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zequinha-taveira/openfido-esp/internal/attestation"
	"github.com/zequinha-taveira/openfido-esp/internal/config"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
)

const configFileName = "config.yaml"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	commonName := flag.String("common-name", "OpenFIDO-ESP simulator", "attestation certificate common name")
	force := flag.Bool("force", false, "overwrite existing attestation key/cert files")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	configPath, err := defaultConfigPath()
	if err != nil {
		log.Fatalf("resolve config path failed: %v", err)
	}
	fmt.Printf("Using config: %s\n", configPath)

	cfg, err := config.LoadWithMode(configPath, config.ValidationProvision)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if !*force {
		if fileExists(cfg.Attestation.PrivateKeyHexFile) || fileExists(cfg.Attestation.CertFile) {
			log.Fatalf("attestation files already exist at %s / %s; pass -force to overwrite",
				cfg.Attestation.PrivateKeyHexFile, cfg.Attestation.CertFile)
		}
	}

	crypto := cryptoprovider.NewSoftware()
	priv, _, err := crypto.P256Keygen()
	if err != nil {
		log.Fatalf("generate attestation key: %v", err)
	}
	cert, err := attestation.GenerateSelfSignedCert(attestation.Key{Private: priv}, *commonName)
	if err != nil {
		log.Fatalf("generate self-signed certificate: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Attestation.PrivateKeyHexFile), 0o700); err != nil {
		log.Fatalf("create attestation key directory: %v", err)
	}
	if err := os.WriteFile(cfg.Attestation.PrivateKeyHexFile, []byte(hex.EncodeToString(priv[:])+"\n"), 0o600); err != nil {
		log.Fatalf("write attestation private key: %v", err)
	}
	if err := os.WriteFile(cfg.Attestation.CertFile, cert, 0o600); err != nil {
		log.Fatalf("write attestation certificate: %v", err)
	}

	fmt.Println("Attestation key and certificate provisioned.")
	fmt.Printf("  Private key: %s\n", cfg.Attestation.PrivateKeyHexFile)
	fmt.Printf("  Certificate: %s\n", cfg.Attestation.CertFile)
}

func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	exeConfigPath := filepath.Join(filepath.Dir(exePath), configFileName)
	if fileExists(exeConfigPath) {
		return exeConfigPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return exeConfigPath, nil
	}
	cwdConfigPath := filepath.Join(cwd, configFileName)
	if fileExists(cwdConfigPath) {
		return cwdConfigPath, nil
	}
	return exeConfigPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
