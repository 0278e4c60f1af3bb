// Command reset wipes a simulated device's persisted master key and
// signature counter, returning it to its out-of-the-box state: the
// next GetMasterKey call will mint a fresh Kₘ and every previously
// issued credential ID becomes permanently unwrappable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zequinha-taveira/openfido-esp/internal/config"
)

const configFileName = "config.yaml"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
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

	if !*yes {
		fmt.Printf("This will permanently erase the master key and signature counter under %s.\n", cfg.Store.BaseDir)
		fmt.Print("Every credential ever registered on this simulated device will stop working. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(line)) != "y" {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
	}

	if err := resetStore(cfg.Store.BaseDir); err != nil {
		log.Fatalf("reset failed: %v", err)
	}

	fmt.Println("Device state reset to factory defaults.")
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
