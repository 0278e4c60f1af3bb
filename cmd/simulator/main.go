// Command simulator runs the authenticator core against an in-process
// loopback transport instead of a real USB-HID endpoint, driving it
// through an INIT / VERSION / GET_INFO sequence; REGISTER,
// AUTHENTICATE, MAKE_CREDENTIAL and GET_ASSERTION are not sent. It
// exists because the USB-HID driver and board
// glue are out of scope (spec.md section 1): this is how the core gets
// exercised end-to-end without them.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zequinha-taveira/openfido-esp/internal/attestation"
	"github.com/zequinha-taveira/openfido-esp/internal/config"
	"github.com/zequinha-taveira/openfido-esp/internal/cryptoprovider"
	"github.com/zequinha-taveira/openfido-esp/internal/ctap1"
	"github.com/zequinha-taveira/openfido-esp/internal/ctap2"
	"github.com/zequinha-taveira/openfido-esp/internal/device"
	"github.com/zequinha-taveira/openfido-esp/internal/devicestate"
	"github.com/zequinha-taveira/openfido-esp/internal/hidtransport"
	"github.com/zequinha-taveira/openfido-esp/internal/presence"
	"github.com/zequinha-taveira/openfido-esp/internal/store"
)

const configFileName = "config.yaml"

func main() {
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	interactive := flag.Bool("interactive", false, "require a real keypress for user presence instead of simulating it")
	flag.Parse()

	configPath, err := defaultConfigPath()
	if err != nil {
		log.Fatalf("resolve config path failed: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	// Config supplies the defaults; an explicitly passed flag wins.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			b := *verbose
			cfg.Runtime.Verbose = &b
		case "log-format":
			cfg.Runtime.LogFormat = *logFormat
		}
	})
	if cfg.Runtime.Verbose != nil {
		*verbose = *cfg.Runtime.Verbose
	}
	if cfg.Runtime.LogFormat != "" {
		*logFormat = cfg.Runtime.LogFormat
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if *logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	logger.Info("using config", "path", configPath)

	aaguidBytes, err := hex.DecodeString(cfg.Device.AAGUIDHex)
	if err != nil || len(aaguidBytes) != 16 {
		log.Fatalf("invalid aaguid_hex in config")
	}
	var aaguid [16]byte
	copy(aaguid[:], aaguidBytes)

	crypto := cryptoprovider.NewSoftware()

	fs, err := store.NewFileStore(cfg.Store.BaseDir, crypto)
	if err != nil {
		log.Fatalf("init store: %v", err)
	}

	privHex, err := os.ReadFile(cfg.Attestation.PrivateKeyHexFile)
	if err != nil {
		log.Fatalf("read attestation private key: %v", err)
	}
	certDER, err := os.ReadFile(cfg.Attestation.CertFile)
	if err != nil {
		log.Fatalf("read attestation certificate: %v", err)
	}
	attKey, err := attestation.FromHex(trimNewline(privHex), certDER)
	if err != nil {
		log.Fatalf("load attestation key: %v", err)
	}

	var sensor presence.Sensor = presence.AlwaysPresent{}
	if *interactive {
		ts := NewTermSensor()
		if cfg.Runtime.PresenceTimeoutMS != nil {
			ts.Timeout = time.Duration(*cfg.Runtime.PresenceTimeoutMS) * time.Millisecond
		}
		sensor = ts
	}

	state := devicestate.New(crypto, fs, sensor, attKey, aaguid)
	dispatcher := device.New(state)

	lb := newLoopback()
	go func() {
		for range lb.toHost {
			// Out-of-band keepalive reports are discarded; this
			// demo harness only needs to drain the channel so a
			// long presence wait never blocks on a full buffer.
		}
	}()
	transport := hidtransport.NewTransport(dispatcher, lb.send)

	logger.Info("running demo command sequence")
	if err := runDemo(transport, crypto, logger); err != nil {
		log.Fatalf("demo sequence failed: %v", err)
	}
	logger.Info("demo sequence completed successfully")
}

// runDemo drives the transport through U2FHID INIT, a U2F VERSION
// APDU, and a CTAP2 GET_INFO, logging the result of each step. It
// does not register or authenticate a credential.
func runDemo(t *hidtransport.Transport, crypto cryptoprovider.Provider, logger *slog.Logger) error {
	now := time.Now()

	cid, err := doInit(t, now)
	if err != nil {
		return fmt.Errorf("INIT: %w", err)
	}
	logger.Info("allocated channel", "cid", fmt.Sprintf("0x%08x", cid))

	versionResp, err := doMsg(t, cid, now, []byte{0x00, ctap1.InsVersion, 0x00, 0x00})
	if err != nil {
		return fmt.Errorf("VERSION: %w", err)
	}
	logger.Info("VERSION", "response", fmt.Sprintf("%x", versionResp))

	getInfoResp, err := doCBOR(t, cid, now, []byte{ctap2.CmdGetInfo})
	if err != nil {
		return fmt.Errorf("GET_INFO: %w", err)
	}
	logger.Info("GET_INFO", "status", fmt.Sprintf("0x%02x", getInfoResp[0]))

	return nil
}

func doInit(t *hidtransport.Transport, now time.Time) (uint32, error) {
	nonce := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	report := make([]byte, hidtransport.ReportSize)
	putBE(report[0:4], hidtransport.BroadcastCID)
	report[4] = hidtransport.CmdInit | 0x80
	report[5] = 0
	report[6] = 8
	copy(report[7:], nonce)

	replies, err := t.ProcessReport(report, now)
	if err != nil {
		return 0, err
	}
	if len(replies) == 0 {
		return 0, fmt.Errorf("no INIT reply")
	}
	reply := replies[0]
	cid := beUint(reply[7+8 : 7+8+4])
	return cid, nil
}

func doMsg(t *hidtransport.Transport, cid uint32, now time.Time, apdu []byte) ([]byte, error) {
	return doCommand(t, cid, now, hidtransport.CmdMsg, apdu)
}

func doCBOR(t *hidtransport.Transport, cid uint32, now time.Time, msg []byte) ([]byte, error) {
	return doCommand(t, cid, now, hidtransport.CmdCBOR, msg)
}

func doCommand(t *hidtransport.Transport, cid uint32, now time.Time, cmd byte, payload []byte) ([]byte, error) {
	// FragmentReply is written for device->host replies, but the
	// framing it produces is identical in both directions, so this
	// harness reuses it to build the host->device request too.
	reports, err := hidtransport.FragmentReply(cid, cmd, payload)
	if err != nil {
		return nil, err
	}
	var all [][]byte
	for _, r := range reports {
		replies, err := t.ProcessReport(r, now)
		if err != nil {
			return nil, err
		}
		all = append(all, replies...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no response")
	}
	bcnt := int(all[0][5])<<8 | int(all[0][6])
	out := make([]byte, 0, bcnt)
	out = append(out, all[0][7:]...)
	for _, r := range all[1:] {
		out = append(out, r[5:]...)
	}
	if len(out) > bcnt {
		out = out[:bcnt]
	}
	return out, nil
}

func putBE(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}

func beUint(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func trimNewline(b []byte) string {
	s := string(b)
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
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
