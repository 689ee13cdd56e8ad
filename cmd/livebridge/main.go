package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/livebridge/internal/api"
	"github.com/mattjoyce/livebridge/internal/bridge"
	"github.com/mattjoyce/livebridge/internal/client"
	"github.com/mattjoyce/livebridge/internal/config"
	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/host"
	"github.com/mattjoyce/livebridge/internal/log"
	"github.com/mattjoyce/livebridge/internal/server"
	"github.com/mattjoyce/livebridge/internal/session"
	"github.com/mattjoyce/livebridge/internal/tui/watch"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "send":
		return runSend(args)
	case "monitor":
		return runMonitor(args)
	case "start":
		return runStart(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Print(`livebridge - TCP command bridge for a single-threaded host

Usage:
  livebridge <command> [flags]

System Commands:
  system start      Run the bridge, simulated host and optional ops API in the foreground

Config Commands:
  config check      Validate syntax, values and integrity
  config show       Print the resolved configuration
  config lock       Record the config file's BLAKE3 hash in .checksums

Client Commands:
  send <json>...    Send one command per argument (or per stdin line) and print each response
  monitor           Live TUI fed by the ops API

General:
  version           Show version information
  help              Show this help message

Use 'livebridge <command> --help' for flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: livebridge system <action>")
		fmt.Fprintln(os.Stderr, "Actions: start")
		return 1
	}
	switch args[0] {
	case "start":
		return runStart(args[1:])
	case "help", "--help", "-h":
		fmt.Println("Usage: livebridge system <action>")
		fmt.Println("Actions: start")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", args[0])
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: livebridge config <action> [flags]")
		fmt.Fprintln(os.Stderr, "Actions: check, show, lock")
		return 1
	}
	switch args[0] {
	case "check":
		return runConfigCheck(args[1:])
	case "show":
		return runConfigShow(args[1:])
	case "lock":
		return runConfigLock(args[1:])
	case "help", "--help", "-h":
		fmt.Println("Usage: livebridge config <action> [flags]")
		fmt.Println("Actions: check, show, lock")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

// newFlagSet returns a ContinueOnError flag set whose usage goes to stdout.
func newFlagSet(name, usage string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.Usage = func() {
		fmt.Println(usage)
		fmt.Println()
		fmt.Println("Flags:")
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
	}
	return fs
}

// parseFlags parses args and maps --help to exit code 0.
func parseFlags(fs *pflag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1, false
	}
	return 0, true
}

// loadConfig resolves --config (or discovery) and loads it. With nothing
// found the built-in defaults are used.
func loadConfig(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil {
			return nil, "", fmt.Errorf("failed to discover config: %w", err)
		}
		if discovered == "" {
			return config.Defaults(), "", nil
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, err
	}
	return cfg, configPath, nil
}

// --- ACTION IMPLEMENTATIONS ---

func runStart(args []string) int {
	fs := newFlagSet("start", "Usage: livebridge system start [--config PATH] [--listen ADDR]")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	listen := fs.String("listen", "", "Override bridge.listen")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Bridge.Listen = *listen
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	if resolved == "" {
		logger.Info("no config file found, using defaults")
	}
	logger.Info("livebridge starting", "version", version, "config", resolved)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hub := events.NewHub(256)
	sess := session.New()
	b := bridge.New(sess.Catalog(), append(bridge.FromConfig(cfg.Bridge),
		bridge.WithEvents(hub),
		bridge.WithLogger(log.WithComponent("bridge")),
	)...)
	logger.Info("action catalog loaded", "tool_count", b.ToolCount(), "command_timeout", b.CommandTimeout().String())

	srv := server.New(b, cfg.Bridge,
		server.WithEvents(hub),
		server.WithLogger(log.WithComponent("server")),
	)
	if err := srv.Start(ctx); err != nil {
		logger.Error("failed to start bridge server", "error", err)
		return 1
	}

	errCh := make(chan error, 1)
	hostDone := make(chan struct{})
	go func() {
		defer close(hostDone)
		loop := host.Loop{
			Interval: cfg.Host.TickInterval,
			MaxBatch: cfg.Bridge.MaxCommandsPerTick,
			Logger:   log.WithComponent("host"),
		}
		_ = loop.Run(ctx, b)
	}()

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.Auth.APIKey,
		}, b, srv, hub, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
		logger.Info("API server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("livebridge running (press Ctrl+C to stop)", "listen", srv.Addr().String())

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
		code = 1
	}

	cancel()
	srv.Stop()
	<-hostDone

	st := b.Stats()
	logger.Info("livebridge stopped",
		"processed", st.Processed,
		"timed_out", st.TimedOut,
		"cancelled", st.Cancelled,
		"discarded", st.Discarded,
		"pending_at_exit", st.QueueDepth,
	)
	return code
}

func runConfigCheck(args []string) int {
	fs := newFlagSet("check", "Usage: livebridge config check [--config PATH] [--json]\nValidate configuration syntax, values and integrity.")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output the result as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	_, resolved, err := loadConfig(*configPath)
	if *jsonOut {
		out := map[string]any{"valid": err == nil, "config": resolved}
		if err != nil {
			out["error"] = err.Error()
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
	} else if resolved == "" {
		fmt.Println("No config file found; built-in defaults are valid.")
	} else {
		fmt.Printf("Configuration valid: %s\n", resolved)
	}

	if err != nil {
		return 1
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := newFlagSet("show", "Usage: livebridge config show [--config PATH]\nPrint the configuration after defaults and ${VAR} interpolation.")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if cfg.API.Auth.APIKey != "" {
		cfg.API.Auth.APIKey = "********"
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render config: %v\n", err)
		return 1
	}
	fmt.Println(strings.TrimRight(string(data), "\n"))
	return 0
}

func runConfigLock(args []string) int {
	fs := newFlagSet("lock", "Usage: livebridge config lock [--config PATH] [--dry-run] [-v|--verbose]\nRecord the config file's BLAKE3 hash so later loads detect edits.")
	configPath := fs.String("config", "", "Path to configuration file or directory")
	dryRun := fs.Bool("dry-run", false, "Show what would be written without writing")
	verbose := fs.BoolP("verbose", "v", false, "Print the hash")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfig()
		if err != nil || discovered == "" {
			fmt.Fprintln(os.Stderr, "No config file found; pass --config")
			return 1
		}
		*configPath = discovered
	}

	report, err := config.Lock(*configPath, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}

	if *dryRun {
		fmt.Printf("Dry run: would write %s\n", report.ChecksumPath)
	} else {
		fmt.Printf("Locked %s\n", report.ConfigPath)
	}
	if *verbose {
		fmt.Printf("  blake3: %s\n", report.Hash)
	}
	return 0
}

func runSend(args []string) int {
	fs := newFlagSet("send", "Usage: livebridge send [--addr ADDR] [--timeout DUR] [<json>...]\nWith no arguments, one command is read per stdin line.")
	addr := fs.String("addr", config.Defaults().Bridge.Listen, "Bridge address")
	timeout := fs.Duration("timeout", client.DefaultTimeout, "Per-command response timeout")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := client.Dial(ctx, *addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer c.Close()

	send := func(frame string) bool {
		line, err := c.Raw(ctx, []byte(frame))
		if err != nil {
			fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			return false
		}
		fmt.Println(string(line))
		return true
	}

	if fs.NArg() > 0 {
		for _, frame := range fs.Args() {
			if !send(frame) {
				return 1
			}
		}
		return 0
	}

	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), config.Defaults().Bridge.MaxFrameBytes)
	for sc.Scan() {
		frame := strings.TrimSpace(sc.Text())
		if frame == "" {
			continue
		}
		if !send(frame) {
			return 1
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read stdin: %v\n", err)
		return 1
	}
	return 0
}

func runMonitor(args []string) int {
	fs := newFlagSet("monitor", "Usage: livebridge monitor [--api URL] [--api-key KEY]\nLive view of bridge health, recent commands and events.\n\nKeys: q quit, up/down scroll commands.")
	apiURL := fs.String("api", "http://"+config.Defaults().API.Listen, "Ops API base URL")
	apiKey := fs.String("api-key", os.Getenv("LIVEBRIDGE_API_KEY"), "API bearer token (or LIVEBRIDGE_API_KEY)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	m := watch.New(strings.TrimRight(*apiURL, "/"), *apiKey)
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		return 1
	}
	return 0
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := newFlagSet("version", "Usage: livebridge version [--json]")
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: livebridge version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("livebridge %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = readBuildSetting("vcs.revision")
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = readBuildSetting("vcs.time")
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return strings.TrimSpace(setting.Value)
		}
	}
	return ""
}
