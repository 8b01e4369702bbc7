package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockbird/mockbird/pkg/cli/internal/output"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/server"
	"github.com/mockbird/mockbird/pkg/stub"
)

// shutdownTimeout is the maximum time to wait for graceful shutdown.
const shutdownTimeout = 30 * time.Second

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

type serveFlags struct {
	host         string
	port         int
	adminPrefix  string
	configFile   string
	stubPaths    []string
	logLevel     string
	logFormat    string
	logFile      string
	journalSize  int
	maxBodySize  int
	readTimeout  int
	writeTimeout int
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a mock server in the foreground",
	Long: `Start a mock server and block until interrupted.

Configuration is resolved in order: built-in defaults, then the server
config file (--config, or a mockbird.yaml/mockbird.json in the working
directory), then command line flags. Stub collections named by --stubs
or by the config file's stubFiles key are registered before the listener
opens, so the first request already sees them.`,
	Example: `  # Start with defaults on port 4280
  mockbird serve

  # Custom port, stubs loaded at boot
  mockbird serve --port 3000 --stubs ./stubs

  # Several stub sources: a file, a directory, and a glob
  mockbird serve --stubs api.yaml --stubs ./fixtures --stubs 'mocks/**/*.json'

  # JSON logs, also written to a rotated file
  mockbird serve --log-format json --log-file /var/log/mockbird.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd, &serveFlagVals)
}

func registerServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVar(&f.host, "host", "", "Interface to bind (default all interfaces)")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP listen port (0 = random free port)")
	cmd.Flags().StringVar(&f.adminPrefix, "admin-prefix", config.DefaultAdminPrefix, "Path prefix the control API is mounted under")
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to server config file (YAML or JSON)")
	cmd.Flags().StringArrayVar(&f.stubPaths, "stubs", nil, "Stub collection file, directory, or glob (repeatable)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file, with rotation")
	cmd.Flags().IntVar(&f.journalSize, "journal-size", 0, "Request journal capacity (0 = default)")
	cmd.Flags().IntVar(&f.maxBodySize, "max-body-size", 0, "Largest request body read for matching, in bytes (0 = default)")
	cmd.Flags().IntVar(&f.readTimeout, "read-timeout", 0, "HTTP read timeout in seconds (0 = default)")
	cmd.Flags().IntVar(&f.writeTimeout, "write-timeout", 0, "HTTP write timeout in seconds (0 = default)")
}

func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, baseDir, err := buildServerConfig(cmd, f)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		File:   fileSink(cfg.LogFile),
	})

	stubs, err := config.LoadStubFiles(cfg.StubFiles, baseDir)
	if err != nil {
		return err
	}

	srv, err := server.NewWithStubs(cfg, stubs, server.WithLogger(log))
	if err != nil {
		return fmt.Errorf("loading stubs: %w", err)
	}
	if err := srv.Start(); err != nil {
		return err
	}

	printBanner(srv, cfg, stubs)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		output.Warn("server shutdown error: %v", err)
	}
	return nil
}

// buildServerConfig layers defaults, the config file, and changed flags.
// The returned base directory is where relative stub paths resolve from:
// the config file's directory when one was loaded, else the working
// directory.
func buildServerConfig(cmd *cobra.Command, f *serveFlags) (*config.ServerConfig, string, error) {
	cfg := config.DefaultServerConfig()

	path := f.configFile
	if path == "" {
		// An absent config file is fine; an unreadable named one is not.
		if discovered, err := config.DiscoverConfigFile(); err == nil {
			path = discovered
		}
	}
	baseDir := ""
	if path != "" {
		loaded, err := config.LoadServerConfig(path)
		if err != nil {
			return nil, "", fmt.Errorf("loading config %s: %w", path, err)
		}
		cfg = loaded
		baseDir = filepath.Dir(path)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = f.host
	}
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("admin-prefix") {
		cfg.AdminPrefix = f.adminPrefix
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if flags.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if flags.Changed("journal-size") {
		cfg.JournalCapacity = f.journalSize
	}
	if flags.Changed("max-body-size") {
		cfg.MaxBodySize = f.maxBodySize
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = f.readTimeout
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = f.writeTimeout
	}
	// Flag paths are relative to the working directory, not the config
	// file, so anchor them before they share a base dir with stubFiles.
	for _, p := range f.stubPaths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		cfg.StubFiles = append(cfg.StubFiles, p)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, baseDir, nil
}

func fileSink(path string) *logging.FileConfig {
	if path == "" {
		return nil
	}
	return &logging.FileConfig{Path: path}
}

func printBanner(srv *server.Server, cfg *config.ServerConfig, stubs []*stub.Stub) {
	col := colors()
	if len(stubs) > 0 {
		fmt.Printf("Loaded %d stubs from %d sources\n", len(stubs), len(cfg.StubFiles))
	}
	fmt.Printf("Mock server running on %s\n", col.Accent("%s", srv.URL()))
	fmt.Printf("Control API mounted at %s%s\n", srv.URL(), cfg.AdminPrefix)
	fmt.Println("Press Ctrl+C to stop")
}
