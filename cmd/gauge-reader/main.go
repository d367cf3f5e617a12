package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/gauge-reader/internal/config"
	"github.com/ironsheep/gauge-reader/internal/gauge"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Logs go to stderr; stdout carries readings and the MCP protocol.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cmd, args := "help", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cmd, args)
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		printHelp(os.Stderr)
		os.Exit(2)
	default:
		log.Printf("%s: %v", cmd, err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage error")

func run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "read":
		return runRead(ctx, args, os.Stdout)
	case "watch":
		return runWatch(ctx, args)
	case "serve":
		return runServe(ctx, args)
	case "--version", "-v", "version":
		printVersion(os.Stdout)
		return nil
	case "--help", "-h", "help":
		printHelp(os.Stdout)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "gauge-reader %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "gauge-reader - read an analogue dial gauge from camera captures")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: gauge-reader <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  read FILE...     Read captures and print one JSON reading per line")
	fmt.Fprintln(w, "  watch            Watch the capture directory and process new captures")
	fmt.Fprintln(w, "  serve            Run the MCP server over stdin/stdout")
	fmt.Fprintln(w, "  version          Print version information")
	fmt.Fprintln(w, "  help             Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  -config FILE     YAML configuration (default $GAUGE_CONFIG)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  GAUGE_CONFIG=path              Configuration file")
	fmt.Fprintln(w, "  GAUGE_LOG_LEVEL=debug          Enable debug logging")
	fmt.Fprintln(w, "  GAUGE_MQTT_BROKER=url          Enable MQTT publishing")
	fmt.Fprintln(w, "  GAUGE_MINIO_ACCESS_KEY=key     MinIO credentials")
	fmt.Fprintln(w, "  GAUGE_MINIO_SECRET_KEY=secret")
}

// newFlagSet returns a flag set for cmd with the shared -config option.
func newFlagSet(cmd string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "YAML configuration file (default $GAUGE_CONFIG)")
	return fs, path
}

// loadConfig loads the configuration and builds its profile.
func loadConfig(flagValue string) (config.Config, gauge.Profile, error) {
	cfg, err := config.Load(config.Path(flagValue))
	if err != nil {
		return config.Config{}, gauge.Profile{}, err
	}
	profile, err := cfg.BuildProfile()
	if err != nil {
		return config.Config{}, gauge.Profile{}, err
	}
	if cfg.Debug() {
		log.Printf("gauge-reader %s (built %s, commit %s)", Version, BuildTime, GitCommit)
		log.Printf("profile %q: %dx%d, %d control points, out of range: %s",
			profile.Name, profile.Width, profile.Height, len(profile.ControlPoints), profile.OutOfRange)
	}
	return cfg, profile, nil
}
