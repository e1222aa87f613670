package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vfsterm/internal/config"
	"vfsterm/internal/loader"
	"vfsterm/internal/logging"
	"vfsterm/internal/metrics"
	"vfsterm/internal/mount"
	"vfsterm/internal/shell"
	"vfsterm/internal/terminal"
	"vfsterm/internal/vfs"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"
)

var (
	logger = logging.GetLogger()
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "vfsterm",
		Usage: "VFS terminal emulator",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to YAML or JSON config file"},
			&cli.StringFlag{Name: "vfs-path", Usage: "Path to CSV VFS file"},
			&cli.StringFlag{Name: "start-script", Usage: "Path to start script"},
			&cli.StringFlag{Name: "name", Usage: "Shell name shown in the prompt"},
			&cli.StringFlag{Name: "load-policy", Usage: "strict or best-effort"},
			&cli.BoolFlag{Name: "no-interactive", Usage: "Run without interactive shell"},
			&cli.StringFlag{Name: "log-level", Usage: "error, warn, info, debug or trace"},
			&cli.BoolFlag{Name: "verbose", Usage: "Enable verbose logging"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "Serve Prometheus metrics on this address"},
			&cli.StringFlag{Name: "mount", Usage: "Mount the tree read-only here after the shell exits"},
		},
		Action: run,
	}
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"vfs-path":     &cfg.VFSPath,
		"start-script": &cfg.StartScript,
		"name":         &cfg.Name,
		"load-policy":  &cfg.LoadPolicy,
		"log-level":    &cfg.LogLevel,
		"metrics-addr": &cfg.MetricsAddr,
		"mount":        &cfg.MountPoint,
	}
	for flag, field := range overrides {
		if c.IsSet(flag) {
			*field = c.String(flag)
		}
	}
	if c.Bool("verbose") && !c.IsSet("log-level") {
		cfg.LogLevel = logging.LevelDebug.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.Level())
	}
	defer logger.Sync()

	logger.Info("Starting vfsterm...")
	logger.Debug("VFS path: %q, start script: %q", cfg.VFSPath, cfg.StartScript)

	tree, err := loadTree(cfg)
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	if cfg.MetricsAddr != "" {
		recorder = metrics.NewRecorder()
		srv := serveMetrics(cfg.MetricsAddr, recorder)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("Metrics server shutdown: %v", err)
			}
		}()
	}

	sh := shell.New(tree, shell.WithName(cfg.ShellName()), shell.WithRecorder(recorder))
	emulator := &terminal.Emulator{Shell: sh, Out: c.App.Writer, Err: c.App.ErrWriter}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	err = emulator.Start(ctx, cfg.StartScript, !c.Bool("no-interactive"))
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Input error: %v", err)
	}

	if cfg.MountPoint != "" {
		return serveMount(c.Context, tree, cfg.MountPoint)
	}
	return nil
}

// loadTree loads the configured CSV, or returns an empty tree when none is
// configured. Under the best-effort policy rejected records are logged.
func loadTree(cfg *config.Config) (*vfs.Tree, error) {
	if cfg.VFSPath == "" {
		return vfs.NewTree(), nil
	}

	tree, err := loader.LoadFile(cfg.VFSPath, cfg.Policy())
	if tree == nil {
		return nil, err
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			logger.Warn("%v", e)
		}
	}
	return tree, nil
}

func serveMetrics(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("Serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// serveMount mounts tree read-only and blocks until SIGINT or SIGTERM or
// until the filesystem is unmounted externally.
func serveMount(parent context.Context, tree *vfs.Tree, mountPoint string) error {
	cleanMount := filepath.Clean(mountPoint)
	fsys := mount.New(tree)

	logger.Info("Mounting filesystem...")
	if err := fsys.Mount(cleanMount); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Filesystem mounted and ready")
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
		if err := fsys.Unmount(cleanMount); err != nil {
			return err
		}
		<-fsys.Done()
	case err := <-fsys.Done():
		if err != nil {
			return err
		}
	}

	logger.Info("Clean shutdown complete")
	return nil
}
