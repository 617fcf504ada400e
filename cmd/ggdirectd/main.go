// Command ggdirectd is the GGDirect compositor process: it wires the
// kernel display adapter, GPU context, session manager, client listener,
// input pipeline, and render loop described by spec.md §5, and runs them
// as the four cooperating threads that section names (main, listener,
// input, render).
//
// Usage: ggdirectd [-drm-device /dev/dri/card0] [-config /path/config.json]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ggdirect/compositor/pkg/config"
	"github.com/ggdirect/compositor/pkg/glyph"
	"github.com/ggdirect/compositor/pkg/gpucontext"
	"github.com/ggdirect/compositor/pkg/input"
	"github.com/ggdirect/compositor/pkg/kms"
	"github.com/ggdirect/compositor/pkg/listener"
	"github.com/ggdirect/compositor/pkg/render"
	"github.com/ggdirect/compositor/pkg/session"
)

// shutdownGrace is how long threads get to observe the shutdown flag at
// their suspension points before the process exits anyway (spec.md §5
// "Cancellation", "A grace period of 200 ms").
const shutdownGrace = 200 * time.Millisecond

var (
	configPath = flag.String("config", "", "path to config.json (overrides the default search path)")
	drmDevice  = flag.String("drm-device", "", "DRM device path (overrides GGDIRECT_DRM_DEVICE / headless fallback)")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error (overrides GGDIRECT_LOG_LEVEL)")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run performs startup, blocks until shutdown, and returns the process
// exit code (spec.md §6: "0 on clean shutdown; non-zero if initialization
// fails before the event loop starts").
func run() int {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ggdirectd: %v\n", err)
		return 1
	}
	level := env.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(level)}))

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		return 1
	}

	devicePath := env.DRMDevice
	if *drmDevice != "" {
		devicePath = *drmDevice
	}
	adapter, controller, mode := openDisplay(logger, devicePath)

	gctx, err := gpucontext.Initialize(logger, adapter, mode)
	if err != nil {
		logger.Error("failed to initialize gpu context", "err", err)
		_ = adapter.Close()
		return 1
	}

	registry := config.NewRegistry()
	if errs := registry.LoadBinds(cfg.Keybinds.FocusManagement, cfg.Keybinds.WindowManagement, cfg.Keybinds.CustomBinds); len(errs) > 0 {
		for _, e := range errs {
			logger.Warn("invalid keybind in config", "err", e)
		}
	}

	manager := session.NewManager()
	fonts := glyph.NewCache(glyph.NewDefaultSource())

	primaryDisplay := listener.PrimaryDisplay{ID: 1, Width: mode.Width, Height: mode.Height}
	lst, err := listener.New(logger, manager, env.RendezvousPath, func() listener.PrimaryDisplay { return primaryDisplay })
	if err != nil {
		logger.Error("failed to start listener", "err", err)
		_ = gctx.Cleanup()
		_ = adapter.Close()
		return 1
	}

	pipeline := input.New(logger, registry, manager, input.DefaultDeviceDir, func() (int, int) { return mode.Width, mode.Height })
	renderLoop := render.New(logger, adapter, controller, gctx, manager, &cfg.Display, fonts)

	var g errgroup.Group
	g.Go(func() error { lst.Run(); return nil })
	g.Go(func() error { pipeline.Run(); return nil })
	g.Go(func() error { renderLoop.Run(); return nil })

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutdown signal received")

	lst.Shutdown()
	pipeline.Shutdown()
	renderLoop.Shutdown()

	done := make(chan struct{})
	go func() { _ = g.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		logger.Warn("threads did not observe shutdown within grace period; exiting anyway")
	}

	_ = lst.Close()
	_ = adapter.Close()
	logger.Info("ggdirectd exited cleanly")
	return 0
}

func loadConfig() (config.Config, error) {
	if *configPath == "" {
		return config.Load()
	}
	data, err := os.ReadFile(*configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config %s: %w", *configPath, err)
	}
	return config.Parse(data)
}

// openDisplay opens the DRM device at path, falling back to the headless
// adapter on any discovery failure (spec.md §4.1 "Device discovery
// failure"), and mode-sets the first usable connector/controller pair it
// finds.
func openDisplay(logger *slog.Logger, path string) (kms.Adapter, *kms.Controller, kms.Mode) {
	adapter, err := kms.Open(logger, path)
	if err != nil {
		logger.Warn("drm device open failed, falling back to headless", "path", path, "err", err)
		adapter = kms.NewHeadlessAdapter(logger, 0, 0)
	}

	for _, connector := range adapter.Connectors() {
		if !connector.Usable() {
			continue
		}
		mode, ok := connector.PreferredModeOrFirst()
		if !ok {
			continue
		}
		controller := controllerFor(adapter, connector)
		if controller == nil {
			continue
		}
		if err := adapter.SetMode(connector, controller, mode); err != nil {
			logger.Warn("mode-set failed, trying next connector", "connector", connector.ID, "err", err)
			continue
		}
		return adapter, controller, mode
	}

	logger.Warn("no usable connector found on adapter, falling back to headless")
	_ = adapter.Close()
	headless := kms.NewHeadlessAdapter(logger, 0, 0)
	controller := headless.Controllers()[0]
	mode := controller.CurrentMode
	return headless, controller, mode
}

// controllerFor picks the controller whose encoder is reachable from
// connector, falling back to the first controller if none is mapped yet
// (mirrors spec.md §4.1 step 2's connector/encoder/controller graph walk).
func controllerFor(adapter kms.Adapter, connector *kms.Connector) *kms.Controller {
	controllers := adapter.Controllers()
	if len(controllers) == 0 {
		return nil
	}
	for _, enc := range adapter.Encoders() {
		if enc.ID != connector.EncoderID {
			continue
		}
		for _, ctrl := range controllers {
			if ctrl.ID == enc.CurrentControllerID {
				return ctrl
			}
		}
	}
	return controllers[0]
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
