package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/config"
	"github.com/dooshek/cablespeak/internal/console"
	"github.com/dooshek/cablespeak/internal/dbus"
	"github.com/dooshek/cablespeak/internal/device"
	"github.com/dooshek/cablespeak/internal/fileops"
	"github.com/dooshek/cablespeak/internal/keyboard"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/notification"
	"github.com/dooshek/cablespeak/internal/secret"
	"github.com/dooshek/cablespeak/internal/session"
	"github.com/dooshek/cablespeak/internal/stats"
	"github.com/dooshek/cablespeak/internal/tts"
	"github.com/dooshek/cablespeak/internal/types"
	"github.com/dooshek/cablespeak/internal/voices"
)

func init() {
	// Set custom usage message to show -- prefix
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintf(out, "Usage of %s:\n", os.Args[0])
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(out, "  --%s", f.Name)
			name, usage := flag.UnquoteUsage(f)
			if len(name) > 0 {
				fmt.Fprintf(out, " %s", name)
			}
			fmt.Fprintf(out, "\n    \t%s", usage)
			if f.DefValue != "" && f.DefValue != "false" {
				fmt.Fprintf(out, " (default %q)", f.DefValue)
			}
			fmt.Fprintf(out, "\n")
		})
	}
}

func main() {
	runWizard := flag.Bool("wizard", false, "Run the configuration wizard")
	logLevel := flag.String("log-level", "info", "Set log level (debug|info|warn|error)")
	logFilename := flag.String("log-filename", "", "Log to file instead of stdout")
	enableDBus := flag.Bool("dbus", false, "Expose the player on the D-Bus session bus")
	deviceName := flag.String("device", "", "Output device name substring (overrides config)")
	voiceRef := flag.String("voice", "", "Voice label, number or model id (overrides config)")
	listDevices := flag.Bool("list-devices", false, "List playback devices and exit")
	flag.Parse()

	logger.SetLevel(*logLevel)
	if *logFilename != "" {
		if err := logger.SetOutputFile(*logFilename); err != nil {
			fmt.Printf("Error setting log file: %v\n", err)
			os.Exit(1)
		}
		defer logger.CloseLogFile()
	}

	// the backend is optional for the wizard but required for playback
	backend, backendErr := device.NewBackend()
	if backendErr != nil {
		logger.Warnf("Audio backend unavailable: %v", backendErr)
	} else {
		defer backend.Close()
	}

	if *listDevices {
		if backendErr != nil {
			os.Exit(1)
		}
		if err := printDevices(backend); err != nil {
			logger.Error("Failed to list playback devices", err)
			os.Exit(1)
		}
		return
	}

	if *runWizard {
		if err := config.RunWizard(lister(backend)); err != nil {
			logger.Error("Error running wizard", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Error loading config", err)
		os.Exit(1)
	}
	if cfg == nil {
		logger.Info("No configuration found. Running setup wizard...")
		if err := config.RunWizard(lister(backend)); err != nil {
			logger.Error("Error running wizard", err)
			os.Exit(1)
		}
		if cfg, err = config.LoadConfig(); err != nil || cfg == nil {
			logger.Error("Error loading config after wizard", err)
			os.Exit(1)
		}
	}

	if backendErr != nil {
		logger.Error("Cannot play audio without an audio backend", backendErr)
		os.Exit(1)
	}

	if err := run(cfg, backend, options{
		dbus:   *enableDBus || cfg.DBus.Enabled,
		device: *deviceName,
		voice:  *voiceRef,
	}); err != nil {
		logger.Error("CableSpeak stopped with an error", err)
		os.Exit(1)
	}
}

type options struct {
	dbus   bool
	device string
	voice  string
}

func run(cfg *types.Config, backend *device.Backend, opts options) error {
	ttsConfig := cfg.GetTTSConfig()
	audioConfig := cfg.GetAudioConfig()
	if opts.device != "" {
		audioConfig.Device = opts.device
	}

	apiKey, err := secret.Require(secret.Default(cfg), secret.KeyForProvider(ttsConfig.Provider))
	if err != nil {
		return err
	}

	synth, err := tts.NewSynthesizer(ttsConfig, apiKey)
	if err != nil {
		return err
	}

	catalog, err := voices.ForProvider(ttsConfig.Provider, ttsConfig.Voice)
	if err != nil {
		return fmt.Errorf("invalid voice in config: %w", err)
	}
	if opts.voice != "" {
		v, err := catalog.Resolve(opts.voice)
		if err != nil {
			return err
		}
		if catalog, err = voices.ForProvider(ttsConfig.Provider, v.Label); err != nil {
			return err
		}
	}

	if err := audio.CheckFFmpegInstalled(); err != nil {
		logger.Warnf("%v: only WAV files can be played", err)
	}

	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	if err := fileOps.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create necessary directories: %w", err)
	}

	if err := fileOps.CheckPID(); err != nil {
		if errors.Is(err, fileops.ErrProcessAlreadyRunning) {
			return fmt.Errorf("another instance of CableSpeak is already running: %w", err)
		}
		logger.Warnf("PID check failed: %v", err)
	}
	if err := fileOps.SavePID(); err != nil {
		return fmt.Errorf("failed to save PID file: %w", err)
	}
	defer fileOps.HandleExit()

	engineLog := logger.With("engine")
	engine := audio.NewEngine(audio.NewAutoDecoder(), backend, audio.WithObserver(func(p audio.Progress) {
		if p.Chunk%50 == 0 || p.Chunk == p.Total {
			engineLog.Debug().Int("chunk", p.Chunk).Int("total", p.Total).Float64("level", p.Level).Msg("playback progress")
		}
	}))

	statsManager := stats.NewStatsManager(fileOps.GetStatsPath())
	notifier := notification.New()
	shell := console.New(os.Stdin, os.Stdout)

	listeners := session.Listeners{shell, notifier}
	var dbusServer *dbus.Server
	if opts.dbus {
		dbusServer = dbus.NewServer(statsManager)
		listeners = append(listeners, dbusServer)
	}

	orch, err := session.New(session.Config{
		Synthesizer: synth,
		Voices:      catalog,
		Resolver:    audio.NewResolver(backend),
		Player:      engine,
		Files:       fileOps,
		DeviceName:  audioConfig.Device,
		Stats:       statsManager,
		Listener:    listeners,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	if dbusServer != nil {
		dbusServer.Attach(orch)
		if err := dbusServer.Start(); err != nil {
			logger.Warnf("D-Bus service not started: %v", err)
			dbusServer = nil
		} else {
			defer dbusServer.Stop()
		}
	}

	shell.Attach(orch, backend)

	logger.Infof("🔊 Using %s, voice %q, device %q", synth.Name(), catalog.Default().Label, audioConfig.Device)
	if err := notifier.Notify("🔊 CableSpeak started", "Output: "+audioConfig.Device); err != nil {
		logger.Warn("Could not send notification")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if hotkey := cfg.GetHotkeyConfig(); hotkey.Enabled {
		startHotkey(ctx, hotkey.Stop, orch)
	}

	err = shell.Run(ctx)
	if errors.Is(err, io.EOF) {
		err = nil
		if dbusServer != nil {
			logger.Info("Console input closed, serving D-Bus until interrupted")
			<-ctx.Done()
		}
	}
	logger.Info("Shutting down...")
	return err
}

func startHotkey(ctx context.Context, binding types.KeyBinding, orch *session.Orchestrator) {
	monitor, err := keyboard.NewMonitor(binding, func() {
		if err := orch.StopSpeaking(); err != nil {
			logger.Warnf("Stop from hotkey failed: %v", err)
		}
	})
	if err != nil {
		logger.Warnf("Invalid stop hotkey: %v", err)
		return
	}
	go func() {
		if err := monitor.Start(ctx); err != nil {
			logger.Warnf("Stop hotkey disabled: %v", err)
		}
	}()
}

func printDevices(backend *device.Backend) error {
	devices, err := backend.PlaybackDevices()
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No playback devices found")
		return nil
	}
	for _, d := range devices {
		fmt.Println(d)
	}
	return nil
}

// lister keeps a nil backend from becoming a non-nil interface
func lister(backend *device.Backend) config.DeviceLister {
	if backend == nil {
		return nil
	}
	return backend
}
