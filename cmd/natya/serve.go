package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/config"
	"github.com/ayusman/natya/internal/detect"
	"github.com/ayusman/natya/internal/game"
	"github.com/ayusman/natya/internal/mode"
	"github.com/ayusman/natya/internal/perf"
	"github.com/ayusman/natya/internal/pose"
	"github.com/ayusman/natya/internal/score"
	"github.com/ayusman/natya/internal/server"
	"github.com/ayusman/natya/internal/store"
	"github.com/ayusman/natya/internal/track"
	"github.com/ayusman/natya/internal/tray"
)

var serveNoTray bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine: HTTP server, game loop, and system tray",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoTray, "no-tray", false, "run without the system tray (headless)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}

	st, err := store.New(filepath.Join(dataDir, "natya.db"))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	library := track.NewLibrary()
	tracksDir := cfg.ResolveTracksDir(dataDir)
	if _, err := os.Stat(tracksDir); err == nil {
		if err := library.LoadDir(tracksDir); err != nil {
			return fmt.Errorf("load tracks: %w", err)
		}
	} else {
		logrus.WithField("dir", tracksDir).Warn("tracks directory missing, starting with an empty library")
	}

	manager := mode.NewManager(st.Prefs(), mode.HostProbe{})

	optimizer := perf.NewOptimizer(cfg.Performance.MinFPS, cfg.Performance.MaxFPS)
	optimizer.SetHeapLimitMB(cfg.Performance.HeapLimitMB)

	adapter := pose.NewSubprocessAdapter(pose.Config{
		AccelerationHint: cfg.Detection.Acceleration,
		IdleShutdown:     30 * time.Second,
	})

	orch := detect.NewOrchestrator(detect.Config{
		ModelPath:        cfg.Detection.ModelPath,
		AccelerationHint: cfg.Detection.Acceleration,
		InferTimeout:     time.Duration(cfg.Detection.InferTimeoutMs) * time.Millisecond,
	}, manager, adapter, library, optimizer)

	var override mode.Mode
	if cfg.Detection.Mode != "" {
		override, err = mode.Parse(cfg.Detection.Mode)
		if err != nil {
			return err
		}
	}
	if err := orch.Initialize(override); err != nil {
		return fmt.Errorf("initialize detection: %w", err)
	}
	defer orch.Close()

	camera := capture.NewCamera(cfg.Camera.Device, cfg.Camera.Mirror)

	g := game.New(game.Config{
		ScoreThreshold:  cfg.Game.ScoreThreshold,
		MotionThreshold: cfg.Game.MotionThreshold,
	}, camera, orch, library, optimizer, st.Sessions())
	defer g.Close()

	srv := server.New(server.Config{
		StaticDir:    cfg.Server.StaticDir,
		Store:        st,
		Library:      library,
		Game:         g,
		Orchestrator: orch,
		Camera:       camera,
	})

	logrus.WithFields(logrus.Fields{
		"addr":   cfg.Server.Addr,
		"mode":   orch.EffectiveMode(),
		"tracks": len(library.Summaries()),
	}).Info("natya engine starting")

	if serveNoTray {
		return srv.ListenAndServe(cfg.Server.Addr)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	tr := tray.New()
	tr.SetMode(string(orch.EffectiveMode()))
	g.OnResult(func(res *score.Result) {
		tr.SetLastScore(res.Final)
	})
	tr.OnOpenUI(func() {
		logrus.WithField("url", "http://"+cfg.Server.Addr).Info("open the game UI in a browser")
	})
	tr.OnQuit(func() {
		g.Close()
	})

	// systray.Run must own the main thread; the server error, if any,
	// surfaces after the tray exits.
	tr.Run()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
