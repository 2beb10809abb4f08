package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/vedantwpatil/Path-Pilot/internal/capture"
	"github.com/vedantwpatil/Path-Pilot/internal/config"
	"github.com/vedantwpatil/Path-Pilot/internal/control"
	"github.com/vedantwpatil/Path-Pilot/internal/hotkeys"
	"github.com/vedantwpatil/Path-Pilot/internal/input"
	"github.com/vedantwpatil/Path-Pilot/internal/memory"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
	"github.com/vedantwpatil/Path-Pilot/internal/playback"
	"github.com/vedantwpatil/Path-Pilot/internal/recording"
	"github.com/vedantwpatil/Path-Pilot/internal/store"
)

func main() {
	configPath := flag.String("config", filepath.Join("config", "config.yaml"), "configuration file")
	backend := flag.String("store", "file", "path storage backend: file or sqlite")
	flag.Parse()

	if err := run(*configPath, *backend); err != nil {
		fmt.Fprintf(os.Stderr, "pathpilot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, backend string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := newLogger(cfg.LogLevel)

	st, err := openStore(backend, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	source, err := attachSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	keyboard := input.NewKeyboard(cfg.Keys, log)
	engine := playback.New(source, keyboard, st, log, playback.Options{
		Delay:        cfg.DelayBetween(),
		StallTimeout: cfg.StallTimeout(),
		Settle:       cfg.Settle(),
		KeyHold:      cfg.KeyHold(),
		ClickDelay:   cfg.ClickDelay(),
		MaxRetries:   cfg.MaxRetries,
		OnFailure: func(sum playback.Summary) {
			file, err := capture.Snapshot(cfg.StatesDir, sum.PathName)
			if err != nil {
				log.Warn("failure snapshot not saved", "error", err)
				return
			}
			log.Info("failure snapshot saved", "file", file)
		},
	})
	recorder := recording.New(source, log)
	ctrl := control.New(recorder, engine, st, recording.Options{
		Interval:      cfg.RecordEvery(),
		IncludeZ:      cfg.IncludeZ,
		RecordMouse:   cfg.RecordMouse,
		ClickDebounce: cfg.ClickDebounce(),
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := hotkeys.New(hotkeys.Bindings{
		StartStop:   cfg.Hotkeys.StartStop,
		PauseResume: cfg.Hotkeys.PauseResume,
		ToggleMouse: cfg.Hotkeys.ToggleMouse,
	}, log)
	go dispatcher.Run()
	defer dispatcher.Close()
	go func() {
		for sig := range dispatcher.Signals() {
			ctrl.HandleSignal(ctx, sig)
		}
	}()

	// Ctrl+C stops whatever is active; a second one exits.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			fmt.Printf("\nReceived signal: %v\n", sig)
			if recorder.Recording() {
				if _, err := ctrl.StopRecording(ctx); err != nil {
					log.Error("stop recording", "error", err)
				}
				continue
			}
			if engine.State() == playback.StateRunning || engine.State() == playback.StatePaused {
				if err := engine.Stop(); err != nil {
					log.Error("stop playback", "error", err)
				}
				continue
			}
			fmt.Println("Exiting application...")
			cancel()
			os.Exit(0)
		}
	}()

	menu(ctx, cfg, ctrl, engine, recorder, st)
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func openStore(backend string, cfg *config.Config) (store.Store, error) {
	switch backend {
	case "file":
		return store.NewFileStore(cfg.PathsDir, cfg.StatesDir)
	case "sqlite":
		if err := os.MkdirAll(cfg.PathsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", cfg.PathsDir, err)
		}
		return store.NewSQLiteStore(context.Background(), filepath.Join(cfg.PathsDir, "paths.db"))
	default:
		return nil, fmt.Errorf("unknown store backend %q (want file or sqlite)", backend)
	}
}

func attachSource(cfg *config.Config) (memory.Source, error) {
	addrs := memory.Addresses{
		X: cfg.Addresses["x"].Base,
		Y: cfg.Addresses["y"].Base,
		Z: cfg.Addresses["z"].Base,
	}
	if addrs.X == 0 || addrs.Y == 0 {
		return nil, fmt.Errorf("x and y memory addresses must be configured")
	}
	return memory.Attach(cfg.ModuleName, addrs, cfg.IncludeZ)
}

func menu(ctx context.Context, cfg *config.Config, ctrl *control.Controller, engine *playback.Engine, recorder *recording.Recorder, st store.Store) {
	in := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("1. Record a new path")
		fmt.Println("2. Play a path")
		fmt.Println("3. List paths")
		fmt.Println("4. Rename a path")
		fmt.Println("5. Delete a path")
		fmt.Println("6. Exit")
		fmt.Print("Choose an option: ")

		var choice int
		fmt.Scanln(&choice)

		switch choice {
		case 1:
			fmt.Print("Path name: ")
			name := readLine(in)
			if name == "" {
				fmt.Println("A path needs a name")
				continue
			}
			if err := ctrl.Record(name); err != nil {
				fmt.Printf("Cannot record: %v\n", err)
				continue
			}
			fmt.Printf("Recording %q... press %s (or Ctrl+C) to stop and save.\n",
				name, strings.ToUpper(cfg.Hotkeys.StartStop))

		case 2:
			name := choosePath(ctx, in, st)
			if name == "" {
				continue
			}
			resume := offerResume(ctx, in, ctrl, name)
			if err := ctrl.Play(ctx, name, resume); err != nil {
				fmt.Printf("Cannot play: %v\n", err)
				continue
			}
			fmt.Printf("Playing %q... %s pauses, %s stops.\n",
				name, strings.ToUpper(cfg.Hotkeys.PauseResume), strings.ToUpper(cfg.Hotkeys.StartStop))
			go reportRun(engine)

		case 3:
			listPaths(ctx, st)

		case 4:
			name := choosePath(ctx, in, st)
			if name == "" {
				continue
			}
			fmt.Print("New name: ")
			newName := readLine(in)
			if newName == "" {
				fmt.Println("A path needs a name")
				continue
			}
			if err := st.RenamePath(ctx, name, newName); err != nil {
				fmt.Printf("Rename failed: %v\n", err)
				continue
			}
			fmt.Printf("Renamed %q to %q\n", name, newName)

		case 5:
			name := choosePath(ctx, in, st)
			if name == "" {
				continue
			}
			if err := st.DeletePath(ctx, name); err != nil {
				fmt.Printf("Delete failed: %v\n", err)
				continue
			}
			fmt.Printf("Deleted %q\n", name)

		case 6:
			if recorder.Recording() {
				if _, err := ctrl.StopRecording(ctx); err != nil {
					fmt.Printf("Stop recording: %v\n", err)
				}
			}
			if engine.State() == playback.StateRunning || engine.State() == playback.StatePaused {
				engine.Stop()
				<-engine.Done()
			}
			fmt.Println("Exiting...")
			return

		default:
			fmt.Println("Invalid option")
		}
	}
}

func readLine(in *bufio.Scanner) string {
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func listPaths(ctx context.Context, st store.Store) {
	infos, err := st.ListPaths(ctx)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return
	}
	if len(infos) == 0 {
		fmt.Println("No paths recorded yet")
		return
	}
	for i, info := range infos {
		fmt.Printf("%d. %s (%d waypoints, %d clicks, saved %s)\n",
			i+1, info.Name, info.Moves, info.Clicks, info.Modified.Format("2006-01-02 15:04"))
	}
}

func choosePath(ctx context.Context, in *bufio.Scanner, st store.Store) string {
	infos, err := st.ListPaths(ctx)
	if err != nil {
		fmt.Printf("List failed: %v\n", err)
		return ""
	}
	if len(infos) == 0 {
		fmt.Println("No paths recorded yet")
		return ""
	}
	listPaths(ctx, st)
	fmt.Print("Choose a path: ")
	var n int
	fmt.Scanln(&n)
	if n < 1 || n > len(infos) {
		fmt.Println("Invalid path number")
		return ""
	}
	return infos[n-1].Name
}

func offerResume(ctx context.Context, in *bufio.Scanner, ctrl *control.Controller, name string) *path.PauseState {
	resume, err := ctrl.PauseStateFor(ctx, name)
	if err != nil {
		fmt.Printf("Pause state unreadable, starting fresh: %v\n", err)
		return nil
	}
	if resume == nil {
		return nil
	}
	fmt.Printf("Found a checkpoint at waypoint %d from %s. Resume? [y/N]: ",
		resume.Index, resume.SavedAt.Format("2006-01-02 15:04:05"))
	if answer := strings.ToLower(readLine(in)); answer == "y" || answer == "yes" {
		return resume
	}
	return nil
}

func reportRun(engine *playback.Engine) {
	<-engine.Done()
	sum := engine.Summary()
	switch sum.State {
	case playback.StateCompleted:
		fmt.Printf("\nRun %s completed: %d waypoints, %d clicks, %d presses in %s. Final position %s.\n",
			sum.RunID, sum.Waypoints, sum.Clicks, sum.Presses, sum.Elapsed.Round(time.Millisecond), sum.LastPos)
	case playback.StateStopped:
		fmt.Printf("\nRun %s stopped at event %d of %d.\n", sum.RunID, sum.Index, sum.Total)
	case playback.StateFailed:
		fmt.Printf("\nRun %s FAILED at event %d of %d: %v\n", sum.RunID, sum.Index, sum.Total, sum.Err)
	}
}
