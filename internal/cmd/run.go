package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/offlinefirst/fnsolo/pkg/config"
	"github.com/offlinefirst/fnsolo/pkg/engine"
	"github.com/offlinefirst/fnsolo/pkg/gesture"
	"github.com/offlinefirst/fnsolo/pkg/hotkey"
	"github.com/offlinefirst/fnsolo/pkg/notify"
	"github.com/offlinefirst/fnsolo/pkg/permissions"
	"github.com/offlinefirst/fnsolo/pkg/tap"
)

func newRunCommand() command {
	return command{
		name:        "run",
		description: "Monitor the fn key until interrupted",
		configure: func(fs *flag.FlagSet) {
			fs.Bool("plan-only", false, "Print the resolved configuration without starting the engine")
		},
		run: runEngine,
	}
}

// Extracted for testability.
var (
	newEngine = func(opts engine.Options) (*engine.Engine, error) { return engine.New(opts) }

	notifyContext = func(parent context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	}
)

func runEngine(fs *flag.FlagSet, args []string, ctx *AppContext, stdout io.Writer, stderr io.Writer) error {
	if ctx == nil {
		return fmt.Errorf("application context unavailable")
	}

	cfg := ctx.Config
	planOnly := boolFlag(fs, "plan-only")
	ctx.Logger.Info("run command invoked", "plan_only", planOnly, "config_source", cfg.Source)

	if planOnly {
		printRunPlan(ctx, stdout)
		return nil
	}

	mode, err := tap.ParseMode(cfg.Engine.InterceptMode)
	if err != nil {
		return err
	}

	var notifiers notify.Multi
	if cfg.Notify.LogTriggers {
		notifiers = append(notifiers, &notify.LogNotifier{Logger: ctx.Logger})
	}
	if cfg.Notify.SoundEnabled {
		notifiers = append(notifiers, &notify.SoundNotifier{SoundID: cfg.Notify.SoundID})
	}

	eng, err := newEngine(engine.Options{
		TriggerDelay:    cfg.Engine.TriggerDelay(),
		Mode:            mode,
		ModifierKeycode: cfg.Engine.ModifierKeycode,
		OnTrigger:       func(tr gesture.Trigger) { notifiers.GestureDetected(tr) },
		Logger:          ctx.Logger,
	})
	if err != nil {
		return err
	}

	if err := eng.Start(); err != nil {
		if errors.Is(err, tap.ErrAuthorizationDenied) {
			fmt.Fprintln(stderr, "Accessibility permission is missing.")
			fmt.Fprintln(stderr, "Grant access in System Settings > Privacy & Security > Accessibility, then run again.")
			permissions.NewGate().Request()
		}
		return err
	}
	defer eng.Stop()

	if watcher := startConfigWatcher(ctx, eng); watcher != nil {
		defer watcher.Stop()
	}

	if cfg.Hotkey.Enabled {
		manager, err := hotkey.NewManager(cfg.Hotkey.Toggle, func() {
			if eng.Controller().Toggle() {
				ctx.Logger.Info("trigger delivery paused", "chord", cfg.Hotkey.Toggle)
			} else {
				ctx.Logger.Info("trigger delivery resumed", "chord", cfg.Hotkey.Toggle)
			}
		}, ctx.Logger)
		if err != nil {
			eng.Stop()
			return fmt.Errorf("configure toggle hotkey: %w", err)
		}
		if err := manager.Start(); err != nil {
			ctx.Logger.Warn("toggle hotkey unavailable", "error", err)
		} else {
			defer manager.Stop()
		}
	}

	status := eng.Status()
	fmt.Fprintf(stdout, "Monitoring fn key (delay %s, mode %s, provider %s)\n",
		status.TriggerDelay, status.Mode, status.Provider)
	fmt.Fprintln(stdout, "Press Ctrl+C to stop.")

	runCtx, cancel := notifyContext(context.Background())
	defer cancel()
	_ = eng.Controller().Wait(runCtx)

	eng.Stop()
	final := eng.Status()
	fmt.Fprintf(stdout, "Stopped after %d recognised gestures.\n", final.Triggers)
	return nil
}

// startConfigWatcher applies hot configuration reloads. Only the trigger
// delay can change live; intercept mode changes are announced and wait for
// a restart.
func startConfigWatcher(ctx *AppContext, eng *engine.Engine) *config.Watcher {
	source := ctx.Config.Source
	if source == "" || source == "<defaults>" {
		return nil
	}

	watcher, err := config.NewWatcher(source, ctx.Logger, func(updated config.Config) {
		if err := eng.SetTriggerDelay(updated.Engine.TriggerDelay()); err != nil {
			ctx.Logger.Warn("rejected trigger delay from reloaded config", "error", err)
		}
		if mode, err := tap.ParseMode(updated.Engine.InterceptMode); err == nil {
			if eng.SetInterceptMode(mode) {
				ctx.Logger.Info("intercept mode change takes effect on next start", "mode", mode.String())
			}
		}
	})
	if err != nil {
		ctx.Logger.Warn("config hot reload unavailable", "error", err)
		return nil
	}
	return watcher
}

func printRunPlan(ctx *AppContext, stdout io.Writer) {
	fmt.Fprintf(stdout, "Resolved configuration (source: %s)\n", ctx.Config.Source)
	fmt.Fprintf(stdout, "  engine.trigger_delay: %s\n", time.Duration(ctx.Config.Engine.TriggerDelayMS)*time.Millisecond)
	fmt.Fprintf(stdout, "  engine.intercept_mode: %s\n", ctx.Config.Engine.InterceptMode)
	fmt.Fprintf(stdout, "  engine.modifier_keycode: %d\n", ctx.Config.Engine.ModifierKeycode)
	fmt.Fprintf(stdout, "  hotkey.enabled: %t\n", ctx.Config.Hotkey.Enabled)
	fmt.Fprintf(stdout, "  hotkey.toggle: %s\n", ctx.Config.Hotkey.Toggle)
	fmt.Fprintf(stdout, "  notify.sound_enabled: %t\n", ctx.Config.Notify.SoundEnabled)
	fmt.Fprintf(stdout, "  notify.log_triggers: %t\n", ctx.Config.Notify.LogTriggers)
	fmt.Fprintf(stdout, "  logging.level: %s\n", ctx.Config.Logging.Level)
	fmt.Fprintf(stdout, "  logging.format: %s\n", ctx.Config.Logging.Format)
}

func boolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	value, err := strconv.ParseBool(f.Value.String())
	if err != nil {
		return false
	}
	return value
}
