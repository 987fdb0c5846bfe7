// Package trigger binds global keyboard shortcuts to the pipeline's trigger
// surface. Hands-free operation is the normal mode; the hotkeys exist for
// environments where speaking a command is impractical.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.design/x/hotkey"
)

// Surface is the subset of the pipeline the hotkeys drive.
type Surface interface {
	OnKeyToggle()
	OnKeyStop()
}

// Hotkeys owns the registered global shortcuts.
type Hotkeys struct {
	toggle *hotkey.Hotkey
	stop   *hotkey.Hotkey
	log    *slog.Logger
}

// Register binds Ctrl+Shift+Space to pause/resume and Ctrl+Shift+Q to stop,
// and dispatches events to surface until ctx is cancelled.
//
// On macOS the hotkey library is prone to SIGTRAP crashes from its
// Objective-C bridge, so registration is skipped there and voice commands
// remain the only trigger path.
func Register(ctx context.Context, surface Surface, log *slog.Logger) (*Hotkeys, error) {
	if log == nil {
		log = slog.Default()
	}
	if runtime.GOOS == "darwin" {
		log.Info("global hotkeys disabled on macOS, voice commands only")
		return &Hotkeys{log: log}, nil
	}

	mods := []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}

	toggle := hotkey.New(mods, hotkey.KeySpace)
	if err := toggle.Register(); err != nil {
		return nil, fmt.Errorf("register toggle hotkey: %w", err)
	}

	stop := hotkey.New(mods, hotkey.KeyQ)
	if err := stop.Register(); err != nil {
		toggle.Unregister()
		return nil, fmt.Errorf("register stop hotkey: %w", err)
	}

	h := &Hotkeys{toggle: toggle, stop: stop, log: log}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-toggle.Keydown():
				log.Debug("toggle hotkey pressed")
				surface.OnKeyToggle()
			case <-stop.Keydown():
				log.Debug("stop hotkey pressed")
				surface.OnKeyStop()
			}
		}
	}()

	return h, nil
}

// Unregister releases the shortcuts. Safe to call on a Hotkeys that never
// registered any (macOS).
func (h *Hotkeys) Unregister() {
	if h.toggle != nil {
		h.toggle.Unregister()
	}
	if h.stop != nil {
		h.stop.Unregister()
	}
}
