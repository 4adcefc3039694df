// Package tray provides the desktop system tray for the Natya engine.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray shows engine status in the system tray: the active detection mode
// and the last session score, plus entries to open the UI and quit.
type Tray struct {
	mu       sync.RWMutex
	onOpenUI func()
	onQuit   func()

	menuMode      *systray.MenuItem
	menuLastScore *systray.MenuItem
}

// New creates a Tray.
func New() *Tray {
	return &Tray{}
}

// OnOpenUI sets the callback for the "Open Natya" menu entry.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback for the quit menu entry.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. Blocks until systray.Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Natya")
	systray.SetTooltip("Natya Dance Engine")

	t.menuMode = systray.AddMenuItem("Mode: auto", "Active detection mode")
	t.menuMode.Disable()

	t.menuLastScore = systray.AddMenuItem("Last score: none", "Score of the last session")
	t.menuLastScore.Disable()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Natya...", "Open the game UI in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Natya")

	go func() {
		for {
			select {
			case <-menuOpen.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetMode updates the mode line in the menu.
func (t *Tray) SetMode(mode string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuMode != nil {
		t.menuMode.SetTitle("Mode: " + mode)
	}
}

// SetLastScore updates the last-score line in the menu.
func (t *Tray) SetLastScore(score float64) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastScore != nil {
		t.menuLastScore.SetTitle(fmt.Sprintf("Last score: %.1f", score))
	}
}
