// Package tray shows the tutor's live feedback in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/session"
	"github.com/ayusman/fretwise/internal/tutor"
)

// Tray represents the system tray application.
type Tray struct {
	session *session.Session

	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// title and line are the last texts shown, to skip redundant updates.
	title       string
	line        string
	unsubscribe func()

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuResult *systray.MenuItem
	menuTarget *systray.MenuItem
	targets    map[string]*systray.MenuItem
	// lib is the library the target submenu was last built from.
	lib *chord.Library
}

// New creates a Tray that follows s. Evaluation starts enabled.
func New(s *session.Session) *Tray {
	return &Tray{
		session: s,
		enabled: true,
		targets: make(map[string]*systray.MenuItem),
	}
}

// OnToggle sets the callback for pausing and resuming evaluation.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback for the "Open Tutor" menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Fretwise")
	systray.SetTooltip("Fretwise chord tutor")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem("● Listening", "Pause or resume chord feedback")
	systray.AddSeparator()

	t.menuResult = systray.AddMenuItem(resultLine(tutor.Result{}), "Last evaluated frame")
	t.menuResult.Disable()
	t.menuTarget = systray.AddMenuItem("Target", "Chord to practise")
	t.mu.Unlock()
	t.syncTargets()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Tutor...", "Open the tutor in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Fretwise")

	if t.session != nil {
		t.unsubscribe = t.session.Subscribe(t.Update)
	}

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

// syncTargets adds a submenu entry for every chord in the library, hides
// entries for removed chords and checks the current target.
func (t *Tray) syncTargets() {
	if t.session == nil {
		return
	}
	lib := t.session.Library()
	names := lib.Names()
	target := t.session.Target()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.menuTarget == nil {
		return
	}

	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
		item, ok := t.targets[name]
		if !ok {
			item = t.menuTarget.AddSubMenuItem(name, "Practise "+name)
			t.targets[name] = item
			go t.watchTarget(name, item)
		}
		item.Show()
		if name == target {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	for name, item := range t.targets {
		if !present[name] {
			item.Hide()
		}
	}
	t.menuTarget.SetTitle("Target: " + target)
	t.lib = lib
}

func (t *Tray) watchTarget(name string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if err := t.session.SetTarget(name); err != nil {
			log.WithError(err).WithField("target", name).Warn("tray could not change target")
		}
		t.syncTargets()
	}
}

// Update shows res in the tray title and menu.
func (t *Tray) Update(res tutor.Result) {
	title, line := resultTitle(res), resultLine(res)

	t.mu.Lock()
	changed := title != t.title
	t.title = title
	if line != t.line && t.menuResult != nil {
		t.menuResult.SetTitle(line)
		t.line = line
	}
	stale := t.menuTarget != nil && (t.lib != t.session.Library() || t.targetChanged(res.Target))
	t.mu.Unlock()

	if changed {
		systray.SetTitle(title)
	}
	if stale {
		t.syncTargets()
	}
}

// targetChanged reports whether the checked submenu entry is not target.
// Caller holds t.mu.
func (t *Tray) targetChanged(target string) bool {
	item, ok := t.targets[target]
	return !ok || !item.Checked()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		if enabled {
			t.menuToggle.SetTitle("● Listening")
		} else {
			t.menuToggle.SetTitle("○ Paused")
		}
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
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

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// resultTitle is the short menu bar text for a result, e.g. "G 67%".
func resultTitle(res tutor.Result) string {
	if res.Target == "" {
		return "Fretwise"
	}
	if res.Complete {
		return res.Target + " ✓"
	}
	return fmt.Sprintf("%s %.0f%%", res.Target, res.Accuracy)
}

// resultLine describes what the tutor saw in the frame.
func resultLine(res tutor.Result) string {
	if res.Detected == "" {
		return "Detected: none"
	}
	return "Detected: " + res.Detected
}
