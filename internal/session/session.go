// Package session owns the practice state shared by the camera pipeline and
// the HTTP API: the tutor, the custom chords and settings persisted in the
// store, and the listeners that receive every evaluated frame.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/store"
	"github.com/ayusman/fretwise/internal/tutor"
)

// ErrBuiltinChord is returned when trying to remove a built-in chord.
var ErrBuiltinChord = errors.New("built-in chords cannot be removed")

// Defaults apply when nothing has been saved yet.
type Defaults struct {
	Target string
	Layout fretboard.Layout
}

// Listener receives every evaluated frame. It runs on the evaluating
// goroutine and must not block.
type Listener func(tutor.Result)

// Session is safe for concurrent use.
type Session struct {
	store    *store.Store
	defaults Defaults
	tutor    *tutor.Tutor

	// mu serialises library rebuilds so two concurrent adds cannot lose
	// each other's shape.
	mu sync.Mutex

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

// New restores a session from st, which may be nil for an in-memory session.
// Saved chords that no longer validate or clash with a built-in are skipped
// with a warning; saved settings that are no longer valid fall back to defaults.
func New(st *store.Store, defaults Defaults) (*Session, error) {
	if err := defaults.Layout.Validate(); err != nil {
		return nil, fmt.Errorf("default layout: %w", err)
	}

	s := &Session{
		store:     st,
		defaults:  defaults,
		listeners: make(map[int]Listener),
	}

	lib, err := s.loadLibrary()
	if err != nil {
		return nil, err
	}

	layout := s.loadLayout()
	target := s.loadTarget(lib)

	t, err := tutor.New(lib, layout, target)
	if err != nil {
		return nil, err
	}
	s.tutor = t

	log.WithFields(log.Fields{
		"chords": lib.Len(),
		"target": target,
	}).Info("practice session ready")

	return s, nil
}

// Tutor returns the underlying tutor.
func (s *Session) Tutor() *tutor.Tutor {
	return s.tutor
}

// Library returns the current chord library snapshot.
func (s *Session) Library() *chord.Library {
	return s.tutor.Library()
}

// Target returns the selected chord name.
func (s *Session) Target() string {
	return s.tutor.Target()
}

// SetTarget selects and persists the chord to practise.
func (s *Session) SetTarget(name string) error {
	if err := s.tutor.SetTarget(name); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Settings().Set(store.SettingTarget, name); err != nil {
			return fmt.Errorf("save target: %w", err)
		}
	}
	log.WithField("target", name).Info("target chord changed")
	return nil
}

// Layout returns the fretboard layout.
func (s *Session) Layout() fretboard.Layout {
	return s.tutor.Layout()
}

// SetLayout changes and persists the fretboard layout.
func (s *Session) SetLayout(layout fretboard.Layout) error {
	if err := s.tutor.SetLayout(layout); err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Settings().SetJSON(store.SettingLayout, layout); err != nil {
			return fmt.Errorf("save layout: %w", err)
		}
	}
	log.WithField("layout", layout).Info("fretboard layout changed")
	return nil
}

// AddChord persists a custom shape and appends it to the library.
func (s *Session) AddChord(shape chord.Shape) (chord.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shape.Custom = true
	if err := chord.ValidateShape(shape); err != nil {
		return chord.Template{}, err
	}

	current := s.tutor.Library()
	if current.Has(shape.Name) {
		return chord.Template{}, fmt.Errorf("%w: %q", chord.ErrDuplicateChord, shape.Name)
	}

	lib, err := chord.NewLibrary(append(current.Shapes(), shape))
	if err != nil {
		return chord.Template{}, err
	}

	if s.store != nil {
		row := toStoreChord(shape)
		row.ID = uuid.New().String()
		if err := s.store.Chords().Create(row); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return chord.Template{}, fmt.Errorf("%w: %q", chord.ErrDuplicateChord, shape.Name)
			}
			return chord.Template{}, fmt.Errorf("save chord: %w", err)
		}
	}

	s.tutor.SetLibrary(lib)
	log.WithFields(log.Fields{
		"chord":   shape.Name,
		"diagram": shape.Diagram(),
	}).Info("custom chord added")

	tmpl, _ := lib.Template(shape.Name)
	return tmpl, nil
}

// RemoveChord deletes a custom shape. If it was the target, the target
// falls back to the default.
func (s *Session) RemoveChord(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.tutor.Library()
	tmpl, ok := current.Template(name)
	if !ok {
		return fmt.Errorf("%w: %q", chord.ErrUnknownChord, name)
	}
	if !tmpl.Custom {
		return fmt.Errorf("%w: %q", ErrBuiltinChord, name)
	}

	shapes := current.Shapes()
	kept := shapes[:0]
	for _, sh := range shapes {
		if sh.Name != name {
			kept = append(kept, sh)
		}
	}

	lib, err := chord.NewLibrary(kept)
	if err != nil {
		return err
	}

	if s.store != nil {
		if err := s.store.Chords().DeleteByName(name); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete chord: %w", err)
		}
	}

	s.tutor.SetLibrary(lib)
	log.WithField("chord", name).Info("custom chord removed")

	if s.tutor.Target() == name {
		fallback := defaultTarget(lib, s.defaults.Target)
		if err := s.SetTarget(fallback); err != nil {
			return err
		}
	}

	return nil
}

// Evaluate scores one frame and hands the result to every listener.
func (s *Session) Evaluate(frame tutor.Frame) tutor.Result {
	res := s.tutor.Evaluate(frame)

	log.WithFields(log.Fields{
		"frame":     res.FrameID,
		"target":    res.Target,
		"detected":  res.Detected,
		"positions": len(res.Positions),
		"accuracy":  res.Accuracy,
	}).Debug("frame evaluated")

	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()

	// Called unlocked so a listener may subscribe or unsubscribe.
	for _, l := range listeners {
		l(res)
	}

	return res
}

// Subscribe registers l for every future result. The returned function
// removes it.
func (s *Session) Subscribe(l Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) loadLibrary() (*chord.Library, error) {
	shapes := chord.BuiltinShapes()
	if s.store == nil {
		return chord.NewLibrary(shapes)
	}

	rows, err := s.store.Chords().List()
	if err != nil {
		return nil, fmt.Errorf("load custom chords: %w", err)
	}

	names := make(map[string]bool, len(shapes)+len(rows))
	for _, sh := range shapes {
		names[sh.Name] = true
	}

	for _, row := range rows {
		sh := fromStoreChord(row)
		if names[sh.Name] {
			log.WithField("chord", sh.Name).Warn("skipping saved chord that shadows an existing chord")
			continue
		}
		if err := chord.ValidateShape(sh); err != nil {
			log.WithError(err).WithField("chord", sh.Name).Warn("skipping invalid saved chord")
			continue
		}
		names[sh.Name] = true
		shapes = append(shapes, sh)
	}

	return chord.NewLibrary(shapes)
}

func (s *Session) loadLayout() fretboard.Layout {
	layout := s.defaults.Layout
	if s.store == nil {
		return layout
	}

	var saved fretboard.Layout
	if err := s.store.Settings().GetJSON(store.SettingLayout, &saved); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).Warn("ignoring unreadable saved layout")
		}
		return layout
	}
	if err := saved.Validate(); err != nil {
		log.WithError(err).Warn("ignoring invalid saved layout")
		return layout
	}
	return saved
}

func (s *Session) loadTarget(lib *chord.Library) string {
	fallback := defaultTarget(lib, s.defaults.Target)
	if s.store == nil {
		return fallback
	}

	saved, err := s.store.Settings().Get(store.SettingTarget)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).Warn("ignoring unreadable saved target")
		}
		return fallback
	}
	if !lib.Has(saved) {
		log.WithField("target", saved).Warn("saved target is no longer in the library")
		return fallback
	}
	return saved
}

// defaultTarget returns preferred if the library has it, else the first chord.
func defaultTarget(lib *chord.Library, preferred string) string {
	if lib.Has(preferred) {
		return preferred
	}
	return lib.Names()[0]
}

func toStoreChord(sh chord.Shape) *store.Chord {
	c := &store.Chord{
		Name:     sh.Name,
		FullName: sh.FullName,
		Muted:    append([]int(nil), sh.Muted...),
	}
	for _, n := range sh.Notes {
		c.Notes = append(c.Notes, store.ChordNote{String: n.String, Fret: n.Fret, Finger: int(n.Finger)})
	}
	return c
}

func fromStoreChord(c *store.Chord) chord.Shape {
	sh := chord.Shape{
		Name:     c.Name,
		FullName: c.FullName,
		Muted:    append([]int(nil), c.Muted...),
		Custom:   true,
	}
	for _, n := range c.Notes {
		sh.Notes = append(sh.Notes, chord.Note{String: n.String, Fret: n.Fret, Finger: fretboard.Finger(n.Finger)})
	}
	return sh
}
