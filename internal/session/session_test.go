package session

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/store"
	"github.com/ayusman/fretwise/internal/tutor"
)

func defaults() Defaults {
	return Defaults{Target: "C", Layout: fretboard.DefaultLayout()}
}

func openStore(t *testing.T, path string) *store.Store {
	t.Helper()
	st, err := store.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newSession(t *testing.T) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fretwise.db")
	s, err := New(openStore(t, path), defaults())
	require.NoError(t, err)
	return s, path
}

func sus4() chord.Shape {
	return chord.Shape{
		Name:     "Asus4",
		FullName: "A Suspended 4th",
		Notes: []chord.Note{
			{String: 2, Fret: 3, Finger: fretboard.Ring},
			{String: 3, Fret: 2, Finger: fretboard.Middle},
			{String: 4, Fret: 2, Finger: fretboard.Index},
		},
		Muted: []int{6},
	}
}

func press(finger fretboard.Finger, s, f int) detector.FingerPress {
	c := fretboard.DefaultLayout().Region(1, 1).CellCenter(fretboard.Cell{String: s, Fret: f})
	return detector.FingerPress{Finger: int(finger) - 1, X: c.X, Y: c.Y, Pressed: true}
}

func TestNew_InMemory(t *testing.T) {
	s, err := New(nil, defaults())
	require.NoError(t, err)

	assert.Equal(t, "C", s.Target())
	assert.Equal(t, chord.Default().Names(), s.Library().Names())
	assert.Equal(t, fretboard.DefaultLayout(), s.Layout())

	// Persisting calls are no-ops without a store.
	require.NoError(t, s.SetTarget("G"))
	_, err = s.AddChord(sus4())
	require.NoError(t, err)
}

func TestNew_BadDefaults(t *testing.T) {
	_, err := New(nil, Defaults{Target: "C", Layout: fretboard.Layout{}})
	assert.ErrorIs(t, err, fretboard.ErrInvalidRegion)

	s, err := New(nil, Defaults{Target: "Bb13", Layout: fretboard.DefaultLayout()})
	require.NoError(t, err)
	assert.Equal(t, "C", s.Target(), "unknown default falls back to the first chord")
}

func TestAddChord_PersistsAndReloads(t *testing.T) {
	s, path := newSession(t)

	tmpl, err := s.AddChord(sus4())
	require.NoError(t, err)
	assert.True(t, tmpl.Custom)
	assert.Equal(t, "x02230", tmpl.Diagram)
	assert.Equal(t, "Asus4", s.Library().Names()[s.Library().Len()-1])

	require.NoError(t, s.SetTarget("Asus4"))

	reloaded, err := New(openStore(t, path), defaults())
	require.NoError(t, err)
	assert.True(t, reloaded.Library().Has("Asus4"))
	assert.Equal(t, "Asus4", reloaded.Target())
}

func TestAddChord_Rejects(t *testing.T) {
	s, _ := newSession(t)

	builtin := sus4()
	builtin.Name = "Am"
	_, err := s.AddChord(builtin)
	assert.ErrorIs(t, err, chord.ErrDuplicateChord)

	_, err = s.AddChord(sus4())
	require.NoError(t, err)
	_, err = s.AddChord(sus4())
	assert.ErrorIs(t, err, chord.ErrDuplicateChord)

	_, err = s.AddChord(chord.Shape{Name: "Open", Notes: []chord.Note{{String: 1}}})
	assert.ErrorIs(t, err, chord.ErrInvalidShape)

	assert.Equal(t, chord.Default().Len()+1, s.Library().Len())
}

func TestAddChord_Concurrent(t *testing.T) {
	s, _ := newSession(t)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sh := chord.Shape{
				Name:  "Custom" + string(rune('A'+i)),
				Notes: []chord.Note{{String: i + 1, Fret: 7, Finger: fretboard.Pinky}},
			}
			_, err := s.AddChord(sh)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, chord.Default().Len()+6, s.Library().Len())
}

func TestRemoveChord(t *testing.T) {
	s, path := newSession(t)

	_, err := s.AddChord(sus4())
	require.NoError(t, err)
	require.NoError(t, s.SetTarget("Asus4"))

	assert.ErrorIs(t, s.RemoveChord("G"), ErrBuiltinChord)
	assert.ErrorIs(t, s.RemoveChord("Gsus2"), chord.ErrUnknownChord)

	require.NoError(t, s.RemoveChord("Asus4"))
	assert.False(t, s.Library().Has("Asus4"))
	assert.Equal(t, "C", s.Target(), "removing the target falls back to the default")

	reloaded, err := New(openStore(t, path), defaults())
	require.NoError(t, err)
	assert.False(t, reloaded.Library().Has("Asus4"))
	assert.Equal(t, "C", reloaded.Target())
}

func TestNew_SkipsBadSavedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fretwise.db")
	st := openStore(t, path)

	require.NoError(t, st.Chords().Create(&store.Chord{
		ID: "1", Name: "G", Notes: []store.ChordNote{{String: 1, Fret: 1, Finger: 1}},
	}))
	require.NoError(t, st.Chords().Create(&store.Chord{
		ID: "2", Name: "Broken", Notes: []store.ChordNote{{String: 9, Fret: 1, Finger: 1}},
	}))
	require.NoError(t, st.Chords().Create(&store.Chord{
		ID: "3", Name: "Fine", Notes: []store.ChordNote{{String: 1, Fret: 5, Finger: 2}},
	}))
	require.NoError(t, st.Settings().Set(store.SettingTarget, "Broken"))
	require.NoError(t, st.Settings().SetJSON(store.SettingLayout, fretboard.Layout{Left: 0.9, Right: 0.1, Top: 0, Bottom: 1}))

	s, err := New(st, defaults())
	require.NoError(t, err)

	assert.Equal(t, chord.Default().Len()+1, s.Library().Len())
	assert.True(t, s.Library().Has("Fine"))
	assert.False(t, s.Library().Has("Broken"))
	assert.Equal(t, "C", s.Target())
	assert.Equal(t, fretboard.DefaultLayout(), s.Layout())

	g, _ := s.Library().Template("G")
	assert.False(t, g.Custom, "built-in G is not shadowed")
}

func TestSetLayout_Persists(t *testing.T) {
	s, path := newSession(t)

	layout := fretboard.Layout{Left: 0.1, Right: 0.9, Top: 0.25, Bottom: 0.65}
	require.NoError(t, s.SetLayout(layout))

	err := s.SetLayout(fretboard.Layout{Left: 0.5, Right: 0.5, Top: 0, Bottom: 1})
	assert.ErrorIs(t, err, fretboard.ErrInvalidRegion)

	reloaded, err := New(openStore(t, path), defaults())
	require.NoError(t, err)
	assert.Equal(t, layout, reloaded.Layout())
}

func TestSetTarget_Unknown(t *testing.T) {
	s, _ := newSession(t)

	assert.ErrorIs(t, s.SetTarget("Zzz"), chord.ErrUnknownChord)
	assert.Equal(t, "C", s.Target())
}

func TestEvaluate_NotifiesListeners(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.SetTarget("Em"))

	var mu sync.Mutex
	var got []tutor.Result
	unsubscribe := s.Subscribe(func(r tutor.Result) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r)
	})

	frame := tutor.Frame{
		Hands:  []detector.HandLandmarks{detector.FrettingHand(press(fretboard.Middle, 2, 2), press(fretboard.Ring, 3, 2))},
		Width:  1280,
		Height: 720,
	}

	res := s.Evaluate(frame)
	assert.Equal(t, 100.0, res.Accuracy)

	unsubscribe()
	s.Evaluate(frame)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, res.FrameID, got[0].FrameID)
}

func TestEvaluate_ListenerMayResubscribe(t *testing.T) {
	s, _ := newSession(t)

	var once, later int
	var unsubscribe func()
	unsubscribe = s.Subscribe(func(tutor.Result) {
		once++
		unsubscribe()
		s.Subscribe(func(tutor.Result) { later++ })
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Evaluate(tutor.Frame{Width: 1280, Height: 720})
		s.Evaluate(tutor.Frame{Width: 1280, Height: 720})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Evaluate deadlocked on a listener that changes subscriptions")
	}

	assert.Equal(t, 1, once)
	assert.Equal(t, 1, later)
}
