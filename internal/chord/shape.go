// Package chord holds the chord template library and matches detected finger
// positions against it.
package chord

import (
	"strconv"
	"strings"

	"github.com/ayusman/fretwise/internal/fretboard"
)

// LibraryVersion identifies the revision of the built-in shape table.
// Bump it whenever a built-in shape changes.
const LibraryVersion = 1

// Note is what one string does in a chord shape. Fret 0 is an open string;
// a note without a finger is never required for detection.
type Note struct {
	String int              `json:"string"`
	Fret   int              `json:"fret"`
	Finger fretboard.Finger `json:"finger,omitempty"`
}

// Shape is the single source of truth for a chord: both the required
// positions used for matching and the diagram used for rendering derive from it.
// Strings that have no note and are not muted ring open.
type Shape struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Notes    []Note `json:"notes"`
	Muted    []int  `json:"muted,omitempty"`
	Custom   bool   `json:"custom"`
}

// Required returns the fretted, fingered notes of the shape as positions.
// Open and unfingered strings cannot be seen by finger contact, so they are left out.
func (s Shape) Required() []fretboard.Position {
	var out []fretboard.Position
	for _, n := range s.Notes {
		if n.Fret <= 0 || !n.Finger.Valid() {
			continue
		}
		out = append(out, fretboard.Position{Finger: n.Finger, String: n.String, Fret: n.Fret})
	}
	return out
}

// Diagram renders the shape from string 6 down to string 1: x for muted, 0
// for open, otherwise the fret. Frets above 9 are parenthesised. String
// numbers are those of the shape table, so C renders as "x01023" rather
// than the textbook "x32010".
func (s Shape) Diagram() string {
	var b strings.Builder
	for str := fretboard.NumStrings; str >= 1; str-- {
		switch {
		case s.isMuted(str):
			b.WriteByte('x')
		default:
			fret := s.fretOn(str)
			if fret > 9 {
				b.WriteString("(" + strconv.Itoa(fret) + ")")
			} else {
				b.WriteString(strconv.Itoa(fret))
			}
		}
	}
	return b.String()
}

// Fingering renders the finger per string in the same order as Diagram,
// "-" where no finger is placed.
func (s Shape) Fingering() string {
	var b strings.Builder
	for str := fretboard.NumStrings; str >= 1; str-- {
		f := s.fingerOn(str)
		if f.Valid() && !s.isMuted(str) {
			b.WriteString(strconv.Itoa(int(f)))
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func (s Shape) isMuted(str int) bool {
	for _, m := range s.Muted {
		if m == str {
			return true
		}
	}
	return false
}

func (s Shape) fretOn(str int) int {
	for _, n := range s.Notes {
		if n.String == str {
			return n.Fret
		}
	}
	return 0
}

func (s Shape) fingerOn(str int) fretboard.Finger {
	for _, n := range s.Notes {
		if n.String == str && n.Fret > 0 {
			return n.Finger
		}
	}
	return 0
}

func note(finger fretboard.Finger, str, fret int) Note {
	return Note{String: str, Fret: fret, Finger: finger}
}

// builtinShapes is the canonical shape table, in match order. Earlier
// shapes win when a hand satisfies several (E before Em, C before G).
var builtinShapes = []Shape{
	{
		Name: "C", FullName: "C Major",
		Notes: []Note{note(fretboard.Ring, 1, 3), note(fretboard.Middle, 2, 2), note(fretboard.Index, 4, 1)},
		Muted: []int{6},
	},
	{
		Name: "D", FullName: "D Major",
		Notes: []Note{note(fretboard.Index, 3, 2), note(fretboard.Ring, 4, 3), note(fretboard.Middle, 5, 2)},
		Muted: []int{6},
	},
	{
		Name: "E", FullName: "E Major",
		Notes: []Note{note(fretboard.Middle, 2, 2), note(fretboard.Ring, 3, 2), note(fretboard.Index, 4, 1)},
	},
	{
		Name: "G", FullName: "G Major",
		Notes: []Note{note(fretboard.Ring, 1, 3), note(fretboard.Middle, 2, 2), note(fretboard.Pinky, 6, 3)},
	},
	{
		Name: "A", FullName: "A Major",
		Notes: []Note{note(fretboard.Index, 3, 2), note(fretboard.Middle, 4, 2), note(fretboard.Ring, 5, 2)},
		Muted: []int{6},
	},
	{
		Name: "Em", FullName: "E Minor",
		Notes: []Note{note(fretboard.Middle, 2, 2), note(fretboard.Ring, 3, 2)},
	},
	{
		Name: "Am", FullName: "A Minor",
		Notes: []Note{note(fretboard.Middle, 3, 2), note(fretboard.Ring, 4, 2), note(fretboard.Index, 5, 1)},
		Muted: []int{6},
	},
	{
		Name: "Dm", FullName: "D Minor",
		Notes: []Note{note(fretboard.Middle, 3, 2), note(fretboard.Pinky, 4, 3), note(fretboard.Index, 5, 1)},
		Muted: []int{6},
	},
}

// BuiltinShapes returns a copy of the canonical shape table.
func BuiltinShapes() []Shape {
	out := make([]Shape, len(builtinShapes))
	for i, s := range builtinShapes {
		out[i] = s.clone()
	}
	return out
}

func (s Shape) clone() Shape {
	c := s
	c.Notes = append([]Note(nil), s.Notes...)
	c.Muted = append([]int(nil), s.Muted...)
	return c
}
