package chord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ayusman/fretwise/internal/fretboard"
)

var (
	// ErrUnknownChord is returned when a chord name is not in the library.
	ErrUnknownChord = errors.New("unknown chord")
	// ErrDuplicateChord is returned when two shapes share a name.
	ErrDuplicateChord = errors.New("duplicate chord")
	// ErrInvalidShape is returned for a shape that cannot be matched.
	ErrInvalidShape = errors.New("invalid chord shape")
)

// Template is a chord as the matcher sees it: a name and the positions that
// must all be pressed.
type Template struct {
	Name      string               `json:"name"`
	FullName  string               `json:"full_name"`
	Required  []fretboard.Position `json:"required"`
	Diagram   string               `json:"diagram"`
	Fingering string               `json:"fingering"`
	Custom    bool                 `json:"custom"`
}

// Library is an ordered, immutable set of chord templates. The order is the
// match order. A Library is safe for concurrent use; to change the chord set,
// build a new one.
type Library struct {
	shapes    []Shape
	templates []Template
	index     map[string]int
}

// NewLibrary validates the shapes and builds a library in the given order.
func NewLibrary(shapes []Shape) (*Library, error) {
	l := &Library{
		shapes:    make([]Shape, 0, len(shapes)),
		templates: make([]Template, 0, len(shapes)),
		index:     make(map[string]int, len(shapes)),
	}

	for _, s := range shapes {
		if err := ValidateShape(s); err != nil {
			return nil, err
		}
		if _, dup := l.index[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateChord, s.Name)
		}

		l.index[s.Name] = len(l.templates)
		l.shapes = append(l.shapes, s.clone())
		l.templates = append(l.templates, Template{
			Name:      s.Name,
			FullName:  s.FullName,
			Required:  s.Required(),
			Diagram:   s.Diagram(),
			Fingering: s.Fingering(),
			Custom:    s.Custom,
		})
	}

	return l, nil
}

// Default returns a library of the built-in shapes.
func Default() *Library {
	l, err := NewLibrary(builtinShapes)
	if err != nil {
		panic(fmt.Sprintf("chord: built-in shapes are invalid: %v", err))
	}
	return l
}

// ValidateShape checks a shape on its own: a name, in-range notes, at most
// one note per string, and at least one required position with no repeats.
func ValidateShape(s Shape) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidShape)
	}

	seen := make(map[int]bool, len(s.Notes))
	for _, n := range s.Notes {
		if n.String < 1 || n.String > fretboard.NumStrings {
			return fmt.Errorf("%w: %s: string %d out of range", ErrInvalidShape, s.Name, n.String)
		}
		if n.Fret < 0 || n.Fret > fretboard.NumFrets {
			return fmt.Errorf("%w: %s: fret %d out of range", ErrInvalidShape, s.Name, n.Fret)
		}
		if n.Finger != 0 && !n.Finger.Valid() {
			return fmt.Errorf("%w: %s: finger %d out of range", ErrInvalidShape, s.Name, int(n.Finger))
		}
		if seen[n.String] {
			return fmt.Errorf("%w: %s: string %d listed twice", ErrInvalidShape, s.Name, n.String)
		}
		seen[n.String] = true
	}

	for _, m := range s.Muted {
		if m < 1 || m > fretboard.NumStrings {
			return fmt.Errorf("%w: %s: muted string %d out of range", ErrInvalidShape, s.Name, m)
		}
		if seen[m] {
			return fmt.Errorf("%w: %s: string %d both muted and played", ErrInvalidShape, s.Name, m)
		}
	}

	required := s.Required()
	if len(required) == 0 {
		return fmt.Errorf("%w: %s: no fretted, fingered notes", ErrInvalidShape, s.Name)
	}
	for i, p := range required {
		if fretboard.Contains(required[:i], p) {
			return fmt.Errorf("%w: %s: %s required twice", ErrInvalidShape, s.Name, p)
		}
	}

	return nil
}

// Len returns the number of templates.
func (l *Library) Len() int {
	return len(l.templates)
}

// Names returns the chord names in match order.
func (l *Library) Names() []string {
	names := make([]string, len(l.templates))
	for i, t := range l.templates {
		names[i] = t.Name
	}
	return names
}

// Has reports whether name is in the library.
func (l *Library) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Template looks up a template by name.
func (l *Library) Template(name string) (Template, bool) {
	i, ok := l.index[name]
	if !ok {
		return Template{}, false
	}
	return l.templates[i].clone(), true
}

// Templates returns every template in match order.
func (l *Library) Templates() []Template {
	out := make([]Template, len(l.templates))
	for i, t := range l.templates {
		out[i] = t.clone()
	}
	return out
}

// Shapes returns the shapes the library was built from, in match order.
func (l *Library) Shapes() []Shape {
	out := make([]Shape, len(l.shapes))
	for i, s := range l.shapes {
		out[i] = s.clone()
	}
	return out
}

// Required returns the required positions of a chord, or nil if it is unknown.
func (l *Library) Required(name string) []fretboard.Position {
	i, ok := l.index[name]
	if !ok {
		return nil
	}
	return append([]fretboard.Position(nil), l.templates[i].Required...)
}

func (t Template) clone() Template {
	c := t
	c.Required = append([]fretboard.Position(nil), t.Required...)
	return c
}
