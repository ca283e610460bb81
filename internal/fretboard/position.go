package fretboard

import (
	"fmt"
	"strings"
)

// Finger identifies a fretting finger. The thumb never frets.
type Finger int

const (
	Index Finger = iota + 1
	Middle
	Ring
	Pinky
)

// NumFingers is the number of fretting fingers.
const NumFingers = 4

var fingerNames = [...]string{"", "Index", "Middle", "Ring", "Pinky"}

// String returns the finger name, e.g. "Ring".
func (f Finger) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Finger(%d)", int(f))
	}
	return fingerNames[f]
}

// Valid reports whether f is one of the four fretting fingers.
func (f Finger) Valid() bool {
	return f >= Index && f <= Pinky
}

// ParseFinger accepts a finger name, case-insensitive. Numbers are rejected
// so "1" can never be mistaken for a string or fret.
func ParseFinger(s string) (Finger, error) {
	s = strings.TrimSpace(s)
	for f := Index; f <= Pinky; f++ {
		if strings.EqualFold(s, fingerNames[f]) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}

// MarshalText encodes the finger by name.
func (f Finger) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid finger %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a finger name.
func (f *Finger) UnmarshalText(text []byte) error {
	parsed, err := ParseFinger(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Position is a finger pressed on a string at a fret.
type Position struct {
	Finger Finger `json:"finger"`
	String int    `json:"string"`
	Fret   int    `json:"fret"`
}

// Valid reports whether every field is in range.
func (p Position) Valid() bool {
	return p.Finger.Valid() &&
		p.String >= 1 && p.String <= NumStrings &&
		p.Fret >= 1 && p.Fret <= NumFrets
}

// String renders the position for logs, e.g. "Ring s1 f3".
func (p Position) String() string {
	return fmt.Sprintf("%s s%d f%d", p.Finger, p.String, p.Fret)
}

// Contains reports whether positions has an exact (finger, string, fret) match for p.
func Contains(positions []Position, p Position) bool {
	for _, q := range positions {
		if q == p {
			return true
		}
	}
	return false
}
