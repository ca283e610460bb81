package chord

import "github.com/ayusman/fretwise/internal/fretboard"

// Match returns the first template, in library order, whose required
// positions are all present in detected. Extra detected positions are
// ignored. Equality is exact on finger, string and fret.
func (l *Library) Match(detected []fretboard.Position) (string, bool) {
	if len(detected) == 0 {
		return "", false
	}

	for _, t := range l.templates {
		if satisfied(t.Required, detected) {
			return t.Name, true
		}
	}

	return "", false
}

// MatchAll returns every template satisfied by detected, in library order.
// Useful for showing which shapes an ambiguous hand could be.
func (l *Library) MatchAll(detected []fretboard.Position) []string {
	var names []string
	for _, t := range l.templates {
		if satisfied(t.Required, detected) {
			names = append(names, t.Name)
		}
	}
	return names
}

func satisfied(required, detected []fretboard.Position) bool {
	if len(required) == 0 {
		return false
	}
	for _, r := range required {
		if !fretboard.Contains(detected, r) {
			return false
		}
	}
	return true
}
