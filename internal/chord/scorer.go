package chord

import "github.com/ayusman/fretwise/internal/fretboard"

// Assessment compares one frame's positions against a target chord.
type Assessment struct {
	Target   string               `json:"target"`
	Detected string               `json:"detected,omitempty"`
	Matched  bool                 `json:"matched"`
	Hit      []fretboard.Position `json:"hit"`
	Missing  []fretboard.Position `json:"missing"`
	Accuracy float64              `json:"accuracy"`
}

// Score returns how complete the target chord is in detected, 0 to 100.
//
// It is 100 when Match picks the target. Otherwise it is the share of the
// target's required positions present in detected. An unknown target scores 0.
func (l *Library) Score(detected []fretboard.Position, target string) float64 {
	return l.Assess(detected, target).Accuracy
}

// Assess scores detected against target and reports which required
// positions were hit and which are still missing.
func (l *Library) Assess(detected []fretboard.Position, target string) Assessment {
	a := Assessment{Target: target}
	a.Detected, a.Matched = l.Match(detected)

	required := l.Required(target)
	for _, r := range required {
		if fretboard.Contains(detected, r) {
			a.Hit = append(a.Hit, r)
		} else {
			a.Missing = append(a.Missing, r)
		}
	}

	switch {
	case len(required) == 0:
		a.Accuracy = 0
	case a.Matched && a.Detected == target:
		a.Accuracy = 100
	default:
		a.Accuracy = 100 * float64(len(a.Hit)) / float64(len(required))
	}

	return a
}
