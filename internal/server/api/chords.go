package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/session"
)

// ChordHandler handles HTTP requests for the chord library.
type ChordHandler struct {
	session *session.Session
}

// NewChordHandler creates a new ChordHandler backed by the given session.
func NewChordHandler(s *session.Session) *ChordHandler {
	return &ChordHandler{session: s}
}

// ServeHTTP routes /api/chords and /api/chords/{name}.
func (h *ChordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/chords")
	name = strings.TrimPrefix(name, "/")

	if name == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, name)
	case http.MethodDelete:
		h.delete(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type noteRequest struct {
	String int              `json:"string" validate:"min=1,max=6"`
	Fret   int              `json:"fret" validate:"min=0,max=12"`
	Finger fretboard.Finger `json:"finger,omitempty" validate:"min=0,max=4"`
}

type createChordRequest struct {
	Name     string        `json:"name" validate:"required,max=32,excludesall=/?#%"`
	FullName string        `json:"full_name" validate:"max=64"`
	Notes    []noteRequest `json:"notes" validate:"required,min=1,max=6,dive"`
	Muted    []int         `json:"muted" validate:"max=6,dive,min=1,max=6"`
}

type listChordsResponse struct {
	Version int              `json:"version"`
	Target  string           `json:"target"`
	Chords  []chord.Template `json:"chords"`
}

// list handles GET /api/chords and returns the library in match order.
func (h *ChordHandler) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listChordsResponse{
		Version: chord.LibraryVersion,
		Target:  h.session.Target(),
		Chords:  h.session.Library().Templates(),
	})
}

// get handles GET /api/chords/{name}.
func (h *ChordHandler) get(w http.ResponseWriter, r *http.Request, name string) {
	tmpl, ok := h.session.Library().Template(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Chord not found")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// create handles POST /api/chords and adds a custom shape.
func (h *ChordHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createChordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shape := chord.Shape{
		Name:     strings.TrimSpace(req.Name),
		FullName: strings.TrimSpace(req.FullName),
		Muted:    req.Muted,
	}
	for _, n := range req.Notes {
		shape.Notes = append(shape.Notes, chord.Note{String: n.String, Fret: n.Fret, Finger: n.Finger})
	}

	tmpl, err := h.session.AddChord(shape)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tmpl)
}

// delete handles DELETE /api/chords/{name}.
func (h *ChordHandler) delete(w http.ResponseWriter, r *http.Request, name string) {
	if err := h.session.RemoveChord(name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
