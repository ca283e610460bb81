package api

import (
	"net/http"

	"github.com/ayusman/fretwise/internal/chord"
	"github.com/ayusman/fretwise/internal/fretboard"
	"github.com/ayusman/fretwise/internal/session"
)

// TargetHandler reads and changes the chord being practised.
type TargetHandler struct {
	session *session.Session
}

// NewTargetHandler creates a new TargetHandler.
func NewTargetHandler(s *session.Session) *TargetHandler {
	return &TargetHandler{session: s}
}

type targetRequest struct {
	Target string `json:"target" validate:"required,max=32"`
}

type targetResponse struct {
	Target   string         `json:"target"`
	Template chord.Template `json:"template"`
}

// ServeHTTP handles GET and PUT /api/target.
func (h *TargetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req targetRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := h.session.SetTarget(req.Target); err != nil {
			writeDomainError(w, err)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := h.session.Target()
	tmpl, _ := h.session.Library().Template(target)
	writeJSON(w, http.StatusOK, targetResponse{Target: target, Template: tmpl})
}

// LayoutHandler reads and changes where the fretboard sits on the canvas.
type LayoutHandler struct {
	session *session.Session
}

// NewLayoutHandler creates a new LayoutHandler.
func NewLayoutHandler(s *session.Session) *LayoutHandler {
	return &LayoutHandler{session: s}
}

type layoutRequest struct {
	Left   *float64 `json:"left" validate:"required,min=0,max=1"`
	Right  *float64 `json:"right" validate:"required,min=0,max=1"`
	Top    *float64 `json:"top" validate:"required,min=0,max=1"`
	Bottom *float64 `json:"bottom" validate:"required,min=0,max=1"`
}

// ServeHTTP handles GET and PUT /api/layout.
func (h *LayoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var req layoutRequest
		if !decodeBody(w, r, &req) {
			return
		}
		layout := fretboard.Layout{Left: *req.Left, Right: *req.Right, Top: *req.Top, Bottom: *req.Bottom}
		if err := h.session.SetLayout(layout); err != nil {
			writeDomainError(w, err)
			return
		}
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.session.Layout())
}
