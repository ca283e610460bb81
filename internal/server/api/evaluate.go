package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/fretwise/internal/detector"
	"github.com/ayusman/fretwise/internal/session"
	"github.com/ayusman/fretwise/internal/tutor"
)

// EvaluateHandler scores hand landmarks posted by a client-side tracker.
type EvaluateHandler struct {
	session *session.Session
	limiter *rate.Limiter
}

// NewEvaluateHandler creates an EvaluateHandler allowing perSecond requests
// on average with bursts of up to burst.
func NewEvaluateHandler(s *session.Session, perSecond float64, burst int) *EvaluateHandler {
	return &EvaluateHandler{
		session: s,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

type handRequest struct {
	Points     []detector.Point3D `json:"points" validate:"required"`
	Handedness string             `json:"handedness" validate:"omitempty,oneof=Left Right"`
	Score      float64            `json:"score" validate:"min=0,max=1"`
}

type evaluateRequest struct {
	Width  float64       `json:"width" validate:"gt=0,lte=8192"`
	Height float64       `json:"height" validate:"gt=0,lte=8192"`
	Target string        `json:"target" validate:"max=32"`
	Hands  []handRequest `json:"hands" validate:"max=4,dive"`
}

type evaluateResponse struct {
	tutor.Result
	Band string `json:"band"`
}

// ServeHTTP handles POST /api/evaluate.
func (h *EvaluateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !h.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "Too many frames")
		return
	}

	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Target != "" && !h.session.Library().Has(req.Target) {
		log.WithField("target", req.Target).Warn("evaluate: unknown target chord, scoring 0")
	}

	raw := make([]detector.RawHand, len(req.Hands))
	for i, hr := range req.Hands {
		raw[i] = detector.RawHand{Points: hr.Points, Handedness: hr.Handedness, Score: hr.Score}
	}

	hands, err := detector.DecodeHands(raw)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"hands":   len(raw),
			"decoded": len(hands),
		}).Warn("evaluate: skipping malformed hands")
	}

	res := h.session.Evaluate(tutor.Frame{
		Hands:  hands,
		Width:  req.Width,
		Height: req.Height,
		Target: req.Target,
	})

	writeJSON(w, http.StatusOK, evaluateResponse{Result: res, Band: res.Band()})
}

