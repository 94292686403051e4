package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/recognize"
)

// RecognitionControl starts and stops the camera recognition loop.
// This is the kiosk UI's start button: switching modes never touches
// the camera, only these endpoints do.
type RecognitionControl interface {
	Start(ctx context.Context) error
	Stop()
}

// RecognitionHandler serves the recognition loop control endpoints.
// control is nil when the process runs without a camera (headless
// serve), in which case both endpoints answer 503.
type RecognitionHandler struct {
	control RecognitionControl
}

func NewRecognitionHandler(control RecognitionControl) *RecognitionHandler {
	return &RecognitionHandler{control: control}
}

// Start handles POST /api/recognition/start.
func (h *RecognitionHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		respondError(w, http.StatusServiceUnavailable, "recognition is not available")
		return
	}

	if err := h.control.Start(r.Context()); err != nil {
		switch {
		case errors.Is(err, recognize.ErrNoEnrolledIdentities):
			respondError(w, http.StatusConflict, "no faces are registered")
		case errors.Is(err, capture.ErrDeviceUnavailable):
			respondError(w, http.StatusServiceUnavailable, "camera is unavailable")
		default:
			log.Printf("Starting recognition failed: %v", err)
			respondError(w, http.StatusInternalServerError, "failed to start recognition")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

// Stop handles POST /api/recognition/stop.
func (h *RecognitionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if h.control == nil {
		respondError(w, http.StatusServiceUnavailable, "recognition is not available")
		return
	}

	h.control.Stop()
	respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}
