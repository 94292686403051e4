package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakhi-assistant/sakhi/internal/capture"
	"github.com/sakhi-assistant/sakhi/internal/recognize"
)

type fakeRecognitionControl struct {
	startErr error
	started  int
	stopped  int
}

func (f *fakeRecognitionControl) Start(ctx context.Context) error {
	f.started++
	return f.startErr
}

func (f *fakeRecognitionControl) Stop() {
	f.stopped++
}

func postTo(handler http.HandlerFunc, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestRecognitionStart(t *testing.T) {
	control := &fakeRecognitionControl{}
	h := NewRecognitionHandler(control)

	w := postTo(h.Start, "/api/recognition/start")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if control.started != 1 {
		t.Errorf("expected one start, got %d", control.started)
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "running" {
		t.Errorf("expected status running, got %q", resp["status"])
	}
}

func TestRecognitionStartErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"no enrolled faces", recognize.ErrNoEnrolledIdentities, http.StatusConflict},
		{"camera unavailable", fmt.Errorf("%w: no such device", capture.ErrDeviceUnavailable), http.StatusServiceUnavailable},
		{"unexpected failure", errors.New("embedding server down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRecognitionHandler(&fakeRecognitionControl{startErr: tt.err})

			w := postTo(h.Start, "/api/recognition/start")

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestRecognitionStop(t *testing.T) {
	control := &fakeRecognitionControl{}
	h := NewRecognitionHandler(control)

	w := postTo(h.Stop, "/api/recognition/stop")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if control.stopped != 1 {
		t.Errorf("expected one stop, got %d", control.stopped)
	}
}

func TestRecognitionWithoutCamera(t *testing.T) {
	h := NewRecognitionHandler(nil)

	if w := postTo(h.Start, "/api/recognition/start"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from headless start, got %d", w.Code)
	}
	if w := postTo(h.Stop, "/api/recognition/stop"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 from headless stop, got %d", w.Code)
	}
}
