package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSend(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient("test-key").WithBaseURL(server.URL)
	if err := c.send("ON"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if gotPath != "/trigger/toggle_light/with/key/test-key" {
		t.Errorf("unexpected webhook path: %s", gotPath)
	}
	if gotPayload["value1"] != "ON" {
		t.Errorf("expected value1=ON, got %v", gotPayload)
	}
}

func TestSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient("bad-key").WithBaseURL(server.URL)
	if err := c.send("OFF"); err == nil {
		t.Error("expected an error for a non-200 response")
	}
}

func TestSendMissingKey(t *testing.T) {
	c := NewClient("")
	if err := c.send("ON"); err == nil {
		t.Error("expected an error when the webhook key is not configured")
	}
}
