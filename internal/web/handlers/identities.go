package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sakhi-assistant/sakhi/internal/descriptor"
	"github.com/sakhi-assistant/sakhi/internal/enroll"
	"github.com/sakhi-assistant/sakhi/internal/store"
)

// IdentityStore is the identity persistence surface the API mutates.
type IdentityStore interface {
	enroll.Store
	ListIdentities(ctx context.Context) ([]store.Identity, error)
	ClearAll(ctx context.Context) error
}

// IdentitiesHandler serves face registration and identity management.
type IdentitiesHandler struct {
	store IdentityStore
}

func NewIdentitiesHandler(s IdentityStore) *IdentitiesHandler {
	return &IdentitiesHandler{store: s}
}

type registerFaceRequest struct {
	Name       string    `json:"name"`
	Descriptor []float32 `json:"descriptor"`
}

// Register handles POST /api/register-face. The browser computes the
// face descriptor client-side and submits it with the person's name;
// the server re-validates both before anything is persisted.
func (h *IdentitiesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerFaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := descriptor.Validate(req.Descriptor); err != nil {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("descriptor must contain exactly %d values", descriptor.Dim))
		return
	}

	identity, err := enroll.Enroll(r.Context(), h.store, req.Name, func(ctx context.Context) ([]float32, error) {
		return req.Descriptor, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, enroll.ErrNameRequired), errors.Is(err, enroll.ErrNoFaceDetected):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("Registering face for %s failed: %v", sanitizeForLog(req.Name), err)
			respondError(w, http.StatusInternalServerError, "failed to register face")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":   identity.ID.String(),
		"name": identity.Name,
	})
}

// List handles GET /api/identities.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.ListIdentities(r.Context())
	if err != nil {
		log.Printf("Listing identities failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	type item struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	out := make([]item, 0, len(identities))
	for _, id := range identities {
		out = append(out, item{ID: id.ID.String(), Name: id.Name})
	}
	respondJSON(w, http.StatusOK, out)
}

// Clear handles POST /api/clear-data. It wipes every descriptor and
// profile in one transaction.
func (h *IdentitiesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearAll(r.Context()); err != nil {
		log.Printf("Clearing identity data failed: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to clear data")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
