package enroll

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sakhi-assistant/sakhi/internal/descriptor"
)

// fakeStore records mutations and can fail descriptor inserts.
type fakeStore struct {
	failDescriptor bool

	identities map[uuid.UUID]string
	vectors    map[uuid.UUID][]float32
	deleted    []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		identities: make(map[uuid.UUID]string),
		vectors:    make(map[uuid.UUID][]float32),
	}
}

func (s *fakeStore) InsertIdentity(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	s.identities[id] = name
	return id, nil
}

func (s *fakeStore) InsertDescriptor(ctx context.Context, ownerID uuid.UUID, vec []float32) error {
	if s.failDescriptor {
		return errors.New("descriptor table unavailable")
	}
	s.vectors[ownerID] = vec
	return nil
}

func (s *fakeStore) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	delete(s.identities, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func validCapture(ctx context.Context) ([]float32, error) {
	return make([]float32, descriptor.Dim), nil
}

func TestEnroll_Success(t *testing.T) {
	store := newFakeStore()

	ident, err := Enroll(context.Background(), store, "Asha", validCapture)
	if err != nil {
		t.Fatalf("enroll failed: %v", err)
	}
	if ident.Name != "Asha" {
		t.Errorf("expected name 'Asha', got '%s'", ident.Name)
	}
	if store.identities[ident.ID] != "Asha" {
		t.Error("expected identity to be persisted")
	}
	if len(store.vectors[ident.ID]) != descriptor.Dim {
		t.Error("expected descriptor to be persisted")
	}
}

func TestEnroll_EmptyName(t *testing.T) {
	store := newFakeStore()

	if _, err := Enroll(context.Background(), store, "", validCapture); !errors.Is(err, ErrNameRequired) {
		t.Errorf("expected ErrNameRequired, got %v", err)
	}
	if len(store.identities) != 0 {
		t.Error("expected no store mutation on validation failure")
	}
}

func TestEnroll_NoFace(t *testing.T) {
	tests := []struct {
		name    string
		capture CaptureFunc
	}{
		{"nil descriptor", func(ctx context.Context) ([]float32, error) {
			return nil, nil
		}},
		{"short descriptor", func(ctx context.Context) ([]float32, error) {
			return make([]float32, 64), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()

			if _, err := Enroll(context.Background(), store, "Asha", tt.capture); !errors.Is(err, ErrNoFaceDetected) {
				t.Errorf("expected ErrNoFaceDetected, got %v", err)
			}
			if len(store.identities) != 0 || len(store.vectors) != 0 {
				t.Error("expected no store mutation when no face is detected")
			}
		})
	}
}

func TestEnroll_CaptureErrorPropagates(t *testing.T) {
	store := newFakeStore()
	deviceErr := errors.New("camera went away")

	_, err := Enroll(context.Background(), store, "Asha", func(ctx context.Context) ([]float32, error) {
		return nil, deviceErr
	})
	if !errors.Is(err, deviceErr) {
		t.Errorf("expected the capture error to propagate, got %v", err)
	}
	if errors.Is(err, ErrNoFaceDetected) {
		t.Error("a device failure must not look like a missing face")
	}
	if len(store.identities) != 0 || len(store.vectors) != 0 {
		t.Error("expected no store mutation on capture failure")
	}
}

func TestEnroll_RollsBackIdentityOnDescriptorFailure(t *testing.T) {
	store := newFakeStore()
	store.failDescriptor = true

	if _, err := Enroll(context.Background(), store, "Asha", validCapture); err == nil {
		t.Fatal("expected enrollment to fail")
	}

	if len(store.identities) != 0 {
		t.Error("expected identity to be rolled back after descriptor failure")
	}
	if len(store.deleted) != 1 {
		t.Errorf("expected exactly one compensating delete, got %d", len(store.deleted))
	}
}

func TestEnroll_DuplicateNamesAllowed(t *testing.T) {
	store := newFakeStore()

	first, err := Enroll(context.Background(), store, "Asha", validCapture)
	if err != nil {
		t.Fatalf("first enroll failed: %v", err)
	}
	second, err := Enroll(context.Background(), store, "Asha", validCapture)
	if err != nil {
		t.Fatalf("second enroll failed: %v", err)
	}
	if first.ID == second.ID {
		t.Error("expected duplicate enrollments to create distinct identities")
	}
}
