// Package enroll implements the one-shot enrollment workflow: capture a
// descriptor, validate it, and persist the identity with rollback on
// partial failure.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/sakhi-assistant/sakhi/internal/descriptor"
)

var (
	// ErrNoFaceDetected signals that the capture produced no usable
	// descriptor. Nothing was persisted; the caller may retry.
	ErrNoFaceDetected = errors.New("could not detect a valid face")
	// ErrNameRequired signals an empty enrollment name.
	ErrNameRequired = errors.New("name is required")
)

// Store is the subset of the identity store the workflow mutates.
type Store interface {
	InsertIdentity(ctx context.Context, name string) (uuid.UUID, error)
	InsertDescriptor(ctx context.Context, ownerID uuid.UUID, vec []float32) error
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// CaptureFunc produces one descriptor from the embedding collaborator.
// A nil vector means no face was detected.
type CaptureFunc func(ctx context.Context) ([]float32, error)

// Identity is the record created by a successful enrollment.
type Identity struct {
	ID   uuid.UUID
	Name string
}

// Enroll captures one descriptor and persists it under a new identity.
// The operation is not idempotent: re-invoking creates a duplicate
// identity, and duplicate names are allowed. If the descriptor insert
// fails after the identity was created, the identity is deleted again so
// no identity is ever left without a descriptor.
func Enroll(ctx context.Context, store Store, name string, capture CaptureFunc) (Identity, error) {
	if name == "" {
		return Identity{}, ErrNameRequired
	}

	vec, err := capture(ctx)
	if err != nil {
		// Device or transport failures are not "no face"; let the caller
		// tell them apart.
		return Identity{}, fmt.Errorf("capturing descriptor: %w", err)
	}
	if vec == nil {
		return Identity{}, ErrNoFaceDetected
	}
	if err := descriptor.Validate(vec); err != nil {
		return Identity{}, ErrNoFaceDetected
	}

	id, err := store.InsertIdentity(ctx, name)
	if err != nil {
		return Identity{}, fmt.Errorf("creating identity: %w", err)
	}

	if err := store.InsertDescriptor(ctx, id, vec); err != nil {
		// Compensating action: never leave an identity with zero descriptors.
		if rbErr := store.DeleteIdentity(ctx, id); rbErr != nil {
			log.Printf("Warning: rollback of identity %s failed: %v", id, rbErr)
		}
		return Identity{}, fmt.Errorf("storing descriptor: %w", err)
	}

	return Identity{ID: id, Name: name}, nil
}
