package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/sakhi-assistant/sakhi/internal/descriptor"
)

// Identity is an enrolled person. Created once at enrollment, never
// mutated; removed only by the administrative bulk clear.
type Identity struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// LabeledDescriptor is one stored descriptor joined with its owner.
type LabeledDescriptor struct {
	Vector    []float32
	OwnerID   uuid.UUID
	OwnerName string
}

// IdentityRepository provides PostgreSQL-backed identity and descriptor
// storage.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// InsertIdentity creates a new identity record. Names are not unique keys;
// duplicate names are explicitly allowed.
func (r *IdentityRepository) InsertIdentity(ctx context.Context, name string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO profiles (id, name, created_at) VALUES ($1, $2, NOW())", id, name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert identity: %w", err)
	}
	return id, nil
}

// InsertDescriptor stores a descriptor for an identity. The 128-length
// contract is enforced here at the write boundary, independent of any
// client-side check.
func (r *IdentityRepository) InsertDescriptor(ctx context.Context, ownerID uuid.UUID, vec []float32) error {
	if err := descriptor.Validate(vec); err != nil {
		return err
	}
	_, err := r.pool.db.ExecContext(ctx,
		"INSERT INTO face_descriptors (user_id, embedding, created_at) VALUES ($1, $2, NOW())",
		ownerID, pgvector.NewVector(vec))
	if err != nil {
		return fmt.Errorf("insert descriptor: %w", err)
	}
	return nil
}

// DeleteIdentity removes an identity and any descriptors it owns.
// Descriptors go first to satisfy the foreign key.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete identity: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM face_descriptors WHERE user_id = $1", id); err != nil {
		return fmt.Errorf("delete descriptors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return tx.Commit()
}

// ListIdentities returns all enrolled identities ordered by creation time.
func (r *IdentityRepository) ListIdentities(ctx context.Context) ([]Identity, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM profiles ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var identities []Identity
	for rows.Next() {
		var ident Identity
		if err := rows.Scan(&ident.ID, &ident.Name, &ident.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, ident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return identities, nil
}

// ListDescriptors returns every stored descriptor joined with its owner's
// name, in stable insertion order.
func (r *IdentityRepository) ListDescriptors(ctx context.Context) ([]LabeledDescriptor, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT d.embedding, p.id, p.name
		FROM face_descriptors d
		JOIN profiles p ON p.id = d.user_id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("query descriptors: %w", err)
	}
	defer rows.Close()

	var out []LabeledDescriptor
	for rows.Next() {
		var vec pgvector.Vector
		var ownerID uuid.UUID
		var name string
		if err := rows.Scan(&vec, &ownerID, &name); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		out = append(out, LabeledDescriptor{Vector: vec.Slice(), OwnerID: ownerID, OwnerName: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate descriptors: %w", err)
	}
	return out, nil
}

// LabeledSet projects the stored descriptors into the snapshot used to
// build a matcher. Owners whose names differ only in case, diacritics, or
// dash style collapse into one label; the first-seen spelling is kept for
// display.
func (r *IdentityRepository) LabeledSet(ctx context.Context) ([]descriptor.Labeled, error) {
	pairs, err := r.ListDescriptors(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var set []descriptor.Labeled
	for _, pair := range pairs {
		if err := descriptor.Validate(pair.Vector); err != nil {
			continue // never let a malformed row reach the matcher
		}
		key := NormalizeName(pair.OwnerName)
		i, ok := index[key]
		if !ok {
			i = len(set)
			index[key] = i
			set = append(set, descriptor.Labeled{Label: pair.OwnerName})
		}
		set[i].Vectors = append(set[i].Vectors, pair.Vector)
	}
	return set, nil
}

// ClearAll deletes every descriptor and identity. Descriptors are removed
// before identities to keep referential ordering.
func (r *IdentityRepository) ClearAll(ctx context.Context) error {
	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM face_descriptors"); err != nil {
		return fmt.Errorf("clear descriptors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM profiles"); err != nil {
		return fmt.Errorf("clear identities: %w", err)
	}
	return tx.Commit()
}
