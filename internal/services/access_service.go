package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"spendshare/internal/core"
)

// AccessService resolves effective permissions between users.
type AccessService struct {
	rels RelationshipStore
}

func NewAccessService(rels RelationshipStore) *AccessService {
	return &AccessService{rels: rels}
}

// Resolve computes the viewer's effective access against a target user. The
// self case never touches storage: own data is always fully accessible.
func (s *AccessService) Resolve(ctx context.Context, viewerID, targetID string) (core.Resolution, error) {
	if targetID == "" || targetID == viewerID {
		return core.ResolveAccess(nil, viewerID, targetID), nil
	}

	rel, err := s.rels.GetRelationshipBetween(ctx, viewerID, targetID)
	if err != nil {
		return core.Resolution{}, fmt.Errorf("resolve access: %w", err)
	}
	return core.ResolveAccess(rel, viewerID, targetID), nil
}

// SaveGrant creates or updates a sharing relationship. The caller must be
// one of the two parties; levels are clamped to the known set.
func (s *AccessService) SaveGrant(ctx context.Context, viewerID string, rel core.Relationship) error {
	if rel.Requester.ID == "" || rel.Recipient.ID == "" {
		return fmt.Errorf("save grant: both parties are required")
	}
	if rel.Requester.ID == rel.Recipient.ID {
		return fmt.Errorf("save grant: requester and recipient must differ")
	}
	if viewerID != rel.Requester.ID && viewerID != rel.Recipient.ID {
		return fmt.Errorf("%w: viewer %s is not a party of the relationship", ErrAccessDenied, viewerID)
	}

	// Clients may omit the id on first save; the id column is the primary
	// key, so an empty one would collide across pairs.
	if rel.ID == "" {
		rel.ID = uuid.NewString()
	}

	rel.RequesterAccess = core.ParseAccessLevel(string(rel.RequesterAccess))
	rel.RecipientAccess = core.ParseAccessLevel(string(rel.RecipientAccess))

	if err := s.rels.SaveRelationship(ctx, rel); err != nil {
		return fmt.Errorf("save grant: %w", err)
	}
	return nil
}

// ListGrants returns all relationships the user participates in.
func (s *AccessService) ListGrants(ctx context.Context, partyID string) ([]core.Relationship, error) {
	rels, err := s.rels.ListRelationships(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return rels, nil
}
