package auth

import (
	"errors"
	"strconv"

	"github.com/bookshelf/bookshelf/internal/model"
)

// ErrNoIdentity indicates claims without a usable subject id.
var ErrNoIdentity = errors.New("no identity in claims")

// ResolveIdentity turns validated claims into an Identity.
// The "userId" claim wins over "sub"; when both are present they must agree.
// A missing, non-numeric or non-positive subject yields ErrNoIdentity.
func ResolveIdentity(claims *Claims) (*model.Identity, error) {
	if claims == nil {
		return nil, ErrNoIdentity
	}

	raw := claims.UserID
	if raw == "" {
		raw = claims.Subject
	} else if claims.Subject != "" && claims.Subject != raw {
		return nil, ErrNoIdentity
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrNoIdentity
	}

	identity := &model.Identity{
		SubjectID:   id,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
