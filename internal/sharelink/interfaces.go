package sharelink

import (
	"context"
	"drive-gateway/pkg/models"
	"time"
)

// TTL is how long an issued link stays redeemable.
const TTL = 18000 * time.Second

// Record is the immutable value stored behind a share link id. It freezes
// the issuing request's token so the link can be redeemed later without the
// client ever seeing OAuth credentials.
type Record struct {
	Provider string       `json:"provider"`
	FileID   string       `json:"fileId"`
	Token    models.Token `json:"token"`
	Inline   bool         `json:"inline"`
}

// Store issues and redeems ephemeral share links. Records are append-only:
// once written they are never updated, only expired.
type Store interface {
	// Issue stores the record under a freshly generated id and returns it.
	Issue(ctx context.Context, rec Record) (string, error)

	// Redeem looks up a record by id. An unknown, expired, or undecodable
	// record yields models.ErrNotFound; the three are indistinguishable.
	Redeem(ctx context.Context, id string) (*Record, error)
}
