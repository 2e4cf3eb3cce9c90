package gateway

import (
	"context"
	"drive-gateway/pkg/models"
)

// Drive is the uniform contract every cloud storage backend implements.
// One value is constructed per request and discarded with it; a Drive is
// never shared across requests.
type Drive interface {
	// Provider returns the tag the backend is mounted under.
	Provider() string

	// RootFolder returns the id of the folder served at the mount root.
	RootFolder() string

	// Token and SetToken manage the request-scoped OAuth token. SetToken(nil)
	// clears it; handlers must do so before their response is written.
	Token() *models.Token
	SetToken(token *models.Token)

	// AuthURL returns the provider's consent screen URL.
	AuthURL() string

	// ExchangeCode trades an authorization code for a token.
	ExchangeCode(ctx context.Context, code string) (*models.Token, error)

	// GetFile fetches metadata for one item; models.ErrNotFound on miss.
	GetFile(ctx context.Context, fileID string) (*models.File, error)

	// GetFiles lists a folder's immediate children, pagination flattened.
	GetFiles(ctx context.Context, folderID string) ([]models.File, error)

	// GetRecursiveFiles lists every non-folder descendant, each tagged with
	// its immediate parent id.
	GetRecursiveFiles(ctx context.Context, folderID string) ([]models.RecursiveFile, error)

	// GetRawFile fetches a file's bytes, preserving the backend's status.
	GetRawFile(ctx context.Context, fileID, rangeHeader string) (*models.RawResponse, error)
}
