package gateway

import (
	"drive-gateway/internal/providers/dropbox"
	"drive-gateway/internal/providers/googledrive"
	"drive-gateway/pkg/models"
)

// providerTags lists every provider the gateway mounts.
var providerTags = []string{googledrive.ProviderTag, dropbox.ProviderTag}

// NewDrive constructs a fresh, unauthenticated adapter for a provider tag.
func NewDrive(provider string) (Drive, error) {
	switch provider {
	case googledrive.ProviderTag:
		drive, err := googledrive.NewService()
		if err != nil {
			return nil, err
		}
		return drive, nil
	case dropbox.ProviderTag:
		drive, err := dropbox.NewService()
		if err != nil {
			return nil, err
		}
		return drive, nil
	default:
		return nil, models.ErrInvalidProvider
	}
}
