package gateway

import "drive-gateway/pkg/models"

// ListingResponse is the body of a folder listing: the folder itself plus
// its immediate children.
type ListingResponse struct {
	Parent *models.File  `json:"parent"`
	Files  []models.File `json:"files"`
}

// RecursiveListingResponse is the body of a recursive listing: the folder
// itself plus every non-folder descendant.
type RecursiveListingResponse struct {
	Parent *models.File           `json:"parent"`
	Files  []models.RecursiveFile `json:"files"`
}
