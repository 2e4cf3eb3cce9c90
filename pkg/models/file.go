package models

// File represents a single item in a cloud storage backend. It is built
// fresh from the provider's wire format on every call and never persisted.
type File struct {
	FileName string `json:"fileName"`
	IsFolder bool   `json:"isFolder"`
	Location string `json:"location"` // provider-local id, opaque outside its provider
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// RecursiveFile is a File tagged with its immediate parent folder id.
// Produced only by recursive listings.
type RecursiveFile struct {
	File
	Parent string `json:"parent"`
}
