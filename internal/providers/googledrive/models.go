package googledrive

// FolderMimeType is how the Drive API marks folder items.
const FolderMimeType = "application/vnd.google-apps.folder"

// File is the wire format of a Drive API item.
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     string `json:"size"` // Drive returns size as a decimal string
}

// ListResponse is the wire format of a files.list page.
type ListResponse struct {
	NextPageToken string `json:"nextPageToken,omitempty"`
	Files         []File `json:"files"`
}

// TokenResponse is the wire format of the OAuth token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}
