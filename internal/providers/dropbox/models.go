package dropbox

// File is the wire format of a Dropbox metadata entry.
type File struct {
	Tag         string `json:".tag"` // "file" or "folder"
	Name        string `json:"name"`
	ID          string `json:"id"`
	PathLower   string `json:"path_lower"`
	PathDisplay string `json:"path_display"`
	Size        int64  `json:"size"`
}

// ListResponse is the wire format of list_folder and list_folder/continue.
type ListResponse struct {
	Entries []File `json:"entries"`
	Cursor  string `json:"cursor"`
	HasMore bool   `json:"has_more"`
}

// TokenResponse is the wire format of the OAuth token endpoint.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// listFolderRequest is the body of a list_folder call.
type listFolderRequest struct {
	Path                            string `json:"path"`
	Recursive                       bool   `json:"recursive"`
	IncludeMediaInfo                bool   `json:"include_media_info"`
	IncludeDeleted                  bool   `json:"include_deleted"`
	IncludeHasExplicitSharedMembers bool   `json:"include_has_explicit_shared_members"`
	IncludeMountedFolders           bool   `json:"include_mounted_folders"`
	IncludeNonDownloadableFiles     bool   `json:"include_non_downloadable_files"`
}
