package dropbox

import (
	"bytes"
	"context"
	"drive-gateway/pkg/models"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ProviderTag is the path segment this provider is mounted under.
const ProviderTag = "dropbox"

// Service is the Dropbox adapter. Unlike Google Drive, Dropbox can list a
// whole subtree in one backend call, so recursive listing needs no
// gateway-side traversal; the difference is hidden behind the same
// observable output shape.
type Service struct {
	httpClient   *http.Client
	streamClient *http.Client // no timeout, raw streams may run long
	apiURL       string
	contentURL   string
	authURL      string
	tokenURL     string
	config       *models.ProviderConfig

	mu    sync.Mutex
	token *models.Token
}

// NewService creates a Dropbox adapter configured from the environment.
func NewService() (*Service, error) {
	config := &models.ProviderConfig{
		ClientID:     os.Getenv("DROPBOX_CLIENT_ID"),
		ClientSecret: os.Getenv("DROPBOX_CLIENT_SECRET"),
	}
	if base := os.Getenv("BASE_URL"); base != "" {
		config.RedirectURI = base + "/" + ProviderTag + "/oauth2callback"
	}
	if !config.Complete() {
		return nil, models.ErrConfigNotSet
	}

	return &Service{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		streamClient: &http.Client{},
		apiURL:       "https://api.dropboxapi.com/2",
		contentURL:   "https://content.dropboxapi.com/2",
		authURL:      "https://www.dropbox.com/oauth2/authorize",
		tokenURL:     "https://api.dropboxapi.com/oauth2/token",
		config:       config,
	}, nil
}

// Provider returns the provider tag.
func (s *Service) Provider() string {
	return ProviderTag
}

// RootFolder returns the Dropbox root, which is the empty path.
func (s *Service) RootFolder() string {
	return ""
}

// Token returns the currently held token, or nil.
func (s *Service) Token() *models.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the held token. Passing nil clears it.
func (s *Service) SetToken(token *models.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// AuthURL builds the consent screen URL for the configured client.
func (s *Service) AuthURL() string {
	params := url.Values{}
	params.Set("client_id", s.config.ClientID)
	params.Set("redirect_uri", s.config.RedirectURI)
	params.Set("response_type", "code")
	params.Set("token_access_type", "offline")
	params.Set("scope", "files.metadata.read files.content.read")

	return s.authURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token and holds it.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	s.SetToken(nil)

	data := url.Values{}
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)
	data.Set("redirect_uri", s.config.RedirectURI)

	var resp TokenResponse
	if !s.postToken(ctx, data, &resp) || resp.AccessToken == "" {
		return nil, fmt.Errorf("dropbox: token exchange failed")
	}

	token := &models.Token{
		AccessToken:  resp.AccessToken,
		ExpiryDate:   time.Now().UnixMilli() + resp.ExpiresIn*1000,
		RefreshToken: resp.RefreshToken,
	}
	s.SetToken(token)

	return token, nil
}

// GetFile fetches metadata for a single item.
func (s *Service) GetFile(ctx context.Context, fileID string) (*models.File, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	var file File
	if !s.postJSON(ctx, access, s.apiURL+"/files/get_metadata", map[string]string{"path": fileID}, &file) || file.ID == "" {
		return nil, models.ErrNotFound
	}

	item := parseEntry(file).File
	return &item, nil
}

// GetFiles lists the immediate children of a folder, following the
// list_folder cursor until has_more is exhausted.
func (s *Service) GetFiles(ctx context.Context, folderID string) ([]models.File, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	entries := s.listFolder(ctx, access, folderID, false)
	files := make([]models.File, 0, len(entries))
	for _, entry := range entries {
		files = append(files, entry.File)
	}

	return files, nil
}

// GetRecursiveFiles lists every non-folder descendant of a folder in one
// recursive backend call, tagging each with its immediate parent.
func (s *Service) GetRecursiveFiles(ctx context.Context, folderID string) ([]models.RecursiveFile, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	entries := s.listFolder(ctx, access, folderID, true)
	files := make([]models.RecursiveFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsFolder {
			continue
		}
		files = append(files, entry)
	}

	return files, nil
}

// GetRawFile fetches the raw bytes of a file through the content endpoint,
// passing an optional Range header through.
func (s *Service) GetRawFile(ctx context.Context, fileID, rangeHeader string) (*models.RawResponse, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	arg, err := json.Marshal(map[string]string{"path": fileID})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.contentURL+"/files/download", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Dropbox-API-Arg", string(arg))
	req.Header.Set("Content-Type", "application/octet-stream")
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.streamClient.Do(req)
	if err != nil {
		return nil, err
	}

	return models.NewRawResponse(resp), nil
}

// listFolder retrieves a folder listing, flattening continuation pages into
// one sequence. A failed page yields whatever was collected so far.
func (s *Service) listFolder(ctx context.Context, access, folderID string, recursive bool) []models.RecursiveFile {
	request := listFolderRequest{
		Path:                        folderID,
		Recursive:                   recursive,
		IncludeMediaInfo:            true,
		IncludeMountedFolders:       true,
		IncludeNonDownloadableFiles: true,
	}

	files := make([]models.RecursiveFile, 0)

	var page ListResponse
	if !s.postJSON(ctx, access, s.apiURL+"/files/list_folder", request, &page) {
		return files
	}

	for _, entry := range page.Entries {
		files = append(files, parseEntry(entry))
	}

	for page.HasMore {
		cursor := page.Cursor
		page = ListResponse{}
		if !s.postJSON(ctx, access, s.apiURL+"/files/list_folder/continue", map[string]string{"cursor": cursor}, &page) {
			break
		}

		for _, entry := range page.Entries {
			files = append(files, parseEntry(entry))
		}
	}

	return files
}

// authenticate guarantees a valid access token before an authenticated
// call, refreshing the held token if it has expired. Dropbox refresh
// responses omit the refresh token, so the previous one is retained.
func (s *Service) authenticate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil && !s.token.IsExpired() {
		return s.token.AccessToken, nil
	}

	if s.token == nil || s.token.RefreshToken == "" {
		s.token = nil
		return "", models.ErrAuthRequired
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", s.token.RefreshToken)
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)

	var resp TokenResponse
	if !s.postToken(ctx, data, &resp) || resp.AccessToken == "" {
		s.token = nil
		return "", models.ErrAuthRequired
	}

	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = s.token.RefreshToken
	}
	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 14400
	}

	s.token = &models.Token{
		AccessToken:  resp.AccessToken,
		ExpiryDate:   time.Now().UnixMilli() + expiresIn*1000,
		RefreshToken: refreshToken,
	}

	return s.token.AccessToken, nil
}

// postToken performs a token-endpoint POST. Dropbox accepts the grant
// parameters in the query string.
func (s *Service) postToken(ctx context.Context, data url.Values, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL+"?"+data.Encode(), nil)
	if err != nil {
		return false
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	return json.NewDecoder(resp.Body).Decode(out) == nil
}

// postJSON performs an authenticated RPC-style POST with a JSON body. Any
// network, status, or decode failure reports false.
func (s *Service) postJSON(ctx context.Context, access, address string, body any, out any) bool {
	payload, err := json.Marshal(body)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	return json.NewDecoder(resp.Body).Decode(out) == nil
}

// parseEntry converts a Dropbox entry to the provider-agnostic model. The
// parent is the directory portion of the entry's lowercased path, so the
// root folder's children get parent "".
func parseEntry(file File) models.RecursiveFile {
	isFolder := file.Tag == "folder"

	mimeType := MimeTypeFor(file.Name)
	if isFolder {
		mimeType = FolderMimeType
	}

	parent := ""
	if idx := strings.LastIndex(file.PathLower, "/"); idx > 0 {
		parent = file.PathLower[:idx]
	}

	return models.RecursiveFile{
		File: models.File{
			FileName: file.Name,
			IsFolder: isFolder,
			Location: file.ID,
			MimeType: mimeType,
			Size:     file.Size,
		},
		Parent: parent,
	}
}
