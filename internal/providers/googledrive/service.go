package googledrive

import (
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

	"golang.org/x/sync/errgroup"
)

// ProviderTag is the path segment this provider is mounted under.
const ProviderTag = "google"

// Service is the Google Drive adapter. It is constructed fresh for every
// request so no token or config survives past a single request's handling.
type Service struct {
	httpClient   *http.Client
	streamClient *http.Client // no timeout, raw streams may run long
	baseURL      string
	authURL      string
	tokenURL     string
	config       *models.ProviderConfig
	rootFolder   string

	mu    sync.Mutex
	token *models.Token
}

// NewService creates a Google Drive adapter configured from the environment.
func NewService() (*Service, error) {
	config := &models.ProviderConfig{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
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
		baseURL:      "https://www.googleapis.com/drive/v3",
		authURL:      "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:     "https://oauth2.googleapis.com/token",
		config:       config,
		rootFolder:   os.Getenv("GOOGLE_ROOT_FOLDER"),
	}, nil
}

// Provider returns the provider tag.
func (s *Service) Provider() string {
	return ProviderTag
}

// RootFolder returns the configured root folder id.
func (s *Service) RootFolder() string {
	return s.rootFolder
}

// Token returns the currently held token, or nil.
func (s *Service) Token() *models.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken replaces the held token. Passing nil clears it; every handler
// must do so before its response is written.
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
	params.Set("scope", "https://www.googleapis.com/auth/drive.readonly")
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	return s.authURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token and holds it.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*models.Token, error) {
	s.SetToken(nil)

	data := url.Values{}
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)
	data.Set("redirect_uri", s.config.RedirectURI)
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)

	var resp TokenResponse
	if !s.postForm(ctx, s.tokenURL, data, &resp) || resp.AccessToken == "" {
		return nil, fmt.Errorf("google: token exchange failed")
	}

	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	token := &models.Token{
		AccessToken:  resp.AccessToken,
		ExpiryDate:   time.Now().UnixMilli() + expiresIn*1000,
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

	params := url.Values{}
	params.Set("fields", "id, name, mimeType, size, parents")
	params.Set("key", s.config.ClientID)

	var file File
	address := fmt.Sprintf("%s/files/%s?%s", s.baseURL, url.PathEscape(fileID), params.Encode())
	if !s.getJSON(ctx, access, address, &file) || file.ID == "" {
		return nil, models.ErrNotFound
	}

	item := toItem(file)
	return &item, nil
}

// GetFiles lists the immediate children of a folder, transparently following
// pagination until exhausted. A failed page yields whatever was collected so
// far instead of an error.
func (s *Service) GetFiles(ctx context.Context, folderID string) ([]models.File, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	files := make([]models.File, 0)
	pageToken := ""
	for {
		params := url.Values{}
		params.Set("q", fmt.Sprintf("'%s' in parents and trashed = false", folderID))
		params.Set("fields", "nextPageToken, files(id, name, mimeType, size, parents)")
		params.Set("orderBy", "folder, name")
		params.Set("pageSize", "1000")
		params.Set("key", s.config.ClientID)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page ListResponse
		if !s.getJSON(ctx, access, s.baseURL+"/files?"+params.Encode(), &page) {
			return files, nil
		}

		for _, file := range page.Files {
			files = append(files, toItem(file))
		}

		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetRecursiveFiles walks the folder tree below folderID and returns every
// non-folder descendant tagged with its immediate parent. Sibling folders
// are walked concurrently; a failed branch contributes an empty subsequence
// rather than aborting the others.
func (s *Service) GetRecursiveFiles(ctx context.Context, folderID string) ([]models.RecursiveFile, error) {
	children, err := s.GetFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	files := make([]models.RecursiveFile, 0, len(children))
	var folders []models.File
	for _, child := range children {
		if child.IsFolder {
			folders = append(folders, child)
			continue
		}
		files = append(files, models.RecursiveFile{File: child, Parent: folderID})
	}

	subtrees := make([][]models.RecursiveFile, len(folders))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, folder := range folders {
		group.Go(func() error {
			subtree, err := s.GetRecursiveFiles(groupCtx, folder.Location)
			if err == nil {
				subtrees[i] = subtree
			}
			return nil
		})
	}
	_ = group.Wait()

	for _, subtree := range subtrees {
		files = append(files, subtree...)
	}

	return files, nil
}

// GetRawFile fetches the raw bytes of a file, passing an optional Range
// header through to the backend. The backend's status is preserved for the
// proxy layer; the body is not buffered.
func (s *Service) GetRawFile(ctx context.Context, fileID, rangeHeader string) (*models.RawResponse, error) {
	access, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	address := fmt.Sprintf("%s/files/%s?alt=media", s.baseURL, url.PathEscape(fileID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+access)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.streamClient.Do(req)
	if err != nil {
		return nil, err
	}

	return models.NewRawResponse(resp), nil
}

// authenticate guarantees a valid access token before an authenticated call,
// refreshing the held token if it has expired. Google may omit the refresh
// token from a refresh response, in which case the previous one is retained.
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
	data.Set("client_id", s.config.ClientID)
	data.Set("client_secret", s.config.ClientSecret)
	data.Set("refresh_token", s.token.RefreshToken)
	data.Set("grant_type", "refresh_token")

	var resp TokenResponse
	if !s.postForm(ctx, s.tokenURL, data, &resp) || resp.AccessToken == "" {
		s.token = nil
		return "", models.ErrAuthRequired
	}

	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = s.token.RefreshToken
	}
	expiresIn := resp.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	s.token = &models.Token{
		AccessToken:  resp.AccessToken,
		ExpiryDate:   time.Now().UnixMilli() + expiresIn*1000,
		RefreshToken: refreshToken,
	}

	return s.token.AccessToken, nil
}

// getJSON performs an authenticated GET and decodes the JSON body. Any
// network, status, or decode failure reports false; raw errors never cross
// the adapter boundary.
func (s *Service) getJSON(ctx context.Context, access, address string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, address, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+access)

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

// postForm performs a form-encoded POST and decodes the JSON body.
func (s *Service) postForm(ctx context.Context, address string, data url.Values, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, address, strings.NewReader(data.Encode()))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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

// toItem converts a Drive API item to the provider-agnostic model.
func toItem(file File) models.File {
	var size int64
	if file.Size != "" {
		fmt.Sscanf(file.Size, "%d", &size)
	}

	return models.File{
		FileName: file.Name,
		IsFolder: file.MimeType == FolderMimeType,
		Location: file.ID,
		MimeType: file.MimeType,
		Size:     size,
	}
}
