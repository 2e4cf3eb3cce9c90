package dropbox

import (
	"context"
	"drive-gateway/pkg/models"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(apiURL, contentURL, tokenURL string) *Service {
	return &Service{
		httpClient:   &http.Client{},
		streamClient: &http.Client{},
		apiURL:       apiURL,
		contentURL:   contentURL,
		authURL:      "https://www.dropbox.example.com/oauth2/authorize",
		tokenURL:     tokenURL,
		config: &models.ProviderConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			RedirectURI:  "http://localhost:8080/dropbox/oauth2callback",
		},
	}
}

func validToken() *models.Token {
	return &models.Token{
		AccessToken:  "valid-access",
		ExpiryDate:   time.Now().Add(time.Hour).UnixMilli(),
		RefreshToken: "valid-refresh",
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(data))
}

func TestGetFilesFollowsCursor(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/list_folder":
			var req listFolderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "/photos", req.Path)
			assert.False(t, req.Recursive)

			writeJSON(t, w, ListResponse{
				Entries: []File{
					{Tag: "file", Name: "a.jpg", ID: "id:a", PathLower: "/photos/a.jpg", Size: 10},
					{Tag: "folder", Name: "albums", ID: "id:albums", PathLower: "/photos/albums"},
				},
				Cursor:  "cursor-1",
				HasMore: true,
			})
		case "/files/list_folder/continue":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "cursor-1", req["cursor"])

			writeJSON(t, w, ListResponse{
				Entries: []File{
					{Tag: "file", Name: "b.png", ID: "id:b", PathLower: "/photos/b.png", Size: 20},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer apiServer.Close()

	service := newTestService(apiServer.URL, "", "")
	service.SetToken(validToken())

	files, err := service.GetFiles(context.Background(), "/photos")
	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "a.jpg", files[0].FileName)
	assert.Equal(t, "image/jpeg", files[0].MimeType)
	assert.Equal(t, "albums", files[1].FileName)
	assert.True(t, files[1].IsFolder)
	assert.Equal(t, "b.png", files[2].FileName, "continuation entries follow first page")
}

func TestGetRecursiveFilesSingleBackendCall(t *testing.T) {
	var listCalls atomic.Int32
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/list_folder", r.URL.Path)
		listCalls.Add(1)

		var req listFolderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Recursive, "dropbox lists the whole subtree server-side")

		writeJSON(t, w, ListResponse{
			Entries: []File{
				{Tag: "folder", Name: "f1", ID: "id:f1", PathLower: "/root/f1"},
				{Tag: "folder", Name: "f2", ID: "id:f2", PathLower: "/root/f2"},
				{Tag: "file", Name: "l1.txt", ID: "id:l1", PathLower: "/root/f1/l1.txt", Size: 1},
				{Tag: "file", Name: "l2.txt", ID: "id:l2", PathLower: "/root/f2/l2.txt", Size: 2},
			},
		})
	}))
	defer apiServer.Close()

	service := newTestService(apiServer.URL, "", "")
	service.SetToken(validToken())

	files, err := service.GetRecursiveFiles(context.Background(), "/root")
	require.NoError(t, err)
	require.Len(t, files, 2, "folders are filtered out")

	parents := make(map[string]string, len(files))
	for _, file := range files {
		parents[file.Location] = file.Parent
	}
	assert.Equal(t, map[string]string{"id:l1": "/root/f1", "id:l2": "/root/f2"}, parents)
	assert.Equal(t, int32(1), listCalls.Load())
}

func TestGetRecursiveFilesBackendFailure(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer apiServer.Close()

	service := newTestService(apiServer.URL, "", "")
	service.SetToken(validToken())

	files, err := service.GetRecursiveFiles(context.Background(), "/root")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestGetFile(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/get_metadata", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req["path"] != "id:known" {
			// Dropbox reports unknown paths with a 409 error body.
			w.WriteHeader(http.StatusConflict)
			return
		}

		writeJSON(t, w, File{Tag: "file", Name: "movie.mp4", ID: "id:known", PathLower: "/media/movie.mp4", Size: 500})
	}))
	defer apiServer.Close()

	service := newTestService(apiServer.URL, "", "")
	service.SetToken(validToken())

	file, err := service.GetFile(context.Background(), "id:known")
	require.NoError(t, err)
	assert.Equal(t, "movie.mp4", file.FileName)
	assert.Equal(t, "video/mp4", file.MimeType)
	assert.EqualValues(t, 500, file.Size)

	_, err = service.GetFile(context.Background(), "id:missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetRawFileSendsAPIArg(t *testing.T) {
	contentServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/files/download", r.URL.Path)
		assert.JSONEq(t, `{"path":"id:file"}`, r.Header.Get("Dropbox-API-Arg"))
		assert.Equal(t, "bytes=0-99", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
	}))
	defer contentServer.Close()

	service := newTestService("", contentServer.URL, "")
	service.SetToken(validToken())

	raw, err := service.GetRawFile(context.Background(), "id:file", "bytes=0-99")
	require.NoError(t, err)
	defer raw.Body.Close()

	assert.Equal(t, http.StatusPartialContent, raw.StatusCode)
}

func TestAuthenticateRetainsRefreshToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old-refresh", r.URL.Query().Get("refresh_token"))

		// Dropbox refresh responses carry no refresh token.
		writeJSON(t, w, TokenResponse{AccessToken: "new-access", ExpiresIn: 14400})
	}))
	defer tokenServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer new-access", r.Header.Get("Authorization"))
		writeJSON(t, w, ListResponse{})
	}))
	defer apiServer.Close()

	service := newTestService(apiServer.URL, "", tokenServer.URL)
	service.SetToken(&models.Token{
		AccessToken:  "stale-access",
		ExpiryDate:   time.Now().Add(-time.Minute).UnixMilli(),
		RefreshToken: "old-refresh",
	})

	_, err := service.GetFiles(context.Background(), "")
	require.NoError(t, err)

	token := service.Token()
	require.NotNil(t, token)
	assert.Equal(t, "new-access", token.AccessToken)
	assert.Equal(t, "old-refresh", token.RefreshToken)
}

func TestAuthenticateRefreshFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	service := newTestService("", "", tokenServer.URL)
	service.SetToken(&models.Token{
		AccessToken:  "stale-access",
		ExpiryDate:   time.Now().Add(-time.Minute).UnixMilli(),
		RefreshToken: "old-refresh",
	})

	_, err := service.GetFiles(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrAuthRequired)
	assert.Nil(t, service.Token())
}

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"report.pdf", "application/pdf"},
		{"IMAGE.JPG", "image/jpeg"},
		{"video.mkv", "video/x-matroska"},
		{"song.m4a", "audio/mp4"},
		{"archive.unknown-ext", "application/octet-stream"},
		{"no-extension", "application/octet-stream"},
		{"trailing.", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MimeTypeFor(tt.name), tt.name)
	}
}

func TestAuthURL(t *testing.T) {
	service := newTestService("", "", "")

	authURL := service.AuthURL()
	assert.Contains(t, authURL, "client_id=test-client-id")
	assert.Contains(t, authURL, "token_access_type=offline")
	assert.Contains(t, authURL, "response_type=code")
}
