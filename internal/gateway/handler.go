package gateway

import (
	"drive-gateway/internal/sharelink"
	"drive-gateway/pkg/models"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler serves the provider-agnostic HTTP surface: listings, metadata,
// byte streaming, the OAuth flow, and share link issuance and redemption.
type Handler struct {
	links    sharelink.Store
	newDrive func(provider string) (Drive, error)
}

// NewHandler creates a gateway handler backed by the given link store.
func NewHandler(links sharelink.Store) *Handler {
	return &Handler{
		links:    links,
		newDrive: NewDrive,
	}
}

// RegisterRoutes registers the per-provider groups and the top-level routes
// with the Echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	for _, provider := range providerTags {
		g := e.Group("/"+provider, h.requireDriveAuth(provider))
		g.GET("", h.handleListRoot)
		g.GET("/", h.handleListRoot)
		g.GET("/auth", h.handleAuth)
		g.GET("/oauth2callback", h.handleOAuthCallback)
		g.GET("/file/:id", h.handleFileMeta)
		g.GET("/file/:id/stream", h.handleStream)
		g.GET("/file/:id/download", h.handleDownload)
		g.GET("/kv/write/:id", h.handleIssueLink)
		g.GET("/:path", h.handleListFolder)
		g.GET("/:path/recursive", h.handleListRecursive)
	}

	e.GET("/", h.handleWelcome)
	e.GET("/health", h.handleHealth)
	e.GET("/:uuid", h.handleRedeemLink)
}

// handleHealth returns the health status of the gateway.
func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "healthy",
		"providers": providerTags,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Welcome to the cloud drive API",
	})
}

// handleAuth redirects to the provider's consent screen.
func (h *Handler) handleAuth(c echo.Context) error {
	return c.Redirect(http.StatusFound, driveFrom(c).AuthURL())
}

// handleOAuthCallback exchanges the authorization code for a token and
// returns it to the client as an opaque base64 blob.
func (h *Handler) handleOAuthCallback(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)

	code := c.QueryParam("code")
	if code == "" {
		return c.String(http.StatusBadRequest, "Missing code")
	}

	token, err := drive.ExchangeCode(c.Request().Context(), code)
	if err != nil {
		return c.String(http.StatusInternalServerError, "Failed to get token")
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token.Encode()})
}

// handleListRoot lists the immediate children of the provider's root.
func (h *Handler) handleListRoot(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)

	files, err := drive.GetFiles(c.Request().Context(), drive.RootFolder())
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return c.JSON(http.StatusOK, files)
}

// handleListFolder returns a folder's metadata plus its immediate children.
func (h *Handler) handleListFolder(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)
	ctx := c.Request().Context()

	parent, err := drive.GetFile(ctx, c.Param("path"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if !parent.IsFolder {
		return c.String(http.StatusBadRequest, "Not a folder")
	}

	files, err := drive.GetFiles(ctx, parent.Location)
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return c.JSON(http.StatusOK, ListingResponse{Parent: parent, Files: files})
}

// handleListRecursive returns a folder's metadata plus every non-folder
// descendant, each tagged with its immediate parent.
func (h *Handler) handleListRecursive(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)
	ctx := c.Request().Context()

	parent, err := drive.GetFile(ctx, c.Param("path"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if !parent.IsFolder {
		return c.String(http.StatusBadRequest, "Not a folder")
	}

	files, err := drive.GetRecursiveFiles(ctx, parent.Location)
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return c.JSON(http.StatusOK, RecursiveListingResponse{Parent: parent, Files: files})
}

// handleFileMeta returns metadata for a single file.
func (h *Handler) handleFileMeta(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)

	file, err := drive.GetFile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if file.IsFolder {
		return c.String(http.StatusBadRequest, "Not a file")
	}

	return c.JSON(http.StatusOK, file)
}

// handleStream serves a file inline, passing the caller's Range header
// through to the backend.
func (h *Handler) handleStream(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)
	ctx := c.Request().Context()

	file, err := drive.GetFile(ctx, c.Param("id"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if file.IsFolder {
		return c.String(http.StatusBadRequest, "Not a file")
	}

	raw, err := drive.GetRawFile(ctx, file.Location, c.Request().Header.Get("Range"))
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return relay(c, raw, file, true)
}

// handleDownload serves a file with attachment disposition.
func (h *Handler) handleDownload(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)
	ctx := c.Request().Context()

	file, err := drive.GetFile(ctx, c.Param("id"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if file.IsFolder {
		return c.String(http.StatusBadRequest, "Not a file")
	}

	raw, err := drive.GetRawFile(ctx, file.Location, "")
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return relay(c, raw, file, false)
}

// handleIssueLink freezes the request's token into a TTL-bound share link
// record and returns the link id. The default disposition is inline;
// download=true selects attachment.
func (h *Handler) handleIssueLink(c echo.Context) error {
	drive := driveFrom(c)
	defer drive.SetToken(nil)
	ctx := c.Request().Context()

	file, err := drive.GetFile(ctx, c.Param("id"))
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if file.IsFolder {
		return c.String(http.StatusBadRequest, "Cannot write folder")
	}

	token := drive.Token()
	if token == nil {
		return c.String(http.StatusInternalServerError, "Failed to get token")
	}

	id, err := h.links.Issue(ctx, sharelink.Record{
		Provider: drive.Provider(),
		FileID:   file.Location,
		Token:    *token,
		Inline:   c.QueryParam("download") != "true",
	})
	if err != nil {
		c.Logger().Errorf("storing share link failed: %v", err)
		return c.String(http.StatusInternalServerError, "Failed to store link")
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id})
}

// handleRedeemLink reconstructs an adapter from a stored share link record
// and streams the file it points at, without the caller ever holding
// credentials.
func (h *Handler) handleRedeemLink(c echo.Context) error {
	ctx := c.Request().Context()

	rec, err := h.links.Redeem(ctx, c.Param("uuid"))
	if err != nil {
		return c.String(http.StatusNotFound, "Not Found")
	}

	drive, err := h.newDrive(rec.Provider)
	if err != nil {
		return c.String(http.StatusNotFound, "Not Found")
	}
	drive.SetToken(&rec.Token)
	defer drive.SetToken(nil)

	file, err := drive.GetFile(ctx, rec.FileID)
	if err != nil {
		return h.driveError(c, drive, err)
	}
	if file.IsFolder {
		return c.String(http.StatusBadRequest, "Not a file")
	}

	raw, err := drive.GetRawFile(ctx, rec.FileID, c.Request().Header.Get("Range"))
	if err != nil {
		return h.driveError(c, drive, err)
	}

	return relay(c, raw, file, rec.Inline)
}

// driveError maps adapter errors to the HTTP boundary: a missing item is a
// 404, a dead token is a consent redirect, anything else is an upstream
// failure.
func (h *Handler) driveError(c echo.Context, drive Drive, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.String(http.StatusNotFound, "Not Found")
	case errors.Is(err, models.ErrAuthRequired):
		return c.Redirect(http.StatusFound, drive.AuthURL())
	default:
		c.Logger().Errorf("backend request failed: %v", err)
		return c.String(http.StatusBadGateway, "Upstream request failed")
	}
}
