package gateway

import (
	"drive-gateway/pkg/models"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
)

// passthroughHeaders are copied from the backend response so ranged
// requests keep their byte accounting.
var passthroughHeaders = []string{
	echo.HeaderContentLength,
	"Content-Range",
	"Accept-Ranges",
}

// relay pipes a backend byte stream through to the caller. A non-2xx
// backend status is surfaced as-is with its reason text. On success the
// body is streamed without buffering, so backpressure reaches the backend
// and large files never accumulate in memory.
func relay(c echo.Context, raw *models.RawResponse, file *models.File, inline bool) error {
	defer raw.Body.Close()

	if !raw.OK() {
		return c.String(raw.StatusCode, raw.Reason)
	}

	header := c.Response().Header()
	for _, name := range passthroughHeaders {
		if value := raw.Header.Get(name); value != "" {
			header.Set(name, value)
		}
	}

	header.Set(echo.HeaderContentType, file.MimeType)
	if inline {
		header.Set(echo.HeaderContentDisposition, "inline")
	} else {
		header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.FileName))
	}

	c.Response().WriteHeader(raw.StatusCode)
	_, err := io.Copy(c.Response(), raw.Body)
	return err
}
