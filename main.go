package main

import (
	"drive-gateway/internal/gateway"
	"drive-gateway/internal/middleware"
	"drive-gateway/internal/notify"
	"drive-gateway/internal/sharelink"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load .env file for local development (ignored in Docker)
	if os.Getenv("DOCKER_ENV") == "" {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("No .env file found, using system environment variables")
		}
	}

	e := echo.New()
	if err := initialize(e); err != nil {
		log.Fatal(err)
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("Starting drive gateway on " + addr)
	log.Fatal(http.ListenAndServe(addr, e))
}

func initialize(e *echo.Echo) error {
	links, err := newLinkStore()
	if err != nil {
		return err
	}

	gatewayHandler := gateway.NewHandler(links)
	gatewayHandler.RegisterRoutes(e)

	notifyHandler := notify.NewHandler(notify.NewService())
	notifyHandler.RegisterRoutes(e)

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORSConfig())

	return nil
}

// newLinkStore picks the durable store when a database path is configured,
// and falls back to the in-process one otherwise.
func newLinkStore() (sharelink.Store, error) {
	path := os.Getenv("SHARELINK_DB")
	if path == "" {
		log.Println("SHARELINK_DB not set, share links will not survive restarts")
		return sharelink.NewMemoryStore(), nil
	}

	return sharelink.NewSQLiteStore(path, slog.Default())
}
