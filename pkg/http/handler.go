package http

import "github.com/labstack/echo/v4"

// Handler mounts a group of routes on the server. The dashboard API is
// the only one today.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
