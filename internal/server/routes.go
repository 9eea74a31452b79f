package server

import "github.com/labstack/echo/v4"

// Router は RegisterRoutes を持つハンドラ。
type Router interface {
	RegisterRoutes(e *echo.Echo)
}

func RegisterRoutes(e *echo.Echo, routers ...Router) {
	for _, r := range routers {
		r.RegisterRoutes(e)
	}
}
