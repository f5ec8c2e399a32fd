package server

import (
	"net/http"

	"stencil/internal/gateway/handler"
	"stencil/internal/gateway/middleware"
)

func NewMux(s *handler.Service) http.Handler {
	return middleware.CORS(handler.BuildMux(s))
}
