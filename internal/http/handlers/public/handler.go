package public

import "github.com/edoto/marketplace/internal/provider"

// Handler serves the public and client-facing API.
type Handler struct {
	*provider.Container
}

// New creates the public handler.
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
