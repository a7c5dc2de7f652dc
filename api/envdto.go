package api

import (
	"net/http"

	"github.com/rentkit/rental-service/config"
)

type EnvResponse struct {
	config.Config
}

func NewEnvResponse(cfg config.Config) *EnvResponse {
	return &EnvResponse{Config: cfg}
}

func (e *EnvResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	Scrub(&e.Config)
	return nil
}
