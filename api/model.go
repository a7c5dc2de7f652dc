package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/rentkit/rental-service/core"
	"github.com/rs/zerolog/log"
)

//--
// Error response payloads & renderers
//--

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string `json:"status"`          // user-level status message
	AppCode    int64  `json:"code,omitempty"`  // application-specific error code
	ErrorText  string `json:"error,omitempty"` // application-level error message, for debugging
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}

var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}

var ErrConflict = &ErrResponse{
	HTTPStatusCode: http.StatusConflict,
	StatusText:     "Conflict.",
	ErrorText:      "The request conflicts with the current state of the resource.",
}

var ErrUnprocessable = &ErrResponse{
	HTTPStatusCode: http.StatusUnprocessableEntity,
	StatusText:     "Unprocessable entity.",
	ErrorText:      "The request would violate a data integrity rule.",
}

// RenderErr maps the domain error taxonomy onto HTTP statuses so handlers
// do not each re-invent the mapping.
func RenderErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		Render(w, r, ErrNotFound)
	case errors.Is(err, core.ErrInvalidArgument):
		Render(w, r, ErrInvalidRequest(core.ErrInvalidArgument))
	case errors.Is(err, core.ErrInsufficientStock):
		Render(w, r, &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusConflict,
			StatusText:     "Conflict.",
			ErrorText:      core.ErrInsufficientStock.Error(),
		})
	case errors.Is(err, core.ErrInvalidStateTransition):
		Render(w, r, &ErrResponse{
			Err:            err,
			HTTPStatusCode: http.StatusConflict,
			StatusText:     "Conflict.",
			ErrorText:      core.ErrInvalidStateTransition.Error(),
		})
	case errors.Is(err, core.ErrConcurrencyConflict):
		Render(w, r, ErrConflict)
	case errors.Is(err, core.ErrDataIntegrity):
		Render(w, r, ErrUnprocessable)
	default:
		log.Err(err).Send()
		Render(w, r, ErrInternalServer)
	}
}
