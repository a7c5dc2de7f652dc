package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rentkit/rental-service/core/user"
)

var (
	errInvalidLimit  = errors.New("invalid limit")
	errInvalidOffset = errors.New("invalid offset")
)

type CtxKey string

const (
	CtxKeyLimit  CtxKey = "limit"
	CtxKeyOffset CtxKey = "offset"
	CtxKeyUser   CtxKey = "user"
	CtxKeyItem   CtxKey = "item"
	CtxKeyRental CtxKey = "rental"
)

const DefaultPageLimit = 50

// Paginate parses limit and offset query parameters and stores them in the
// request context for list handlers.
func Paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultPageLimit
		offset := 0

		var err error
		limitParam := r.URL.Query().Get("limit")
		if limitParam != "" {
			limit, err = strconv.Atoi(limitParam)
			if err != nil || limit < 1 {
				Render(w, r, ErrInvalidRequest(errInvalidLimit))
				return
			}
		}
		offsetParam := r.URL.Query().Get("offset")
		if offsetParam != "" {
			offset, err = strconv.Atoi(offsetParam)
			if err != nil || offset < 0 {
				Render(w, r, ErrInvalidRequest(errInvalidOffset))
				return
			}
		}

		ctx := context.WithValue(r.Context(), CtxKeyLimit, limit)
		ctx = context.WithValue(ctx, CtxKeyOffset, offset)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserAccess is the slice of the user service the middleware needs.
type UserAccess interface {
	Login(ctx context.Context, username, password string) (user.User, error)
}

// Authenticate verifies basic auth credentials and stores the authenticated
// user in the request context.
func Authenticate(userService UserAccess) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				authErr(w, r)
				return
			}

			u, err := userService.Login(r.Context(), username, password)
			if err != nil {
				authErr(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), CtxKeyUser, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects requests from authenticated users that lack the admin
// flag. It must run after Authenticate.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := r.Context().Value(CtxKeyUser).(user.User)
		if !ok || !u.IsAdmin {
			authErr(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func authErr(w http.ResponseWriter, r *http.Request) {
	Render(w, r, &ErrResponse{
		HTTPStatusCode: http.StatusUnauthorized,
		StatusText:     "Unauthorized.",
	})
}
