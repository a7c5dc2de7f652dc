package api

import (
	"errors"
	"net/http"

	"github.com/rentkit/rental-service/core/user"
)

type CreateUserRequestDto struct {
	*user.CreateUserRequest
	Password string `json:"password"`
}

func (d *CreateUserRequestDto) Bind(_ *http.Request) error {
	if d.CreateUserRequest == nil || d.Username == "" {
		return errors.New("username is required")
	}
	if d.Password == "" {
		return errors.New("password is required")
	}
	d.PlainTextPassword = d.Password
	return nil
}

type UserResponse struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

func NewUserResponse(u user.User) *UserResponse {
	return &UserResponse{Username: u.Username, IsAdmin: u.IsAdmin}
}

func (d *UserResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
