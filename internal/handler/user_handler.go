package handler

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"fsanano/checkout/internal/service"
)

type registerRequest struct {
	FullName string `json:"full_name" validate:"min=1,max=255"`
	Username string `json:"username" validate:"min=3,max=50"`
	Password string `json:"password" validate:"min=12,max=128"`
}

type userResponse struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	CreatedAt string `json:"created_at"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Username = strings.TrimSpace(req.Username)
	if err := h.check(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.FullName, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			err = &httpError{
				status: http.StatusConflict,
				detail: fmt.Sprintf("A user with the username '%s' already exists.", req.Username),
			}
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{
		Username:  user.Username,
		FullName:  user.FullName,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
}

// Login accepts an OAuth2 password form or a JSON body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := decodeJSON(r.Body, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			h.fail(w, r, invalid(newFieldError("Invalid form body", "body")))
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}
	if err := h.check(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
