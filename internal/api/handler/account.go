package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mcoot/rasync/internal/api/request"
	"github.com/mcoot/rasync/internal/api/response"
	"github.com/mcoot/rasync/internal/model"
)

// AccountService logs the user in and out of the achievements service
type AccountService interface {
	Login(ctx context.Context, username, password string) (model.AccountState, error)
	Logout(ctx context.Context) error
	State(ctx context.Context) model.AccountState
}

// AccountHandler handles account endpoints
type AccountHandler struct {
	accounts AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Get handles GET /api/v1/account
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.AccountFromModel(h.accounts.State(r.Context())))
}

// Login handles POST /api/v1/account/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Username == "" {
		WriteError(w, NewInvalidRequestError("username is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	state, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AccountFromModel(state))
}

// Logout handles POST /api/v1/account/logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Logout(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	response.NoContent(w)
}
