package handler

import (
	"encoding/json"
	"net/http"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/service"
)

// AccountHandler handles registration, login and identity lookup.
type AccountHandler struct {
	svc     *service.AccountService
	respond *Responder
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, respond *Responder) *AccountHandler {
	return &AccountHandler{
		svc:     svc,
		respond: respond,
	}
}

// Register handles POST /api/auth/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.invalidBody(w, err)
		return
	}

	result, err := h.svc.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error registering user")
		return
	}
	h.respond.ok(w, http.StatusCreated, "User registered successfully", toAuthResponse(result))
}

// Login handles POST /api/auth/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond.invalidBody(w, err)
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error logging in")
		return
	}
	h.respond.ok(w, http.StatusOK, "Login successful", toAuthResponse(result))
}

// Me handles GET /api/auth/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving user")
		return
	}
	h.respond.ok(w, http.StatusOK, "Authenticated user retrieved successfully", dto.ToUserResponse(user))
}

func toAuthResponse(result *service.AuthResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.ToUserResponse(result.User),
	}
}
