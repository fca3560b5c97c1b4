package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"facet-inventory-api/internal/model"
	"facet-inventory-api/internal/repository"
	"facet-inventory-api/internal/service"

	"facet-inventory-api/pkg/apierror"
	"facet-inventory-api/pkg/response"
)

// AuthHandler issues and manages session tokens for storefront clients.
type AuthHandler struct {
	tokenService *service.TokenService
	accounts     repository.AccountRepository
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(tokenService *service.TokenService, accounts repository.AccountRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		accounts:     accounts,
	}
}

// TokenRequest is the body for POST /api/v1/auth/token.
type TokenRequest struct {
	Key        string `json:"key"`
	DeviceID   string `json:"device_id"`
	CustomerID string `json:"customer_id"`
}

// TokenResponse is the success payload for token endpoints.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// GenerateToken handles POST /api/v1/auth/token. The key+device pair is
// validated against the account store before a session token is issued.
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil || h.accounts == nil {
		response.Error(w, apierror.ServiceUnavailable("Token authentication is not configured"))
		return
	}

	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("Invalid request body"))
		return
	}
	if req.Key == "" || req.DeviceID == "" || req.CustomerID == "" {
		response.Error(w, apierror.BadRequest("key, device_id and customer_id are required"))
		return
	}

	validation, err := h.accounts.ValidateKeyAndDevice(r.Context(), req.Key, req.DeviceID, req.CustomerID)
	if err != nil {
		log.Printf("[AuthHandler] Key validation failed for customer=%s: %v", req.CustomerID, err)
		response.Error(w, apierror.Unauthorized("Invalid key or device"))
		return
	}

	token, err := h.tokenService.GenerateToken(r.Context(), model.TokenData{
		AccountID:    validation.AccountID,
		KeyID:        validation.KeyID,
		CustomerID:   validation.CustomerID,
		CustomerName: validation.CustomerName,
		DeviceID:     validation.DeviceID,
	})
	if err != nil {
		log.Printf("[AuthHandler] Token generation failed: %v", err)
		response.Error(w, apierror.InternalError("Failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int64(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /api/v1/auth/revoke.
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		response.Error(w, apierror.ServiceUnavailable("Token authentication is not configured"))
		return
	}

	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header is required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("Failed to revoke token"))
		return
	}

	response.NoContent(w)
}

// RefreshToken handles POST /api/v1/auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if h.tokenService == nil {
		response.Error(w, apierror.ServiceUnavailable("Token authentication is not configured"))
		return
	}

	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header is required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized("Invalid or expired token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int64(service.TokenTTL.Seconds()),
	})
}
