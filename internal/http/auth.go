package http

import (
	"encoding/json"
	"net/http"

	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
)

type AuthHandler struct {
	Service *service.AuthService
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	p, err := h.Service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, profileResponse{
		ID: p.ID, Email: p.Email, Name: p.Name, Role: string(p.Role),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totpCode,omitempty"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile profileResponse `json:"profile"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	token, p, err := h.Service.Login(r.Context(), req.Email, req.Password, req.TOTPCode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Token: token,
		Profile: profileResponse{
			ID: p.ID, Email: p.Email, Name: p.Name, Role: string(p.Role),
		},
	})
}

type totpEnrollResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

func (h *AuthHandler) HandleTOTPEnroll(w http.ResponseWriter, r *http.Request) {
	key, err := h.Service.EnrollTOTP(r.Context(), httpx.ProfileIDFromCtx(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, totpEnrollResponse{
		Secret: key.Secret(),
		URL:    key.URL(),
	})
}

type totpConfirmRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

func (h *AuthHandler) HandleTOTPConfirm(w http.ResponseWriter, r *http.Request) {
	var req totpConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.Service.ConfirmTOTP(r.Context(), httpx.ProfileIDFromCtx(r.Context()), req.Secret, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"enabled": true})
}
