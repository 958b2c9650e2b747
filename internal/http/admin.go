package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
)

// AdminHandler is the operational overview across all owners. Routes are
// gated by the admin role in the router.
type AdminHandler struct {
	Parties *service.PartyService
	Auth    *service.AuthService
}

type adminPartyResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	ChildName string    `json:"childName"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *AdminHandler) HandleListParties(w http.ResponseWriter, r *http.Request) {
	parties, err := h.Parties.ListAllParties(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]adminPartyResponse, 0, len(parties))
	for _, p := range parties {
		out = append(out, adminPartyResponse{
			ID: p.ID, OwnerID: p.OwnerID, ChildName: p.ChildName, Date: p.Date, CreatedAt: p.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type adminProfileResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	FreeSMSUsed    int       `json:"freeSmsUsed"`
	FreeImagesUsed int       `json:"freeImagesUsed"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *AdminHandler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Auth.ListProfiles(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]adminProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, adminProfileResponse{
			ID: p.ID, Email: p.Email, Name: p.Name, Role: string(p.Role),
			FreeSMSUsed: p.FreeSMSUsed, FreeImagesUsed: p.FreeImagesUsed, CreatedAt: p.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	if err := h.Auth.SetRole(r.Context(), r.PathValue("id"), domain.Role(req.Role)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"role": req.Role})
}
