package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/domain"
	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
)

type PartyHandler struct {
	Service *service.PartyService
	Quota   *service.QuotaService
}

type partyRequest struct {
	ChildName    string     `json:"childName"`
	ChildAge     int        `json:"childAge"`
	Date         time.Time  `json:"date"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	Venue        string     `json:"venue"`
	Address      string     `json:"address"`
	Theme        string     `json:"theme"`
	RSVPDeadline *time.Time `json:"rsvpDeadline,omitempty"`
}

func (p partyRequest) toInput() service.PartyInput {
	return service.PartyInput{
		ChildName:    p.ChildName,
		ChildAge:     p.ChildAge,
		Date:         p.Date,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Venue:        p.Venue,
		Address:      p.Address,
		Theme:        p.Theme,
		RSVPDeadline: p.RSVPDeadline,
	}
}

type partyResponse struct {
	ID           string     `json:"id"`
	ChildName    string     `json:"childName"`
	ChildAge     int        `json:"childAge"`
	Date         time.Time  `json:"date"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	Venue        string     `json:"venue"`
	Address      string     `json:"address"`
	Theme        string     `json:"theme"`
	RSVPDeadline *time.Time `json:"rsvpDeadline,omitempty"`
	SMSRemaining int        `json:"smsRemaining"`
}

func toPartyResponse(p domain.Party, smsRemaining int) partyResponse {
	return partyResponse{
		ID:           p.ID,
		ChildName:    p.ChildName,
		ChildAge:     p.ChildAge,
		Date:         p.Date,
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Venue:        p.Venue,
		Address:      p.Address,
		Theme:        p.Theme,
		RSVPDeadline: p.RSVPDeadline,
		SMSRemaining: smsRemaining,
	}
}

func caller(r *http.Request) (string, domain.Role) {
	return httpx.ProfileIDFromCtx(r.Context()), domain.Role(httpx.RoleFromCtx(r.Context()))
}

func (h *PartyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	callerID, _ := caller(r)
	p, err := h.Service.CreateParty(r.Context(), callerID, req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toPartyResponse(p, service.MonthlySMSLimit))
}

func (h *PartyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	callerID, _ := caller(r)
	parties, err := h.Service.ListParties(r.Context(), callerID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]partyResponse, 0, len(parties))
	for _, p := range parties {
		remaining, err := h.Quota.SMSRemaining(r.Context(), p.ID, time.Now())
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out = append(out, toPartyResponse(p, remaining))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PartyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callerID, role := caller(r)
	p, err := h.Service.GetParty(r.Context(), callerID, role, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	remaining, err := h.Quota.SMSRemaining(r.Context(), p.ID, time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPartyResponse(p, remaining))
}

func (h *PartyHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req partyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	callerID, role := caller(r)
	p, err := h.Service.UpdateParty(r.Context(), callerID, role, r.PathValue("id"), req.toInput())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	remaining, err := h.Quota.SMSRemaining(r.Context(), p.ID, time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toPartyResponse(p, remaining))
}

func (h *PartyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	callerID, role := caller(r)
	if err := h.Service.DeleteParty(r.Context(), callerID, role, r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invitationResponse struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *PartyHandler) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	callerID, role := caller(r)
	inv, err := h.Service.CreateInvitation(r.Context(), callerID, role, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, invitationResponse{
		ID: inv.ID, Token: inv.Token, CreatedAt: inv.CreatedAt,
	})
}

func (h *PartyHandler) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	callerID, role := caller(r)
	invs, err := h.Service.ListInvitations(r.Context(), callerID, role, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]invitationResponse, 0, len(invs))
	for _, inv := range invs {
		out = append(out, invitationResponse{ID: inv.ID, Token: inv.Token, CreatedAt: inv.CreatedAt})
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *PartyHandler) HandleGuestList(w http.ResponseWriter, r *http.Request) {
	callerID, role := caller(r)
	guests, err := h.Service.GuestList(r.Context(), callerID, role, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, guests)
}
