package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
)

// RSVPHandler serves the public guest endpoints. No authentication; the
// invitation token and edit token are the capabilities.
type RSVPHandler struct {
	Service *service.RSVPService
}

type childPayload struct {
	ID             string   `json:"id,omitempty"`
	ChildName      string   `json:"childName"`
	Attending      bool     `json:"attending"`
	Allergies      []string `json:"allergies,omitempty"`
	OtherDietary   string   `json:"otherDietary,omitempty"`
	AllergyConsent bool     `json:"allergyConsent,omitempty"`
}

type createRSVPRequest struct {
	InvitationToken string         `json:"invitationToken"`
	Children        []childPayload `json:"children"`
	ParentEmail     string         `json:"parentEmail"`
	ParentName      string         `json:"parentName,omitempty"`
	ParentPhone     string         `json:"parentPhone,omitempty"`
	Message         string         `json:"message,omitempty"`
}

type rsvpResponse struct {
	Success bool     `json:"success"`
	RsvpIDs []string `json:"rsvpIds"`
}

func (h *RSVPHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	ids, err := h.Service.Create(r.Context(), req.InvitationToken, toChildEntries(req.Children), service.ParentInfo{
		Email:   req.ParentEmail,
		Name:    req.ParentName,
		Phone:   req.ParentPhone,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rsvpResponse{Success: true, RsvpIDs: ids})
}

type editPrefillResponse struct {
	Party struct {
		ChildName    string     `json:"childName"`
		Date         time.Time  `json:"date"`
		StartTime    string     `json:"startTime"`
		Venue        string     `json:"venue"`
		RSVPDeadline *time.Time `json:"rsvpDeadline,omitempty"`
	} `json:"party"`
	Children    []childPayload `json:"children"`
	ParentEmail string         `json:"parentEmail"`
	ParentName  string         `json:"parentName,omitempty"`
	ParentPhone string         `json:"parentPhone,omitempty"`
	Message     string         `json:"message,omitempty"`
}

func (h *RSVPHandler) HandleGetEdit(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_token", "Redigeringslänken är ofullständig.")
		return
	}

	group, err := h.Service.GetByEditToken(r.Context(), token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var resp editPrefillResponse
	resp.Party.ChildName = group.Party.ChildName
	resp.Party.Date = group.Party.Date
	resp.Party.StartTime = group.Party.StartTime
	resp.Party.Venue = group.Party.Venue
	resp.Party.RSVPDeadline = group.Party.RSVPDeadline
	resp.ParentEmail = group.Parent.Email
	resp.ParentName = group.Parent.Name
	resp.ParentPhone = group.Parent.Phone
	resp.Message = group.Parent.Message
	for _, c := range group.Children {
		resp.Children = append(resp.Children, childPayload{
			ID:             c.ID,
			ChildName:      c.ChildName,
			Attending:      c.Attending,
			Allergies:      c.Allergies,
			OtherDietary:   c.OtherDietary,
			AllergyConsent: c.AllergyConsent,
		})
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

type editRSVPRequest struct {
	EditToken   string         `json:"editToken"`
	Children    []childPayload `json:"children"`
	ParentEmail string         `json:"parentEmail"`
	ParentName  string         `json:"parentName,omitempty"`
	ParentPhone string         `json:"parentPhone,omitempty"`
	Message     string         `json:"message,omitempty"`
}

func (h *RSVPHandler) HandlePostEdit(w http.ResponseWriter, r *http.Request) {
	var req editRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	ids, err := h.Service.Edit(r.Context(), req.EditToken, toChildEntries(req.Children), service.ParentInfo{
		Email:   req.ParentEmail,
		Name:    req.ParentName,
		Phone:   req.ParentPhone,
		Message: req.Message,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, rsvpResponse{Success: true, RsvpIDs: ids})
}

func toChildEntries(payload []childPayload) []service.ChildEntry {
	entries := make([]service.ChildEntry, 0, len(payload))
	for _, c := range payload {
		entries = append(entries, service.ChildEntry{
			ID:             c.ID,
			ChildName:      c.ChildName,
			Attending:      c.Attending,
			Allergies:      c.Allergies,
			OtherDietary:   c.OtherDietary,
			AllergyConsent: c.AllergyConsent,
		})
	}
	return entries
}
