package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
)

type InvitationHandler struct {
	Service *service.InvitationService
}

type sendSMSRequest struct {
	PartyID      string   `json:"partyId"`
	InvitationID string   `json:"invitationId"`
	Recipients   []string `json:"recipients"`
}

type sendSMSResponse struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed,omitempty"`
}

func (h *InvitationHandler) HandleSendSMS(w http.ResponseWriter, r *http.Request) {
	var req sendSMSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	callerID, role := caller(r)
	report, err := h.Service.SendSMS(r.Context(), callerID, role, req.PartyID, req.InvitationID, req.Recipients)
	if err != nil && !errors.Is(err, service.ErrSMSQuotaExceeded) {
		writeServiceError(w, r, err)
		return
	}

	// Quota exhaustion mid-batch still reports the partial result; the
	// client shows what went through and who was left out.
	status := http.StatusOK
	if errors.Is(err, service.ErrSMSQuotaExceeded) {
		status = http.StatusTooManyRequests
	}
	httpx.WriteJSON(w, status, sendSMSResponse{Sent: report.Sent, Failed: report.Failed})
}

type generateImageRequest struct {
	PartyID string `json:"partyId"`
	Prompt  string `json:"prompt,omitempty"`
}

type generateImageResponse struct {
	URL string `json:"url"`
}

func (h *InvitationHandler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req generateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadJSON(w)
		return
	}

	callerID, role := caller(r)
	img, err := h.Service.GenerateImage(r.Context(), callerID, role, req.PartyID, req.Prompt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, generateImageResponse{URL: img.URL})
}
