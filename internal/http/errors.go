package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	httpx.WriteJSON(w, status, errorResponse{Error: code, Message: message})
}

// writeServiceError maps service sentinels onto the API error taxonomy with
// Swedish user-facing messages. Anything unmapped is logged and returned as
// a generic 500 so internals never leak.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvitationNotFound):
		writeError(w, http.StatusNotFound, "invitation_not_found",
			"Inbjudan kunde inte hittas. Kontrollera länken.")
	case errors.Is(err, service.ErrResponseNotFound):
		writeError(w, http.StatusNotFound, "response_not_found",
			"Svaret kunde inte hittas. Kontrollera redigeringslänken.")
	case errors.Is(err, service.ErrPartyNotFound):
		writeError(w, http.StatusNotFound, "party_not_found",
			"Kalaset kunde inte hittas.")
	case errors.Is(err, service.ErrDeadlineExpired):
		writeError(w, http.StatusBadRequest, "deadline_expired",
			"Sista svarsdatum har passerat. Kontakta arrangören direkt.")
	case errors.Is(err, service.ErrDuplicateResponse):
		writeError(w, http.StatusConflict, "duplicate_response",
			"Det finns redan ett svar för den här e-postadressen. Använd redigeringslänken i ditt bekräftelsemejl.")
	case errors.Is(err, service.ErrInvalidChildren):
		writeError(w, http.StatusBadRequest, "invalid_children",
			"Ange mellan ett och fem barn, alla med namn.")
	case errors.Is(err, service.ErrMissingParentEmail):
		writeError(w, http.StatusBadRequest, "missing_parent_email",
			"E-postadress krävs.")
	case errors.Is(err, service.ErrInvalidPhone):
		writeError(w, http.StatusBadRequest, "invalid_phone",
			"Telefonnumret ser inte ut som ett svenskt mobilnummer.")
	case errors.Is(err, service.ErrInvalidParty):
		writeError(w, http.StatusBadRequest, "invalid_party",
			"Kalaset saknar obligatoriska uppgifter.")
	case errors.Is(err, service.ErrNotPartyOwner):
		writeError(w, http.StatusForbidden, "not_party_owner",
			"Du har inte behörighet till det här kalaset.")
	case errors.Is(err, service.ErrSMSQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "sms_quota_exceeded",
			"SMS-kvoten för den här månaden är slut.")
	case errors.Is(err, service.ErrImageQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, "image_quota_exceeded",
			"Bildgenerering ingår i betaprogrammet och din kvot är slut.")
	case errors.Is(err, service.ErrNoRecipients):
		writeError(w, http.StatusBadRequest, "no_recipients",
			"Ange minst en mottagare.")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials",
			"Fel e-postadress eller lösenord.")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken",
			"Det finns redan ett konto med den här e-postadressen.")
	case errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password",
			"Lösenordet måste vara minst 8 tecken.")
	case errors.Is(err, service.ErrTOTPRequired):
		writeError(w, http.StatusUnauthorized, "totp_required",
			"Ange din engångskod.")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		writeError(w, http.StatusUnauthorized, "invalid_totp_code",
			"Fel engångskod.")
	case errors.Is(err, service.ErrInvalidRole):
		writeError(w, http.StatusBadRequest, "invalid_role",
			"Okänd roll.")
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal_error",
			"Något gick fel. Försök igen senare.")
	}
}

func writeBadJSON(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "invalid_request", "Begäran kunde inte tolkas.")
}
