// Package http wires the JSON API: public RSVP endpoints, the
// authenticated owner surface and the admin overview.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kalaskoll/kalaskoll/internal/service"
	"github.com/kalaskoll/kalaskoll/internal/store"
	"github.com/kalaskoll/kalaskoll/pkg/httpx"
	"github.com/kalaskoll/kalaskoll/pkg/jwtx"
	"github.com/kalaskoll/kalaskoll/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer    *jwtx.Signer
	version   string
	startTime time.Time
	logger    *slog.Logger
	store     store.Store

	RSVPService       *service.RSVPService
	PartyService      *service.PartyService
	AuthService       *service.AuthService
	InvitationService *service.InvitationService
	QuotaService      *service.QuotaService
}

func NewRouter(signer *jwtx.Signer, version string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:       http.NewServeMux(),
		signer:    signer,
		version:   version,
		startTime: time.Now(),
		logger:    logger,
		store:     st,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerRSVP()
	r.registerAuth()
	r.registerParties()
	r.registerInvitations()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerRSVP() {
	h := &RSVPHandler{Service: r.RSVPService}

	// Public guest endpoints; strict limits since they take form spam.
	r.Mux.Handle("POST /api/rsvp",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /api/rsvp/edit",
		httpx.Chain(http.HandlerFunc(h.HandleGetEdit),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /api/rsvp/edit",
		httpx.Chain(http.HandlerFunc(h.HandlePostEdit),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Service: r.AuthService}

	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/totp/enroll",
		httpx.Chain(http.HandlerFunc(h.HandleTOTPEnroll),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByProfile(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /api/auth/totp/confirm",
		httpx.Chain(http.HandlerFunc(h.HandleTOTPConfirm),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByProfile(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerParties() {
	h := &PartyHandler{Service: r.PartyService, Quota: r.QuotaService}

	authed := func(handler http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByProfile(limit),
		)
	}

	r.Mux.Handle("POST /api/parties", authed(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/parties", authed(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /api/parties/{id}", authed(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /api/parties/{id}", authed(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /api/parties/{id}", authed(h.HandleDelete, httpx.ModerateLimit))

	r.Mux.Handle("POST /api/parties/{id}/invitations", authed(h.HandleCreateInvitation, httpx.ModerateLimit))
	r.Mux.Handle("GET /api/parties/{id}/invitations", authed(h.HandleListInvitations, httpx.LenientLimit))
	r.Mux.Handle("GET /api/parties/{id}/guests", authed(h.HandleGuestList, httpx.LenientLimit))
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{Service: r.InvitationService}

	r.Mux.Handle("POST /api/invitation/send-sms",
		httpx.Chain(http.HandlerFunc(h.HandleSendSMS),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByProfile(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/invitation/image",
		httpx.Chain(http.HandlerFunc(h.HandleGenerateImage),
			httpx.AuthnMiddleware(r.signer),
			httpx.RateLimitByProfile(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Parties: r.PartyService, Auth: r.AuthService}

	admin := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.signer),
			httpx.RequireRole("admin"),
			httpx.RateLimitByProfile(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /api/admin/parties", admin(h.HandleListParties))
	r.Mux.Handle("GET /api/admin/profiles", admin(h.HandleListProfiles))
	r.Mux.Handle("POST /api/admin/profiles/{id}/role", admin(h.HandleSetRole))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", LivezHandler(r.startTime, r.version))
	r.Mux.HandleFunc("GET /readyz", ReadyzHandler(r.store))
}
