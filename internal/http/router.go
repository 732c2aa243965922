package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MrJamesThe3rd/smsledger/internal/http/account"
	"github.com/MrJamesThe3rd/smsledger/internal/http/matching"
	"github.com/MrJamesThe3rd/smsledger/internal/http/merchants"
	"github.com/MrJamesThe3rd/smsledger/internal/http/middleware"
	"github.com/MrJamesThe3rd/smsledger/internal/http/resolution"
	"github.com/MrJamesThe3rd/smsledger/internal/http/senders"
	"github.com/MrJamesThe3rd/smsledger/internal/http/sms"
	"github.com/MrJamesThe3rd/smsledger/internal/http/transaction"
)

func New(
	log zerolog.Logger,
	jwtSecret []byte,
	smsV1 *sms.Handler,
	transactionsV1 *transaction.Handler,
	resolutionV1 *resolution.Handler,
	sendersV1 *senders.Handler,
	merchantsV1 *merchants.Handler,
	matchingV1 *matching.Handler,
	accountV1 *account.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.RequestID)
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(jwtSecret))

		r.Route("/sms", smsV1.Routes)

		r.Route("/transactions", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/resolution", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			resolutionV1.Routes(r)
		})

		r.Route("/senders", sendersV1.Routes)
		r.Route("/merchants", merchantsV1.Routes)
		r.Route("/matching", matchingV1.Routes)
		r.Route("/account", accountV1.Routes)
	})

	return router
}
