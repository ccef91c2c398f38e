package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/nchatharoo/FeaturesVote/internal/adapters/handler/http/middleware"
)

func NewHandler(featureHandler *FeatureHandler, voteHandler *VoteHandler, limiter *mw.RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.Metrics)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}

		r.Route("/features", func(r chi.Router) {
			r.Get("/", featureHandler.ListFeatures)
			r.Post("/{id}/votes", voteHandler.VoteOnFeature)
		})

		r.Get("/votes", voteHandler.ListVotes)
	})

	return r
}
