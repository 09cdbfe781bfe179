// Copyright 2025 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package routers assembles the HTTP surface: the git smart-HTTP gateway,
// the pages subdomain server, and the JSON web endpoints.
package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crustyhub/crustyhub/routers/common"
	"github.com/crustyhub/crustyhub/routers/web/githttp"
	"github.com/crustyhub/crustyhub/routers/web/pages"
	"github.com/crustyhub/crustyhub/routers/web/repo"
	"github.com/crustyhub/crustyhub/services/admission"
)

// NormalRoutes builds the full request handler. Every request passes the
// rate limiter first; then the host decides between the pages server and the
// main application, and within the main application git transport paths are
// matched before the web mux.
func NormalRoutes(svc *admission.Service) http.Handler {
	gitHandler := githttp.NewHandler(svc)
	pagesHandler := pages.Handler{}
	webMux := webRoutes(svc)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip := admission.ClientIP(req)
		category := admission.ClassifyRequest(req.Method, req.URL.Path)
		if d := svc.Limiter.Check(ip, category); d != nil {
			common.WriteDenial(w, d)
			return
		}

		if _, ok := pages.MatchHost(req.Host); ok {
			pagesHandler.ServeHTTP(w, req)
			return
		}
		if _, _, ok := githttp.Match(req.URL.Path); ok {
			gitHandler.ServeHTTP(w, req)
			return
		}
		webMux.ServeHTTP(w, req)
	})
}

func webRoutes(svc *admission.Service) http.Handler {
	h := repo.NewWeb(svc)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(csrfToken(svc))

	r.Get("/", h.List)
	r.Post("/new", h.Create)
	r.Route("/{slug}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/star", h.ToggleStar)
		r.Post("/settings", h.UpdateSettings)
		r.Post("/delete", h.Delete)
		r.Post("/fork", h.Fork)
		r.Get("/issues", h.ListIssues)
		r.Post("/issues", h.CreateIssue)
		r.Route("/issues/{number}", func(r chi.Router) {
			r.Get("/", h.GetIssue)
			r.Post("/comment", h.CreateComment)
			r.Post("/toggle", h.ToggleIssue)
		})
	})
	return r
}

// csrfToken exposes the caller's token on safe methods so clients can echo
// it back in X-CSRF-Token on writes.
func csrfToken(svc *admission.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.Method == http.MethodGet || req.Method == http.MethodHead {
				sessionID := common.SessionID(w, req)
				w.Header().Set("X-CSRF-Token", svc.CSRF.GetOrCreate(sessionID))
			}
			next.ServeHTTP(w, req)
		})
	}
}
