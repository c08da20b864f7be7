package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/errs"
)

func (s *Server) registerSiteRoutes(r *mux.Router) {
	r.HandleFunc("/site/stats", s.handleSiteStats).Methods("GET")
	r.HandleFunc("/site/fortune", s.handleFortune).Methods("GET")
	r.HandleFunc("/site/developers", s.handleDevelopers).Methods("GET")
}

func (s *Server) handleSiteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ss.Stats(r.Context())
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", stats)
}

// handleFortune handles the route "GET /api/site/fortune".
// The fortune is stable for a visitor during one day.
func (s *Server) handleFortune(w http.ResponseWriter, r *http.Request) {
	respond(w, r, "Success", s.ss.Fortune(auth.GetUser(r.Context())))
}

func (s *Server) handleDevelopers(w http.ResponseWriter, r *http.Request) {
	respond(w, r, "Success", s.ss.Developers())
}
