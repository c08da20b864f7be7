package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	// Follow a user, or unfollow if already following.
	r.HandleFunc("/users/{id:[0-9]+}/follow", s.requireAuth(s.handleToggle(s.fs.Toggle, "isFollowing"))).Methods("POST")

	// List who follows a user, and whom a user follows.
	r.HandleFunc("/users/{id:[0-9]+}/followers", s.handleFollowList(s.fs.Followers)).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/following", s.handleFollowList(s.fs.Following)).Methods("GET")
}

type followListFn func(ctx context.Context, userID int, req domain.PageRequest, viewer *domain.User) (*domain.Page[domain.FollowView], error)

// handleFollowList returns the handler of one side of a user's follow graph.
func (s *Server) handleFollowList(list followListFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		req, err := pageRequest(r)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		page, err := list(r.Context(), id, req, auth.GetUser(r.Context()))
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		respond(w, r, "Success", page)
	}
}
