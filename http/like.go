package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

// registerLikeRoutes is a helper for registering all toggle routes of posts and comments.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	// Like a post, or unlike it if already liked.
	r.HandleFunc("/posts/{id:[0-9]+}/like", s.requireAuth(s.handleToggle(s.ls.TogglePost, "isLiked"))).Methods("POST")

	// Bookmark a post, or remove the bookmark.
	r.HandleFunc("/posts/{id:[0-9]+}/favorite", s.requireAuth(s.handleToggle(s.favs.Toggle, "isFavorited"))).Methods("POST")

	// Like a comment, or unlike it if already liked.
	r.HandleFunc("/comments/{id:[0-9]+}/like", s.requireAuth(s.handleToggle(s.ls.ToggleComment, "isLiked"))).Methods("POST")
}

// A toggleFn flips the relation between the authed user and a target.
type toggleFn func(ctx context.Context, userID, targetID int) (*domain.Toggled, error)

// handleToggle returns the handler of a toggle route. The new state is returned
// under the given key, together with the target's relation count.
func (s *Server) handleToggle(toggle toggleFn, key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		user := auth.GetUser(r.Context())
		res, err := toggle(r.Context(), user.ID, id)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		message := "Activated."
		if !res.Active {
			message = "Deactivated."
		}
		respond(w, r, message, map[string]interface{}{
			key:     res.Active,
			"count": res.Count,
		})
	}
}
