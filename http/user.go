package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	// Public profile and authored posts of a specific user.
	r.HandleFunc("/users/{id:[0-9]+}/profile", s.handleGetProfile).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/posts", s.handleUserPosts).Methods("GET")
	r.HandleFunc("/users/{id:[0-9]+}/likes", s.handleUserLikes).Methods("GET")

	// The authed user's own account.
	r.HandleFunc("/users/profile", s.requireAuth(s.handleUpdateProfile)).Methods("PUT")
	r.HandleFunc("/users/password", s.requireAuth(s.handleChangePassword)).Methods("PUT")
	r.HandleFunc("/users/favorites", s.requireAuth(s.handleUserFavorites)).Methods("GET")
	r.HandleFunc("/users/settings", s.requireAuth(s.handleGetSettings)).Methods("GET")
	r.HandleFunc("/users/settings", s.requireAuth(s.handleUpdateSettings)).Methods("PUT")
	r.HandleFunc("/users/account", s.requireAuth(s.handleDeleteAccount)).Methods("DELETE")
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

// handleGetProfile handles the route "GET /api/users/:id/profile".
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	profile, err := s.us.Profile(r.Context(), id, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", profile)
}

// handleUserPosts handles the route "GET /api/users/:id/posts", newest first.
func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
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
	// An unknown user is a 404, not an empty page.
	if _, err := s.us.ByID(r.Context(), id); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	q := domain.PostQuery{PageRequest: req, Order: domain.OrderLatest, AuthorID: id}
	page, err := s.ps.List(r.Context(), q, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleUserLikes handles the route "GET /api/users/:id/likes".
// It returns the posts the user has liked, most recently liked first.
func (s *Server) handleUserLikes(w http.ResponseWriter, r *http.Request) {
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
	page, err := s.ps.Liked(r.Context(), id, req, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleUserFavorites handles the route "GET /api/users/favorites".
// It returns the authed user's bookmarks, most recently bookmarked first.
func (s *Server) handleUserFavorites(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := auth.GetUser(r.Context())
	page, err := s.ps.Favorites(r.Context(), user.ID, req, user)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleUpdateProfile handles the route "PUT /api/users/profile".
// Fields missing from the body stay untouched.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd domain.UserUpdate
	if err := decode(r, &upd); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := auth.GetUser(r.Context())
	if err := s.us.UpdateProfile(r.Context(), user, upd); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Profile updated.", user.Account())
}

// handleChangePassword handles the route "PUT /api/users/password".
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.us.ChangePassword(r.Context(), auth.GetUser(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Password changed.", nil)
}

// handleGetSettings handles the route "GET /api/users/settings".
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respond(w, r, "Success", auth.GetUser(r.Context()).Settings())
}

// handleUpdateSettings handles the route "PUT /api/users/settings".
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	// Start from the stored settings so a partial body keeps the rest.
	settings := user.Settings()
	if err := decode(r, &settings); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.us.UpdateSettings(r.Context(), user, settings); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Settings saved.", user.Settings())
}

// handleDeleteAccount handles the route "DELETE /api/users/account".
// The password must be confirmed. Everything the user owns is deleted with the account.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req deleteAccountRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	report, err := s.us.DeleteAccount(r.Context(), auth.GetUser(r.Context()), req.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Account deleted.", report)
}
