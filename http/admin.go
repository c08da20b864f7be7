package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

// registerAdminRoutes is a helper for registering all moderation routes.
// Every one of them requires admin rights.
func (s *Server) registerAdminRoutes(r *mux.Router) {
	r.HandleFunc("/admin/stats", s.requireAdmin(s.handleAdminStats)).Methods("GET")
	r.HandleFunc("/admin/users", s.requireAdmin(s.handleAdminUsers)).Methods("GET")
	r.HandleFunc("/admin/posts", s.requireAdmin(s.handleAdminPosts)).Methods("GET")
	r.HandleFunc("/admin/comments", s.requireAdmin(s.handleAdminComments)).Methods("GET")

	r.HandleFunc("/admin/posts/batch", s.requireAdmin(s.handleBatchDeletePosts)).Methods("DELETE")
	r.HandleFunc("/admin/comments/batch", s.requireAdmin(s.handleBatchDeleteComments)).Methods("DELETE")
	r.HandleFunc("/admin/posts/{id:[0-9]+}", s.requireAdmin(s.handleDeletePost)).Methods("DELETE")
	r.HandleFunc("/admin/comments/{id:[0-9]+}", s.requireAdmin(s.handleDeleteComment)).Methods("DELETE")

	r.HandleFunc("/admin/users/{id:[0-9]+}", s.requireAdmin(s.handleInspectUser)).Methods("GET")
	r.HandleFunc("/admin/users/{id:[0-9]+}", s.requireAdmin(s.handleDeleteUser)).Methods("DELETE")
	r.HandleFunc("/admin/users/{id:[0-9]+}/admin", s.requireAdmin(s.handleSetAdmin)).Methods("PUT")
	r.HandleFunc("/admin/users/{id:[0-9]+}/password", s.requireAdmin(s.handleResetPassword)).Methods("PUT")
}

// adminCommentPreview is the number of newest comments attached to each post
// of the moderation list.
const adminCommentPreview = 5

type batchPostsRequest struct {
	PostIDs []int `json:"postIds"`
}

type batchCommentsRequest struct {
	CommentIDs []int `json:"commentIds"`
}

type setAdminRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.as.Stats(r.Context())
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", stats)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	page, err := s.as.Users(r.Context(), req)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleAdminPosts handles the route "GET /api/admin/posts?sortBy=&search=".
// Each post comes with its newest comments.
func (s *Server) handleAdminPosts(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	order, err := domain.ParseOrder(r.URL.Query().Get("sortBy"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	q := domain.PostQuery{
		PageRequest: req,
		Order:       order,
		Keyword:     strings.TrimSpace(r.URL.Query().Get("search")),
		Comments:    adminCommentPreview,
	}
	page, err := s.ps.List(r.Context(), q, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleAdminComments handles the route "GET /api/admin/comments?sortBy=&search=".
// Only the latest and oldest orders apply to comments.
func (s *Server) handleAdminComments(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	order := domain.OrderLatest
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		order = domain.Order(sortBy)
	}
	q := domain.CommentQuery{
		PageRequest: req,
		Order:       order,
		Keyword:     strings.TrimSpace(r.URL.Query().Get("search")),
	}
	page, err := s.cs.List(r.Context(), q, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleBatchDeletePosts handles the route "DELETE /api/admin/posts/batch".
// Ids that don't exist are skipped, the number of deleted posts is returned.
func (s *Server) handleBatchDeletePosts(w http.ResponseWriter, r *http.Request) {
	var req batchPostsRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	n, err := s.as.DeletePosts(r.Context(), req.PostIDs, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Deleted "+strconv.Itoa(n)+" posts.", map[string]int{"deletedCount": n})
}

// handleBatchDeleteComments handles the route "DELETE /api/admin/comments/batch".
func (s *Server) handleBatchDeleteComments(w http.ResponseWriter, r *http.Request) {
	var req batchCommentsRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	n, err := s.as.DeleteComments(r.Context(), req.CommentIDs, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Deleted "+strconv.Itoa(n)+" comments.", map[string]int{"deletedCount": n})
}

// handleInspectUser handles the route "GET /api/admin/users/:id".
// It returns what a deletion of the user would remove.
func (s *Server) handleInspectUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	inv, err := s.as.InspectUser(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", inv)
}

// handleDeleteUser handles the route "DELETE /api/admin/users/:id?force=".
// A user who authored posts or comments is only deleted with force=true.
// A refusal still carries the inventory, so the caller can show what's at stake.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	deletion, err := s.as.DeleteUser(r.Context(), id, auth.GetUser(r.Context()), force)
	if err != nil {
		if deletion == nil {
			errs.ReturnError(w, r, err)
			return
		}
		errs.ReturnErrorWithData(w, r, err, deletion)
		return
	}
	respond(w, r, "User deleted.", deletion)
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var req setAdminRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user, err := s.as.SetAdmin(r.Context(), id, req.IsAdmin)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", user.Account())
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.as.ResetPassword(r.Context(), id, req.NewPassword); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Password reset.", nil)
}
