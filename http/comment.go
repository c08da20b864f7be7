package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

// registerCommentRoutes is a helper for registering all comment routes.
func (s *Server) registerCommentRoutes(r *mux.Router) {
	r.HandleFunc("/posts/{id:[0-9]+}/comments", s.handleListComments).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/comments", s.requireAuth(s.handleCreateComment)).Methods("POST")
	r.HandleFunc("/comments/{id:[0-9]+}", s.requireAuth(s.handleDeleteComment)).Methods("DELETE")
}

type commentRequest struct {
	Content string `json:"content"`
}

// handleListComments handles the route "GET /api/posts/:id/comments", oldest first by default.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	order := domain.OrderOldest
	if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" {
		order = domain.Order(sortBy)
	}
	q := domain.CommentQuery{PageRequest: req, Order: order, PostID: postID}
	page, err := s.cs.List(r.Context(), q, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handleCreateComment handles the route "POST /api/posts/:id/comments".
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var req commentRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comment, err := s.cs.Create(r.Context(), auth.GetUser(r.Context()), postID, req.Content)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Comment published.", comment)
}

// handleDeleteComment handles the route "DELETE /api/comments/:id".
// The author or an admin may delete a comment.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if _, err := s.cs.Delete(r.Context(), id, auth.GetUser(r.Context())); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Comment deleted.", nil)
}
