package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

// registerPostRoutes is a helper for registering all post routes.
func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/posts", s.handleListPosts(domain.OrderLatest)).Methods("GET")
	r.HandleFunc("/posts/hot", s.handleListPosts(domain.OrderHot)).Methods("GET")
	r.HandleFunc("/posts/recommended", s.handleListPosts(domain.OrderRandom)).Methods("GET")
	r.HandleFunc("/posts/search", s.handleSearchPosts).Methods("GET")
	r.HandleFunc("/posts", s.requireAuth(s.handleCreatePost)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}", s.requireAuth(s.handleUpdatePost)).Methods("PUT")
	r.HandleFunc("/posts/{id:[0-9]+}", s.requireAuth(s.handleDeletePost)).Methods("DELETE")
}

// handleListPosts returns the handler of a post listing with the given default order.
// The "sortBy" query parameter overrides the order of the plain listing.
func (s *Server) handleListPosts(order domain.Order) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := pageRequest(r)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		q := domain.PostQuery{PageRequest: req, Order: order}
		if sortBy := r.URL.Query().Get("sortBy"); sortBy != "" && order == domain.OrderLatest {
			if q.Order, err = domain.ParseOrder(sortBy); err != nil {
				errs.ReturnError(w, r, err)
				return
			}
		}
		page, err := s.ps.List(r.Context(), q, auth.GetUser(r.Context()))
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		respond(w, r, "Success", page)
	}
}

// handleSearchPosts handles the route "GET /api/posts/search?keyword=".
// The keyword is matched case-insensitively against title and content.
func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "A search keyword is required."))
		return
	}
	q := domain.PostQuery{PageRequest: req, Order: domain.OrderLatest, Keyword: keyword}
	page, err := s.ps.List(r.Context(), q, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", page)
}

// handlePostDetail handles the route "GET /api/posts/:id".
// Every call counts one view.
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	post, err := s.ps.Detail(r.Context(), id, auth.GetUser(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Success", post)
}

// handleCreatePost handles the route "POST /api/posts".
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var in domain.PostInput
	if err := decode(r, &in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	post, err := s.ps.Create(r.Context(), auth.GetUser(r.Context()), in)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Post published.", post)
}

// handleUpdatePost handles the route "PUT /api/posts/:id". Only the author may edit.
func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var in domain.PostInput
	if err := decode(r, &in); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	post, err := s.ps.Update(r.Context(), id, auth.GetUser(r.Context()), in)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Post updated.", post)
}

// handleDeletePost handles the route "DELETE /api/posts/:id".
// The author or an admin may delete a post, together with everything attached to it.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if _, err := s.ps.Delete(r.Context(), id, auth.GetUser(r.Context())); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Post deleted.", nil)
}
