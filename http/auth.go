package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

// registerAuthRoutes is a helper for registering all auth routes.
func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/auth/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/auth/user", s.requireAuth(s.handleCurrentUser)).Methods("GET")
	r.HandleFunc("/auth/logout", s.requireAuth(s.handleLogout)).Methods("POST")
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token,omitempty"`
	User  domain.Account `json:"user"`
}

// handleRegister handles the route "POST /api/auth/register".
// It creates the user and returns it. Registration does not log the user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := &domain.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := s.us.Register(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Registered successfully.", authResponse{User: user.Account()})
}

// handleLogin handles the route "POST /api/auth/login".
// It checks username and password and returns a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user, err := s.us.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	token, err := s.us.IssueToken(user)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	respond(w, r, "Logged in successfully.", authResponse{Token: token, User: user.Account()})
}

// handleCurrentUser handles the route "GET /api/auth/user".
func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	respond(w, r, "Success", user.Account())
}

// handleLogout handles the route "POST /api/auth/logout".
// Tokens are stateless, the client discards its token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	respond(w, r, "Logged out successfully.", nil)
}

// The checkUser middleware resolves the bearer token of a request, if any, and
// puts the user into the request context. Requests without a valid token
// continue anonymously; requireAuth decides whether that's enough.
func (s *Server) checkUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByToken(r.Context(), token)
		if err != nil {
			if errs.ErrorCode(err) == errs.EINTERNAL {
				errs.ReturnError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// The requireAuth middleware rejects requests without an authenticated user.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireUser(r.Context()); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		next(w, r)
	}
}

// The requireAdmin middleware rejects requests of users without admin rights.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := auth.RequireAdmin(r.Context()); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		next(w, r)
	}
}
