package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"animeHub/crud"
	"animeHub/domain"
	"animeHub/errs"
)

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	us     domain.UserService
	ps     domain.PostService
	cs     domain.CommentService
	ls     domain.LikeService
	favs   domain.FavoriteService
	fs     domain.FollowService
	as     domain.AdminService
	ss     domain.SiteService
	avs    domain.AvatarService
	// maxUpload bounds the size of a multipart avatar request.
	maxUpload int64
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the app services passed in.
// If uploadDir is set, the files below it are served under /uploads/.
func NewServer(services *crud.Services, uploadDir string, maxUpload int64) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		us:        services.User,
		ps:        services.Post,
		cs:        services.Comment,
		ls:        services.Like,
		favs:      services.Favorite,
		fs:        services.Follow,
		as:        services.Admin,
		ss:        services.Site,
		avs:       services.Avatar,
		maxUpload: maxUpload,
	}
	if s.maxUpload <= 0 {
		s.maxUpload = domain.MaxAvatarBytes
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	if uploadDir != "" {
		s.router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))
	}

	// Every api route may carry a bearer token, checkUser resolves it.
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(setContentTypeJSON, s.checkUser)
	s.registerAuthRoutes(api)
	s.registerPostRoutes(api)
	s.registerCommentRoutes(api)
	s.registerLikeRoutes(api)
	s.registerUserRoutes(api)
	s.registerFollowRoutes(api)
	s.registerAvatarRoutes(api)
	s.registerAdminRoutes(api)
	s.registerSiteRoutes(api)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "The requested resource does not exist."))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Method %s is not allowed here.", r.Method))
	})
	s.router.Use(logRequests)
	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// The logRequests middleware logs method, path, status and duration of every request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("[http] request")
	})
}

// handleHealth handles the route "GET /health".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, r, "ok", nil)
}

// Run starts to listen and serve on the specified port until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()
	logrus.WithField("port", port).Info("[http] listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
