package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"animeHub/auth"
	"animeHub/domain"
	"animeHub/errs"
)

func (s *Server) registerAvatarRoutes(r *mux.Router) {
	r.HandleFunc("/users/avatar", s.requireAuth(s.handleUploadAvatar)).Methods("POST")
}

// avatarFields are the multipart field names accepted for an avatar file.
var avatarFields = []string{"avatar", "file"}

// handleUploadAvatar handles the route "POST /api/users/avatar".
// It parses the multipart form, hands the file to the avatar service and
// returns the updated account.
func (s *Server) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	// Leave some room for the multipart framing around the file.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+1<<20)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "The avatar must not be larger than %d MB.", s.maxUpload>>20))
			return
		}
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid multipart form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	for _, field := range avatarFields {
		file, header, err := r.FormFile(field)
		if err != nil {
			continue
		}
		defer file.Close()
		avatar := &domain.Avatar{
			File:     file,
			Filename: header.Filename,
			Size:     header.Size,
		}
		user, err := s.avs.Upload(r.Context(), auth.GetUser(r.Context()), avatar)
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		respond(w, r, "Avatar updated.", user.Account())
		return
	}
	errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "No avatar file was uploaded."))
}
