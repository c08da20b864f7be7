package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"animeHub/domain"
	"animeHub/errs"
)

// respond writes a successful envelope with the given message and data.
func respond(w http.ResponseWriter, r *http.Request, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(&errs.Envelope{Code: http.StatusOK, Message: message, Data: data}); err != nil {
		errs.LogError(r, err)
	}
}

// decode parses the request's json body into dst.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.Errorf(errs.EINVALID, "Invalid json body.")
	}
	return nil
}

// pathID parses a numeric route parameter.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, errs.IdInvalid
	}
	return id, nil
}

// pageRequest reads the "page" and "pageSize" query parameters. "limit" is an
// alias of "pageSize". Missing parameters stay zero and get defaulted by the services.
func pageRequest(r *http.Request) (domain.PageRequest, error) {
	q := r.URL.Query()
	var req domain.PageRequest
	var err error
	if req.Page, err = queryInt(q.Get("page")); err != nil {
		return req, errs.Errorf(errs.EINVALID, "The page must be a number.")
	}
	size := q.Get("pageSize")
	if size == "" {
		size = q.Get("limit")
	}
	if req.PageSize, err = queryInt(size); err != nil {
		return req, errs.Errorf(errs.EINVALID, "The page size must be a number.")
	}
	if (q.Get("page") != "" && req.Page < 1) || (size != "" && req.PageSize < 1) {
		return req, errs.Errorf(errs.EINVALID, "The page and page size must be at least 1.")
	}
	return req, nil
}

func queryInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
