package errs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeAndMessage(t *testing.T) {
	err := Errorf(ENOTFOUND, "The %s does not exist.", "post")
	require.Equal(t, ENOTFOUND, ErrorCode(err))
	require.Equal(t, "The post does not exist.", ErrorMessage(err))

	// Wrapping keeps the application error reachable.
	wrapped := errors.WithMessage(err, "load post")
	require.Equal(t, ENOTFOUND, ErrorCode(wrapped))
	require.Equal(t, "The post does not exist.", ErrorMessage(wrapped))

	plain := errors.New("connection refused")
	require.Equal(t, EINTERNAL, ErrorCode(plain))
	require.Equal(t, "Internal error.", ErrorMessage(plain))

	require.Empty(t, ErrorCode(nil))
	require.Empty(t, ErrorMessage(nil))
}

func TestStatusCode(t *testing.T) {
	require.Equal(t, http.StatusNotFound, StatusCode(ENOTFOUND))
	require.Equal(t, http.StatusForbidden, StatusCode(EFORBIDDEN))
	require.Equal(t, http.StatusBadRequest, StatusCode(EINVALID))
	require.Equal(t, http.StatusBadRequest, StatusCode(ECONFLICT))
	require.Equal(t, http.StatusUnauthorized, StatusCode(EUNAUTHORIZED))
	require.Equal(t, http.StatusInternalServerError, StatusCode(EINTERNAL))
	require.Equal(t, http.StatusInternalServerError, StatusCode("bogus"))
}

func TestReturnError(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{Errorf(EFORBIDDEN, "No."), http.StatusForbidden, "No."},
		{errors.New("pq: relation does not exist"), http.StatusInternalServerError, "Internal error."},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		ReturnError(w, httptest.NewRequest("GET", "/api/posts", nil), tc.err)
		require.Equal(t, tc.status, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var env map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		require.EqualValues(t, tc.status, env["code"])
		require.Equal(t, tc.message, env["message"])
		require.Contains(t, env, "data")
		require.Nil(t, env["data"])
	}
}

func TestReturnErrorLogsInternalErrors(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	r := httptest.NewRequest("DELETE", "/api/posts/7", nil)
	ReturnError(httptest.NewRecorder(), r, Errorf(EINVALID, "Bad input."))
	require.Empty(t, hook.AllEntries())

	ReturnError(httptest.NewRecorder(), r, errors.New("deadlock detected"))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	require.Equal(t, logrus.ErrorLevel, entry.Level)
	require.Equal(t, "/api/posts/7", entry.Data["path"])
	require.Equal(t, "DELETE", entry.Data["method"])
	require.Contains(t, entry.Message, "deadlock detected")
}

func TestReturnErrorWithData(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]int{"posts": 2}
	ReturnErrorWithData(w, httptest.NewRequest("DELETE", "/api/admin/users/3", nil), Errorf(EINVALID, "Refused."), data)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"code":400,"message":"Refused.","data":{"posts":2}}`, w.Body.String())
}
