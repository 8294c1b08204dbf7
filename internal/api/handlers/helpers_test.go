package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "https://places.example.org"

var (
	alice = auth.Principal{Role: auth.RoleAuthenticated, UserID: 11, Token: "alice-token"}
	root  = auth.Principal{Role: auth.RoleSuperuser, UserID: 1, Token: "root-token"}
)

func newRequest(method, target, body string, p auth.Principal) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(auth.WithPrincipal(req.Context(), p))
}

func withID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func serve(handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeObject(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// requireFieldError asserts a 400 problem response naming field.
func requireFieldError(t *testing.T, rec *httptest.ResponseRecorder, field string) string {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	body := decodeObject(t, rec)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "problem body has no errors map: %v", body)
	msg, ok := errs[field].(string)
	require.True(t, ok, "no error for %q in %v", field, errs)
	return msg
}

func serveLimited(handler http.HandlerFunc, req *http.Request, limit int64) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, limit)
	handler(rec, req)
	return rec
}
