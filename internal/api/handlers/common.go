package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/Togather-Foundation/places/internal/api/problem"
	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/go-playground/validator/v10"
)

// nonFieldErrors collects validation messages that concern the whole request.
const nonFieldErrors = "non_field_errors"

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decodeJSON reads exactly one JSON object into dst and runs its validate
// tags. Failures come back as places.ValidationError, except an oversized
// body which keeps its *http.MaxBytesError.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &maxErr):
			return err
		case errors.Is(err, io.EOF):
			return places.ValidationError{Message: "request body is required"}
		case errors.As(err, &typeErr) && typeErr.Field != "":
			return places.ValidationError{Field: typeErr.Field, Message: "must be a " + jsonKind(typeErr.Type)}
		default:
			return places.ValidationError{Message: "malformed JSON: " + err.Error()}
		}
	}
	if dec.More() {
		return places.ValidationError{Message: "request body must contain a single JSON object"}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return places.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
		}
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.Kind().String()
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// writeError maps domain and decoding errors onto problem responses.
func writeError(w http.ResponseWriter, r *http.Request, env string, err error) {
	var invalid places.ValidationError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &invalid):
		field := invalid.Field
		if field == "" {
			field = nonFieldErrors
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env,
			problem.WithDetail(invalid.Error()),
			problem.WithFieldError(field, invalid.Message))
	case errors.As(err, &maxErr):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Payload too large", err, env,
			problem.WithDetail(fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)))
	case errors.Is(err, places.ErrNotFound):
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "Not found", err, env)
	case errors.Is(err, places.ErrConflict):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Conflict", err, env,
			problem.WithDetail("a concurrent request changed the same record, retry"))
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Server error", err, env)
	}
}

// pathID reads the {id} path segment. Anything but a positive integer
// cannot name a row, so it is reported as not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id %q: %w", r.PathValue("id"), places.ErrNotFound)
	}
	return id, nil
}

// pageURL is the absolute URL pagination links are derived from. The
// configured base URL wins over whatever Host the request carried.
func pageURL(baseURL string, r *http.Request) *url.URL {
	u := *r.URL
	if base, err := url.Parse(baseURL); err == nil && base.Scheme != "" && base.Host != "" {
		u.Scheme = base.Scheme
		u.Host = base.Host
		u.Path = strings.TrimSuffix(base.Path, "/") + r.URL.Path
		u.RawPath = ""
	}
	return &u
}
