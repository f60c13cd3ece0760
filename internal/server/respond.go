package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/domain"
)

// badRequest is a client error detected before reaching a service.
type badRequest string

func (e badRequest) Error() string { return string(e) }

// decodeJSON decodes the request body into dst, rejecting unknown fields.
// With allowEmpty an absent body leaves dst untouched.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if err == nil {
		return nil
	}

	var syntaxError *json.SyntaxError
	var unmarshalTypeError *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		if allowEmpty {
			return nil
		}
		return badRequest("Request body must not be empty")
	case errors.As(err, &syntaxError):
		return badRequest(fmt.Sprintf("Request body contains badly-formed JSON (at position %d)", syntaxError.Offset))
	case errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("Request body contains badly-formed JSON")
	case errors.As(err, &unmarshalTypeError):
		return badRequest(fmt.Sprintf("Request body contains an invalid value for the %q field (at position %d)", unmarshalTypeError.Field, unmarshalTypeError.Offset))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return badRequest("Request body contains unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field "))
	default:
		return badRequest("Invalid request body: " + err.Error())
	}
}

// credentials decodes an optional credentials-only body and merges the
// bearer token, if any.
func credentials(r *http.Request) (auth.Credentials, error) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds, true); err != nil {
		return auth.Credentials{}, err
	}
	creds.Token = bearerToken(r)
	return creds, nil
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// idParam parses a positive id from the named URL parameter.
func idParam(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid task ID provided")
	}
	return uint(id), nil
}

// respondWithServiceError maps service errors onto status codes. Unexpected
// errors are logged and reported as a failure to perform action.
func respondWithServiceError(w http.ResponseWriter, err error, action string) {
	var (
		bad     badRequest
		invalid *domain.ValidationError
		authn   *domain.AuthenticationError
		authz   *domain.AuthorizationError
		missing *domain.NotFoundError
	)
	switch {
	case errors.As(err, &bad):
		respondWithError(w, http.StatusBadRequest, bad.Error())
	case errors.As(err, &invalid):
		respondWithError(w, http.StatusBadRequest, invalid.Message)
	case errors.As(err, &authn):
		respondWithError(w, http.StatusBadRequest, authn.Message)
	case errors.As(err, &authz):
		w.WriteHeader(http.StatusUnauthorized)
	case errors.As(err, &missing):
		respondWithError(w, http.StatusNotFound, missing.Error())
	default:
		log.Printf("Error trying to %s: %v", action, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to "+action)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling JSON response: %v", err)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error preparing response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
