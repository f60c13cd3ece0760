package server

import (
	"net/http"

	"github.com/Tomlord1122/task-tracker/internal/auth"
)

func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds, false); err != nil {
		respondWithServiceError(w, err, "register user")
		return
	}

	user, err := s.userService.Register(r.Context(), creds)
	if err != nil {
		respondWithServiceError(w, err, "register user")
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

func (s *Server) removeUserHandler(w http.ResponseWriter, r *http.Request) {
	creds, err := credentials(r)
	if err != nil {
		respondWithServiceError(w, err, "remove user")
		return
	}

	if err := s.userService.Remove(r.Context(), creds); err != nil {
		respondWithServiceError(w, err, "remove user")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := decodeJSON(r, &creds, false); err != nil {
		respondWithServiceError(w, err, "log in")
		return
	}

	login, err := s.userService.Login(r.Context(), creds)
	if err != nil {
		respondWithServiceError(w, err, "log in")
		return
	}
	respondWithJSON(w, http.StatusOK, login)
}
