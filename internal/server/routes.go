package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.helloHandler)
	r.Get("/health", s.healthHandler)

	r.Post("/listtasks", s.listTasksHandler)
	r.Post("/taskinfo/{id}", s.taskInfoHandler)
	r.Post("/addtask", s.addTaskHandler)
	r.Post("/addchildtask/{parentId}", s.addChildTaskHandler)
	r.Patch("/edittask/{id}", s.editTaskHandler)
	r.Patch("/ticktask/{id}", s.tickTaskHandler)
	r.Post("/deletetask/{id}", s.deleteTaskHandler)

	r.Route("/user", func(r chi.Router) {
		r.Post("/register", s.registerHandler)
		r.Post("/remove", s.removeUserHandler)
		r.Post("/login", s.loginHandler)
	})

	return r
}

func (s *Server) helloHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Hello World from the task tracker!"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	healthStats := s.health.Health()
	if status, ok := healthStats["status"]; ok && status == "down" {
		respondWithJSON(w, http.StatusServiceUnavailable, healthStats)
		return
	}
	respondWithJSON(w, http.StatusOK, healthStats)
}
