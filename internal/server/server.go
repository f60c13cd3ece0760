package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Tomlord1122/task-tracker/internal/service"
)

// HealthChecker reports the health of the backing store.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	port        int
	taskService service.TaskService
	userService service.UserService
	health      HealthChecker
}

// NewServer wires the services into an http.Server listening on port.
func NewServer(port int, taskService service.TaskService, userService service.UserService, health HealthChecker) *http.Server {
	appServer := &Server{
		port:        port,
		taskService: taskService,
		userService: userService,
		health:      health,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", appServer.port),
		Handler:      appServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
