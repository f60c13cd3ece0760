package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/task-tracker/internal/auth"
	"github.com/Tomlord1122/task-tracker/internal/config"
	"github.com/Tomlord1122/task-tracker/internal/database"
	"github.com/Tomlord1122/task-tracker/internal/repository"
	"github.com/Tomlord1122/task-tracker/internal/repository/memory"
	"github.com/Tomlord1122/task-tracker/internal/server"
	"github.com/Tomlord1122/task-tracker/internal/service"
)

var (
	port        int
	storeDriver string
	autoMigrate bool
)

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Task tracker HTTP API",
	Long:  "Serves the task tracker API: accounts, tasks and hierarchical task listings.",
	RunE:  runServe,

	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "record store: postgres or memory (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().BoolVar(&autoMigrate, "migrate", false, "run schema migration before serving")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() config.Config {
	cfg := config.Load()
	if port != 0 {
		cfg.Port = port
	}
	if storeDriver != "" {
		cfg.Store = storeDriver
	}
	return cfg
}

func runMigrate(cmd *cobra.Command, args []string) error {
	dbService, err := database.New(loadConfig().Database)
	if err != nil {
		return err
	}
	defer dbService.Close()

	log.Println("Running database migration...")
	if err := dbService.Migrate(); err != nil {
		return err
	}
	log.Println("Database migration complete.")
	return nil
}

// memoryHealth reports the in-memory store as always up.
type memoryHealth struct{}

func (memoryHealth) Health() map[string]string {
	return map[string]string{"status": "up", "message": "in-memory store"}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	var (
		taskRepo  repository.TaskRepository
		userRepo  repository.UserRepository
		health    server.HealthChecker
		dbService database.Service
	)
	switch cfg.Store {
	case config.StoreMemory:
		log.Println("Using in-memory store; data is lost on exit")
		store := memory.New()
		taskRepo, userRepo, health = store.Tasks(), store.Users(), memoryHealth{}
	case config.StorePostgres:
		var err error
		dbService, err = database.New(cfg.Database)
		if err != nil {
			return err
		}
		if autoMigrate {
			log.Println("Running database auto-migration...")
			if err := dbService.Migrate(); err != nil {
				_ = dbService.Close()
				return err
			}
		}
		gormDB := dbService.GetDB()
		taskRepo = repository.NewGormTaskRepository(gormDB)
		userRepo = repository.NewGormUserRepository(gormDB)
		health = dbService
	default:
		return fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.Auth.TokenSecret == "" {
		log.Println("Warning: AUTH_TOKEN_SECRET is not set; tokens will not survive a restart")
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	resolver := auth.NewResolver(userRepo, hasher, tokens)

	taskService := service.NewTaskService(taskRepo, resolver)
	userService := service.NewUserService(userRepo, hasher, resolver, tokens)

	apiServer := server.NewServer(cfg.Port, taskService, userService, health)

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, done)

	log.Printf("Starting server on %s", apiServer.Addr)
	err := apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Println("Graceful shutdown complete.")
	return nil
}

func gracefulShutdown(apiServer *http.Server, dbService database.Service, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// In-flight requests get five seconds to finish.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	if dbService != nil {
		if err := dbService.Close(); err != nil {
			log.Printf("Error closing database connection pool: %v", err)
		}
	}

	log.Println("Server exiting")
	done <- true
}
