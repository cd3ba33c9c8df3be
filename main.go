package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/edgevision-ai/provision-backend/internal/logger"
	"github.com/edgevision-ai/provision-backend/pkg/api/routes"
	"github.com/edgevision-ai/provision-backend/pkg/api/servers"
	"github.com/edgevision-ai/provision-backend/pkg/events"
	"github.com/edgevision-ai/provision-backend/pkg/infrastructure/googlecloud"
	"github.com/edgevision-ai/provision-backend/pkg/infrastructure/keyring"
	"github.com/edgevision-ai/provision-backend/pkg/infrastructure/postgres/connection"
	"github.com/edgevision-ai/provision-backend/pkg/infrastructure/postgres/repositories"
	"github.com/edgevision-ai/provision-backend/pkg/orchestrator"
	"github.com/edgevision-ai/provision-backend/pkg/statemanager"
	"github.com/edgevision-ai/provision-backend/pkg/taskmanager"
)

// @title           Provision Backend
// @version         1.0
// @description     Cloud provisioning API for edge AI deployments

// @host      localhost:${PORT}
// @BasePath  /api/v1

// @securityDefinitions.basic  NoAuth
func main() {

	logger.Init()

	// Load .env file if it exists (optional for Docker runtime)
	if err := godotenv.Load(".env"); err != nil {
		logger.Infof("No .env file found, using environment variables: %s", err)
	}

	port := os.Getenv("PORT")

	if port == "" {
		port = "8000"
	}

	repo, err := buildStateRepository()
	if err != nil {
		logger.Fatal("Failed to initialize state store", zap.Error(err))
	}

	ctx := context.Background()
	clients, err := googlecloud.NewClients(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize cloud clients", zap.Error(err))
	}

	tasks := taskmanager.NewTaskManager(1, 16)
	tasks.Start()
	defer tasks.Stop()

	engine := orchestrator.New(
		statemanager.New(repo),
		clients,
		events.NewBroker(),
		tasks,
	)

	server := servers.NewServer(engine)
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"*"}

	server.Use(cors.New(config))

	routes.SetupRoutes(server)

	err = server.Start(port)
	if err != nil {
		logger.Error("Failed to start server", zap.Error(err))
		log.Fatal(err)
	}
}

// buildStateRepository selects the durable store. Postgres serves shared or
// containerized installs; the OS keyring keeps single-operator desktop installs
// free of external infrastructure.
func buildStateRepository() (statemanager.Repository, error) {
	if os.Getenv("STATE_STORE") == "postgres" {
		db, err := connection.Init(
			os.Getenv("POSTGRES_USER"),
			os.Getenv("POSTGRES_HOST"),
			os.Getenv("POSTGRES_PASSWORD"),
			os.Getenv("POSTGRES_DB"),
			os.Getenv("POSTGRES_PORT"),
		)
		if err != nil {
			return nil, err
		}
		return repositories.NewDeploymentStateRepository(db), nil
	}
	return keyring.NewStateStore(os.Getenv("KEYRING_SERVICE")), nil
}
