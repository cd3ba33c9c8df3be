package servers

import (
	"github.com/gin-gonic/gin"

	"github.com/edgevision-ai/provision-backend/pkg/orchestrator"
)

type Server struct {
	Router *gin.Engine
	Engine *orchestrator.Orchestrator
}

func (s *Server) Start(port string) error {
	return s.Router.Run(":" + port)
}

func (s *Server) Use(middleware gin.HandlerFunc) {
	s.Router.Use(middleware)
}

func NewServer(engine *orchestrator.Orchestrator) *Server {
	app := gin.Default()

	return &Server{
		Router: app,
		Engine: engine,
	}
}
