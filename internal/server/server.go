package server

import (
	"net/http"
	"time"

	"github.com/braeddy/aura-tracker/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	db  *gorm.DB
	cfg config.Config
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		db:  conn,
		cfg: cfg,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		auth := api.Group("/auth")
		{
			auth.POST("/register", s.handleRegister)
			auth.POST("/login", s.handleLogin)
			auth.POST("/logout", s.handleLogout)
			auth.GET("/check", s.handleAuthCheck)
		}

		games := api.Group("/games")
		{
			games.POST("/create", s.handleCreateGame)
			games.GET("/:code", s.handleGetGame)
			games.PATCH("/:code", s.handleUpdateGame)
			games.DELETE("/:code", s.handleDeleteGame)
			games.POST("/:code/reset", s.handleResetGame)
			games.GET("/:code/events", s.handleListEvents)

			games.POST("/:code/players", s.handleAddPlayer)
			games.PATCH("/:code/players/:playerId", s.handleAdjustPlayer)
			games.DELETE("/:code/players/:playerId", s.handleDeletePlayer)

			games.GET("/:code/proposals", s.handleListProposals)
			games.POST("/:code/proposals", s.handleCreateProposal)
			games.GET("/:code/proposals/:proposalId", s.handleGetProposal)
			games.POST("/:code/proposals/:proposalId/vote", s.handleVote)

			games.GET("/:code/actions/:actionId/comments", s.handleListComments)
			games.POST("/:code/actions/:actionId/comments", s.handleAddComment)
			games.DELETE("/:code/actions/:actionId", s.handleDeleteAction)
		}
	}
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
