package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm/clause"
)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"displayName"`
	GameCode    string `json:"gameCode" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	GameCode string `json:"gameCode" binding:"required"`
}

type logoutRequest struct {
	UserID   string `json:"userId"`
	GameCode string `json:"gameCode"`
}

// userView is the session blob the client stores locally. There is no
// token; identity is trusted from the client on later requests.
type userView struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "username and game code are required")
		return
	}
	username, err := validateName("username", req.Username)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	var existing db.User
	if err := s.db.Where("username = ?", username).First(&existing).Error; err == nil {
		writeError(c, http.StatusConflict, "username already in use")
		return
	} else if !notFound(err) {
		writeError(c, http.StatusInternalServerError, "failed to check username")
		return
	}

	game, err := s.findGame(req.GameCode)
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = username
	}
	user := db.User{
		Username:    username,
		DisplayName: displayName,
	}
	if err := s.db.Create(&user).Error; err != nil {
		log.Printf("user create failed username=%s err=%v", username, err)
		writeError(c, http.StatusInternalServerError, "failed to create account")
		return
	}

	session := db.GameSession{
		GameID:     game.ID,
		UserID:     user.ID,
		LastActive: timeNowUTC(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		log.Printf("session create failed user_id=%d game_id=%d err=%v", user.ID, game.ID, err)
	}

	log.Printf("user registered user_id=%d username=%s game_id=%d", user.ID, user.Username, game.ID)
	c.JSON(http.StatusOK, gin.H{"user": userView{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "username and game code are required")
		return
	}

	var user db.User
	if err := s.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "username not found, register to create an account")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load user")
		return
	}

	now := timeNowUTC()
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		log.Printf("last_login update failed user_id=%d err=%v", user.ID, err)
	}

	game, err := s.findGame(req.GameCode)
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	session := db.GameSession{
		GameID:     game.ID,
		UserID:     user.ID,
		LastActive: now,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_active"}),
	}).Create(&session).Error
	if err != nil {
		log.Printf("session upsert failed user_id=%d game_id=%d err=%v", user.ID, game.ID, err)
	}

	log.Printf("user logged in user_id=%d username=%s game_id=%d", user.ID, user.Username, game.ID)
	c.JSON(http.StatusOK, gin.H{"user": userView{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}})
}

func (s *Server) handleLogout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	// Guests have no server-side state to clear.
	if req.UserID == "" || isGuest(req.UserID) {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	userID, ok := parseID(req.UserID)
	if ok && req.GameCode != "" {
		if game, err := s.findGame(req.GameCode); err == nil {
			err := s.db.Model(&db.GameSession{}).
				Where("game_id = ? AND user_id = ?", game.ID, userID).
				Update("last_active", timeNowUTC()).Error
			if err != nil {
				log.Printf("session touch failed user_id=%d err=%v", userID, err)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleAuthCheck(c *gin.Context) {
	var count int64
	if err := s.db.Model(&db.User{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"hasAuth": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasAuth": true})
}
