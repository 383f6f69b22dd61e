package server

import (
	"log"
	"net/http"
	"strings"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
)

type addPlayerRequest struct {
	Name   string `json:"name"`
	UserID uint   `json:"userId"`
}

type adjustPlayerRequest struct {
	Points      *int64 `json:"points" binding:"required"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

func (s *Server) handleAddPlayer(c *gin.Context) {
	var req addPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "player name is required")
		return
	}

	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	name := strings.TrimSpace(req.Name)
	var userID *uint
	if req.UserID != 0 {
		var user db.User
		if err := s.db.First(&user, req.UserID).Error; err != nil {
			if notFound(err) {
				writeError(c, http.StatusNotFound, "user not found")
				return
			}
			writeError(c, http.StatusInternalServerError, "failed to load user")
			return
		}
		userID = &user.ID
		if name == "" {
			name = user.DisplayName
		}
	}
	name, err = validateName("player name", name)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	var existing db.Player
	if err := s.db.Where("game_id = ? AND name = ?", game.ID, name).First(&existing).Error; err == nil {
		writeError(c, http.StatusConflict, "player name already in use")
		return
	} else if !notFound(err) {
		writeError(c, http.StatusInternalServerError, "failed to check player name")
		return
	}

	player := db.Player{
		GameID:     game.ID,
		Name:       name,
		Avatar:     randomAvatar(),
		AuraPoints: 0,
		UserID:     userID,
	}
	if err := s.db.Create(&player).Error; err != nil {
		log.Printf("player create failed game_id=%d name=%s err=%v", game.ID, name, err)
		writeError(c, http.StatusInternalServerError, "failed to add player")
		return
	}

	log.Printf("player joined game_id=%d player_id=%d name=%s", game.ID, player.ID, player.Name)
	c.JSON(http.StatusOK, gin.H{
		"player":  player,
		"message": "player added",
	})
}

func (s *Server) handleAdjustPlayer(c *gin.Context) {
	var req adjustPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "points must be a number")
		return
	}
	if isGuest(req.UserID) {
		writeError(c, http.StatusForbidden, "guests cannot adjust points")
		return
	}

	game, player, ok := s.findGamePlayer(c)
	if !ok {
		return
	}

	delta := *req.Points
	newAura := player.AuraPoints + delta
	if err := s.db.Model(player).Update("aura_points", newAura).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to update points")
		return
	}
	player.AuraPoints = newAura

	actionType := "aura_gain"
	description := req.Description
	if description == "" {
		description = "Aura gained"
	}
	if delta < 0 {
		actionType = "aura_loss"
		if req.Description == "" {
			description = "Aura lost"
		}
	}
	action := db.Action{
		GameID:      game.ID,
		PlayerID:    player.ID,
		Type:        actionType,
		Points:      delta,
		Description: description,
		PerformedBy: req.UserID,
	}
	// The aura update already landed; a failed ledger write is logged
	// and the request still succeeds.
	if err := s.db.Create(&action).Error; err != nil {
		log.Printf("action log failed game_id=%d player_id=%d err=%v", game.ID, player.ID, err)
	}

	log.Printf("points adjusted game_id=%d player_id=%d delta=%d aura=%d", game.ID, player.ID, delta, newAura)
	c.JSON(http.StatusOK, gin.H{
		"player":  player,
		"message": "points updated",
	})
}

func (s *Server) handleDeletePlayer(c *gin.Context) {
	_, player, ok := s.findGamePlayer(c)
	if !ok {
		return
	}

	if err := s.db.Where("player_id = ?", player.ID).Delete(&db.Action{}).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to delete player actions")
		return
	}
	if err := s.db.Delete(&db.Player{}, player.ID).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to delete player")
		return
	}

	log.Printf("player deleted game_id=%d player_id=%d", player.GameID, player.ID)
	c.JSON(http.StatusOK, gin.H{"message": "player deleted"})
}

// findGamePlayer resolves the :code/:playerId pair, writing the error
// response itself when either half is missing.
func (s *Server) findGamePlayer(c *gin.Context) (*db.Game, *db.Player, bool) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return nil, nil, false
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return nil, nil, false
	}
	playerID, ok := parseID(c.Param("playerId"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid player id")
		return nil, nil, false
	}
	var player db.Player
	if err := s.db.Where("id = ? AND game_id = ?", playerID, game.ID).First(&player).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "player not found")
			return nil, nil, false
		}
		writeError(c, http.StatusInternalServerError, "failed to load player")
		return nil, nil, false
	}
	return game, &player, true
}
