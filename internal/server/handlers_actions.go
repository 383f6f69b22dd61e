package server

import (
	"log"
	"net/http"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
)

type addCommentRequest struct {
	Comment  string `json:"comment" binding:"required"`
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
}

func (s *Server) handleListComments(c *gin.Context) {
	_, action, ok := s.findGameAction(c)
	if !ok {
		return
	}

	comments := []db.ActionComment{}
	if err := s.db.Where("action_id = ?", action.ID).Order("created_at asc, id asc").Find(&comments).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (s *Server) handleAddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "comment and user info are required")
		return
	}
	comment, err := validateComment(req.Comment)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	_, action, ok := s.findGameAction(c)
	if !ok {
		return
	}

	record := db.ActionComment{
		ActionID: action.ID,
		UserID:   req.UserID,
		Username: req.Username,
		Comment:  comment,
	}
	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("comment create failed action_id=%d err=%v", action.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to add comment")
		return
	}

	log.Printf("comment added action_id=%d username=%s", action.ID, req.Username)
	c.JSON(http.StatusOK, gin.H{
		"message": "comment added",
		"comment": record,
	})
}

// handleDeleteAction removes a ledger entry and reverses its point delta
// on the player it targeted.
func (s *Server) handleDeleteAction(c *gin.Context) {
	_, action, ok := s.findGameAction(c)
	if !ok {
		return
	}

	var player db.Player
	if err := s.db.First(&player, action.PlayerID).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "player not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load player")
		return
	}

	newAura := player.AuraPoints - action.Points
	if err := s.db.Model(&player).Update("aura_points", newAura).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to update points")
		return
	}

	if err := s.db.Where("action_id = ?", action.ID).Delete(&db.ActionComment{}).Error; err != nil {
		log.Printf("comment cleanup failed action_id=%d err=%v", action.ID, err)
	}
	if err := s.db.Delete(&db.Action{}, action.ID).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to delete action")
		return
	}

	log.Printf("action deleted action_id=%d player_id=%d reversed=%d", action.ID, player.ID, action.Points)
	c.JSON(http.StatusOK, gin.H{
		"message":       "action deleted",
		"newAuraPoints": newAura,
	})
}

func (s *Server) findGameAction(c *gin.Context) (*db.Game, *db.Action, bool) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return nil, nil, false
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return nil, nil, false
	}
	actionID, ok := parseID(c.Param("actionId"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid action id")
		return nil, nil, false
	}
	var action db.Action
	if err := s.db.Where("id = ? AND game_id = ?", actionID, game.ID).First(&action).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "action not found")
			return nil, nil, false
		}
		writeError(c, http.StatusInternalServerError, "failed to load action")
		return nil, nil, false
	}
	return game, &action, true
}
