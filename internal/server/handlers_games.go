package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
)

type createGameRequest struct {
	Name string `json:"name" binding:"required"`
}

type updateGameRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "game name is required")
		return
	}
	name, err := validateName("game name", req.Name)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	code := ""
	for attempt := 0; attempt < s.cfg.CodeAttempts; attempt++ {
		candidate := newGameCode(s.cfg.CodeLength)
		var existing db.Game
		if err := s.db.Where("code = ?", candidate).First(&existing).Error; notFound(err) {
			code = candidate
			break
		} else if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to create game")
			return
		}
	}
	if code == "" {
		writeError(c, http.StatusInternalServerError, "could not generate a unique game code")
		return
	}

	game := db.Game{Code: code, Name: name}
	if err := s.db.Create(&game).Error; err != nil {
		log.Printf("game create failed code=%s err=%v", code, err)
		writeError(c, http.StatusInternalServerError, "failed to create game")
		return
	}
	if err := s.recordEvent(game.ID, "game_created", map[string]any{"code": game.Code, "name": game.Name}); err != nil {
		log.Printf("event write failed game_id=%d err=%v", game.ID, err)
	}
	log.Printf("game created game_id=%d code=%s", game.ID, game.Code)
	c.JSON(http.StatusCreated, gin.H{
		"game":    game,
		"code":    game.Code,
		"message": "game created",
	})
}

// actionView is an action row joined with the target player's name, the
// shape the scoreboard feed renders.
type actionView struct {
	db.Action
	PlayerName string `json:"player_name"`
}

func (s *Server) handleGetGame(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	players := []db.Player{}
	if err := s.db.Where("game_id = ?", game.ID).Order("aura_points desc").Find(&players).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load players")
		return
	}

	var actions []actionView
	err = s.db.Model(&db.Action{}).
		Select("actions.*, players.name as player_name").
		Joins("JOIN players ON players.id = actions.player_id").
		Where("actions.game_id = ?", game.ID).
		Order("actions.created_at desc").
		Limit(s.cfg.RecentActionsLimit).
		Scan(&actions).Error
	if err != nil {
		log.Printf("actions load failed game_id=%d err=%v", game.ID, err)
	}
	if actions == nil {
		actions = []actionView{}
	}

	c.JSON(http.StatusOK, gin.H{
		"game":    game,
		"players": players,
		"actions": actions,
	})
}

func (s *Server) handleUpdateGame(c *gin.Context) {
	var req updateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.Code) == "" {
		writeError(c, http.StatusBadRequest, "name or code is required")
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

	if raw := strings.TrimSpace(req.Name); raw != "" {
		name, err := validateName("game name", raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		game.Name = name
	}
	if raw := strings.TrimSpace(req.Code); raw != "" {
		newCode := strings.ToUpper(raw)
		if len(newCode) > 12 {
			writeError(c, http.StatusBadRequest, "code must be 12 characters or fewer")
			return
		}
		if newCode != game.Code {
			var existing db.Game
			if err := s.db.Where("code = ?", newCode).First(&existing).Error; err == nil {
				writeError(c, http.StatusConflict, "game code already in use")
				return
			} else if !notFound(err) {
				writeError(c, http.StatusInternalServerError, "failed to check game code")
				return
			}
			game.Code = newCode
		}
	}

	if err := s.db.Save(game).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to update game")
		return
	}
	if err := s.recordEvent(game.ID, "game_updated", map[string]any{"code": game.Code, "name": game.Name}); err != nil {
		log.Printf("event write failed game_id=%d err=%v", game.ID, err)
	}
	log.Printf("game updated game_id=%d code=%s", game.ID, game.Code)
	c.JSON(http.StatusOK, gin.H{"game": game})
}

func (s *Server) handleDeleteGame(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	// Children first to satisfy referential constraints.
	steps := []struct {
		label string
		run   func() error
	}{
		{"comments", func() error {
			return s.db.Where("action_id IN (?)",
				s.db.Model(&db.Action{}).Select("id").Where("game_id = ?", game.ID),
			).Delete(&db.ActionComment{}).Error
		}},
		{"actions", func() error {
			return s.db.Where("game_id = ?", game.ID).Delete(&db.Action{}).Error
		}},
		{"votes", func() error {
			return s.db.Where("proposal_id IN (?)",
				s.db.Model(&db.Proposal{}).Select("id").Where("game_id = ?", game.ID),
			).Delete(&db.ProposalVote{}).Error
		}},
		{"proposals", func() error {
			return s.db.Where("game_id = ?", game.ID).Delete(&db.Proposal{}).Error
		}},
		{"sessions", func() error {
			return s.db.Where("game_id = ?", game.ID).Delete(&db.GameSession{}).Error
		}},
		{"events", func() error {
			return s.db.Where("game_id = ?", game.ID).Delete(&db.Event{}).Error
		}},
		{"players", func() error {
			return s.db.Where("game_id = ?", game.ID).Delete(&db.Player{}).Error
		}},
		{"game", func() error {
			return s.db.Delete(&db.Game{}, game.ID).Error
		}},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			log.Printf("game delete failed game_id=%d step=%s err=%v", game.ID, step.label, err)
			writeError(c, http.StatusInternalServerError, "failed to delete "+step.label)
			return
		}
	}

	log.Printf("game deleted game_id=%d code=%s", game.ID, game.Code)
	c.JSON(http.StatusOK, gin.H{
		"message":   "game deleted",
		"deletedAt": timeNowUTC().Format(time.RFC3339),
	})
}

func (s *Server) handleResetGame(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	if err := s.db.Where("game_id = ?", game.ID).Delete(&db.Action{}).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to clear actions")
		return
	}
	err = s.db.Model(&db.Player{}).
		Where("game_id = ?", game.ID).
		Update("aura_points", s.cfg.ResetAuraPoints).Error
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to reset aura points")
		return
	}
	if err := s.recordEvent(game.ID, "game_reset", map[string]any{"baseline": s.cfg.ResetAuraPoints}); err != nil {
		log.Printf("event write failed game_id=%d err=%v", game.ID, err)
	}

	log.Printf("game reset game_id=%d code=%s baseline=%d", game.ID, game.Code, s.cfg.ResetAuraPoints)
	c.JSON(http.StatusOK, gin.H{
		"message": "game reset",
		"resetAt": timeNowUTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListEvents(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	events := []db.Event{}
	if err := s.db.Where("game_id = ?", game.ID).Order("created_at asc, id asc").Find(&events).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
