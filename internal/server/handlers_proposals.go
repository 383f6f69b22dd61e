package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
)

type createProposalRequest struct {
	PlayerID    uint   `json:"playerId" binding:"required"`
	Description string `json:"description" binding:"required"`
	Points      *int64 `json:"points" binding:"required"`
	Username    string `json:"username" binding:"required"`
}

type voteRequest struct {
	Vote     string `json:"vote" binding:"required,oneof=for against"`
	Username string `json:"username" binding:"required"`
}

// playerRef is the embedded player summary proposal listings carry.
type playerRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type proposalView struct {
	db.Proposal
	Player playerRef `json:"player"`
}

func (s *Server) handleListProposals(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}

	var proposals []db.Proposal
	err = s.db.Where("game_id = ? AND status = ?", game.ID, db.ProposalPending).
		Order("created_at desc").
		Find(&proposals).Error
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load proposals")
		return
	}

	views := make([]proposalView, 0, len(proposals))
	for _, proposal := range proposals {
		view := proposalView{Proposal: proposal}
		var player db.Player
		if err := s.db.First(&player, proposal.PlayerID).Error; err == nil {
			view.Player = playerRef{ID: player.ID, Name: player.Name}
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"proposals": views})
}

func (s *Server) handleCreateProposal(c *gin.Context) {
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "incomplete proposal data")
		return
	}
	description, err := validateDescription(req.Description)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
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

	var target db.Player
	if err := s.db.Where("id = ? AND game_id = ?", req.PlayerID, game.ID).First(&target).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "player not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load player")
		return
	}

	var totalVoters int64
	if err := s.db.Model(&db.Player{}).Where("game_id = ?", game.ID).Count(&totalVoters).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to count players")
		return
	}
	if totalVoters == 0 {
		totalVoters = 1
	}

	proposal := db.Proposal{
		GameID:        game.ID,
		PlayerID:      target.ID,
		ProposedBy:    req.Username,
		Description:   description,
		Points:        *req.Points,
		Status:        db.ProposalPending,
		TotalVoters:   int(totalVoters),
		RequiredVotes: requiredVotes(int(totalVoters)),
		ExpiresAt:     timeNowUTC().Add(time.Duration(s.cfg.ProposalTTLHours) * time.Hour),
	}
	if err := s.db.Create(&proposal).Error; err != nil {
		log.Printf("proposal create failed game_id=%d err=%v", game.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to create proposal")
		return
	}

	log.Printf("proposal created game_id=%d proposal_id=%d target=%d points=%d required=%d",
		game.ID, proposal.ID, target.ID, proposal.Points, proposal.RequiredVotes)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"proposal": proposal,
		"message": fmt.Sprintf("Proposal created! %d of %d votes in favor required.",
			proposal.RequiredVotes, proposal.TotalVoters),
	})
}

type voteView struct {
	Username  string    `json:"username"`
	Vote      string    `json:"vote"`
	CreatedAt time.Time `json:"created_at"`
}

type proposalDetail struct {
	proposalView
	Votes []voteView `json:"votes"`
}

func (s *Server) handleGetProposal(c *gin.Context) {
	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}
	proposalID, ok := parseID(c.Param("proposalId"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid proposal id")
		return
	}

	var proposal db.Proposal
	if err := s.db.Where("id = ? AND game_id = ?", proposalID, game.ID).First(&proposal).Error; err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "proposal not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load proposal")
		return
	}

	view := proposalView{Proposal: proposal}
	var player db.Player
	if err := s.db.First(&player, proposal.PlayerID).Error; err == nil {
		view.Player = playerRef{ID: player.ID, Name: player.Name}
	}

	var votes []db.ProposalVote
	if err := s.db.Where("proposal_id = ?", proposal.ID).Order("created_at asc, id asc").Find(&votes).Error; err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load votes")
		return
	}
	voteViews := make([]voteView, 0, len(votes))
	for _, vote := range votes {
		rendered := "against"
		if vote.Vote {
			rendered = "for"
		}
		voteViews = append(voteViews, voteView{
			Username:  vote.Username,
			Vote:      rendered,
			CreatedAt: vote.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"proposal": proposalDetail{
			proposalView: view,
			Votes:        voteViews,
		},
	})
}

func (s *Server) handleVote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "vote or username invalid")
		return
	}
	voteFor := req.Vote == "for"

	game, err := s.findGame(c.Param("code"))
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "game not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load game")
		return
	}
	proposalID, ok := parseID(c.Param("proposalId"))
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid proposal id")
		return
	}

	var proposal db.Proposal
	err = s.db.Where("id = ? AND game_id = ? AND status = ?", proposalID, game.ID, db.ProposalPending).
		First(&proposal).Error
	if err != nil {
		if notFound(err) {
			writeError(c, http.StatusNotFound, "proposal not found or no longer active")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load proposal")
		return
	}

	// Lazy expiry: nothing sweeps proposals in the background, an expired
	// one is only flipped when the next vote arrives.
	if timeNowUTC().After(proposal.ExpiresAt) {
		if err := s.db.Model(&proposal).Update("status", db.ProposalExpired).Error; err != nil {
			log.Printf("proposal expire failed proposal_id=%d err=%v", proposal.ID, err)
		}
		writeError(c, http.StatusBadRequest, "proposal expired")
		return
	}

	var existingVote db.ProposalVote
	err = s.db.Where("proposal_id = ? AND username = ?", proposal.ID, req.Username).First(&existingVote).Error
	if err == nil {
		writeError(c, http.StatusConflict, "already voted on this proposal")
		return
	}
	if !notFound(err) {
		writeError(c, http.StatusInternalServerError, "failed to check previous votes")
		return
	}

	vote := db.ProposalVote{
		ProposalID: proposal.ID,
		Username:   req.Username,
		Vote:       voteFor,
	}
	if err := s.db.Create(&vote).Error; err != nil {
		log.Printf("vote insert failed proposal_id=%d err=%v", proposal.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to record vote")
		return
	}

	// Counter bump is a plain read-then-write on the row loaded above.
	// Two concurrent voters can interleave and lose one increment.
	if voteFor {
		proposal.VotesFor++
	} else {
		proposal.VotesAgainst++
	}
	err = s.db.Model(&db.Proposal{}).Where("id = ?", proposal.ID).Updates(map[string]any{
		"votes_for":     proposal.VotesFor,
		"votes_against": proposal.VotesAgainst,
	}).Error
	if err != nil {
		log.Printf("vote count update failed proposal_id=%d err=%v", proposal.ID, err)
		writeError(c, http.StatusInternalServerError, "failed to update vote counts")
		return
	}

	status := tallyStatus(&proposal)
	if status != db.ProposalPending {
		if err := s.db.Model(&db.Proposal{}).Where("id = ?", proposal.ID).Update("status", status).Error; err != nil {
			log.Printf("proposal status update failed proposal_id=%d err=%v", proposal.ID, err)
		}
		proposal.Status = status
	}

	var actionResult gin.H
	if status == db.ProposalApproved {
		actionResult = s.executeProposal(&proposal)
	}

	message := fmt.Sprintf("Vote recorded (%d/%d votes in favor)", proposal.VotesFor, proposal.RequiredVotes)
	switch status {
	case db.ProposalApproved:
		message = "Proposal approved and executed!"
	case db.ProposalRejected:
		message = "Proposal rejected"
	}

	log.Printf("vote cast game_id=%d proposal_id=%d vote=%s for=%d against=%d status=%s",
		game.ID, proposal.ID, req.Vote, proposal.VotesFor, proposal.VotesAgainst, proposal.Status)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"vote":         req.Vote,
		"proposal":     proposal,
		"actionResult": actionResult,
		"message":      message,
	})
}

// executeProposal applies an approved proposal's point delta and writes
// the ledger entry. Failures are logged, never rolled back: the status
// transition already happened, so a proposal can end up executed without
// a matching ledger row.
func (s *Server) executeProposal(proposal *db.Proposal) gin.H {
	var player db.Player
	if err := s.db.First(&player, proposal.PlayerID).Error; err != nil {
		log.Printf("proposal execute failed proposal_id=%d player_id=%d err=%v", proposal.ID, proposal.PlayerID, err)
		return nil
	}

	newAura := player.AuraPoints + proposal.Points
	if err := s.db.Model(&player).Update("aura_points", newAura).Error; err != nil {
		log.Printf("proposal execute failed proposal_id=%d err=%v", proposal.ID, err)
		return nil
	}

	actionType := "add"
	if proposal.Points < 0 {
		actionType = "subtract"
	}
	action := db.Action{
		GameID:      proposal.GameID,
		PlayerID:    proposal.PlayerID,
		Type:        actionType,
		Points:      proposal.Points,
		Description: "Proposal approved: " + proposal.Description,
		PerformedBy: proposal.ProposedBy,
	}
	if err := s.db.Create(&action).Error; err != nil {
		log.Printf("proposal action log failed proposal_id=%d err=%v", proposal.ID, err)
	}

	if err := s.db.Model(&db.Proposal{}).Where("id = ?", proposal.ID).Update("status", db.ProposalExecuted).Error; err != nil {
		log.Printf("proposal status update failed proposal_id=%d err=%v", proposal.ID, err)
	} else {
		proposal.Status = db.ProposalExecuted
	}
	if err := s.recordEvent(proposal.GameID, "proposal_executed", map[string]any{
		"proposal_id": proposal.ID,
		"player_id":   proposal.PlayerID,
		"points":      proposal.Points,
		"new_aura":    newAura,
	}); err != nil {
		log.Printf("event write failed game_id=%d err=%v", proposal.GameID, err)
	}

	log.Printf("proposal executed proposal_id=%d player_id=%d points=%d aura=%d",
		proposal.ID, proposal.PlayerID, proposal.Points, newAura)
	return gin.H{"executed": true, "newAura": newAura}
}
