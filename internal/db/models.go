package db

import (
	"time"

	"gorm.io/datatypes"
)

type Game struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"size:12;uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	Players   []Player  `json:"-"`
	Actions   []Action  `json:"-"`
}

type Player struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GameID     uint      `gorm:"index;not null;uniqueIndex:idx_players_game_name" json:"game_id"`
	Name       string    `gorm:"size:64;not null;uniqueIndex:idx_players_game_name" json:"name"`
	Avatar     string    `gorm:"size:16;not null" json:"avatar"`
	AuraPoints int64     `gorm:"not null;default:0" json:"aura_points"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

// Action is one append-only ledger entry. Points is always the signed
// delta that was applied, so deleting an action can reverse it exactly.
type Action struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	GameID      uint      `gorm:"index;not null" json:"game_id"`
	PlayerID    uint      `gorm:"index;not null" json:"player_id"`
	Type        string    `gorm:"size:32;not null" json:"action_type"`
	Points      int64     `gorm:"not null" json:"points"`
	Description string    `gorm:"size:280;not null" json:"description"`
	PerformedBy string    `gorm:"size:64" json:"performed_by_username"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

type ActionComment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ActionID  uint      `gorm:"index;not null" json:"action_id"`
	UserID    string    `gorm:"size:64;not null" json:"user_id"`
	Username  string    `gorm:"size:64;not null" json:"username"`
	Comment   string    `gorm:"size:500;not null" json:"comment"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

// Proposal statuses. A proposal leaves pending exactly once.
const (
	ProposalPending  = "pending"
	ProposalApproved = "approved"
	ProposalRejected = "rejected"
	ProposalExecuted = "executed"
	ProposalExpired  = "expired"
)

// Proposal is a pending request to apply a signed point delta to a player,
// subject to absolute-majority vote. TotalVoters and RequiredVotes are
// snapshots taken at creation and never recomputed.
type Proposal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GameID        uint      `gorm:"index;not null" json:"game_id"`
	PlayerID      uint      `gorm:"index;not null" json:"player_id"`
	ProposedBy    string    `gorm:"size:64;not null" json:"proposed_by_username"`
	Description   string    `gorm:"size:280;not null" json:"description"`
	Points        int64     `gorm:"not null" json:"points"`
	Status        string    `gorm:"size:16;not null;default:pending" json:"status"`
	VotesFor      int       `gorm:"not null;default:0" json:"votes_for"`
	VotesAgainst  int       `gorm:"not null;default:0" json:"votes_against"`
	TotalVoters   int       `gorm:"not null" json:"total_voters"`
	RequiredVotes int       `gorm:"not null" json:"required_votes"`
	ExpiresAt     time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

type ProposalVote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProposalID uint      `gorm:"index;not null;uniqueIndex:idx_votes_proposal_username" json:"proposal_id"`
	Username   string    `gorm:"size:64;not null;uniqueIndex:idx_votes_proposal_username" json:"username"`
	Vote       bool      `gorm:"not null" json:"vote"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

type User struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Username    string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	DisplayName string     `gorm:"size:64;not null" json:"display_name"`
	AvatarURL   string     `gorm:"size:255" json:"avatar_url"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}

type GameSession struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GameID     uint      `gorm:"index;not null;uniqueIndex:idx_sessions_game_user" json:"game_id"`
	UserID     uint      `gorm:"index;not null;uniqueIndex:idx_sessions_game_user" json:"user_id"`
	LastActive time.Time `gorm:"not null" json:"last_active"`
}

// Event is an append-only audit record. Written on game lifecycle changes
// and proposal transitions, read only by the events endpoint.
type Event struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	GameID    uint           `gorm:"index;not null" json:"game_id"`
	Type      string         `gorm:"size:64;not null" json:"type"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}
