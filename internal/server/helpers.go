package server

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}

// findGame resolves a game by its share code, case-insensitively.
func (s *Server) findGame(code string) (*db.Game, error) {
	var game db.Game
	err := s.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).First(&game).Error
	if err != nil {
		return nil, err
	}
	return &game, nil
}

func parseID(raw string) (uint, bool) {
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

func newGameCode(length int) string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return strings.Repeat("A", length)
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

var avatarEmojis = []string{"👑", "🏆", "⚡", "🔥", "💎", "🌟", "🎯", "🚀", "💫", "🎭", "🎪", "🎨", "🎵", "🎮", "🎲"}

func randomAvatar() string {
	index, err := rand.Int(rand.Reader, big.NewInt(int64(len(avatarEmojis))))
	if err != nil {
		return avatarEmojis[0]
	}
	return avatarEmojis[index.Int64()]
}

// isGuest reports whether a client-supplied user id belongs to an
// ephemeral guest identity rather than a registered user.
func isGuest(userID string) bool {
	return strings.HasPrefix(userID, "Guest_")
}

// recordEvent appends an audit event. Audit failures never fail the
// request that triggered them.
func (s *Server) recordEvent(gameID uint, eventType string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	record := db.Event{
		GameID:  gameID,
		Type:    eventType,
		Payload: datatypes.JSON(data),
	}
	return s.db.Create(&record).Error
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
