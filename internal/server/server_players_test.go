package server

import (
	"net/http"
	"testing"

	"github.com/braeddy/aura-tracker/internal/db"
)

func TestJoinGame(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createGame(t, ts, "Test")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/players", map[string]string{"name": "Ada"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	if player["name"] != "Ada" {
		t.Fatalf("unexpected player name: %v", player["name"])
	}
	if player["aura_points"].(float64) != 0 {
		t.Fatalf("new players start at 0 aura, got %v", player["aura_points"])
	}
	if player["avatar"] == "" {
		t.Fatal("expected an avatar to be assigned")
	}
}

func TestJoinGameDuplicateName(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createGame(t, ts, "Test")
	joinPlayer(t, ts, code, "Ada")

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/players", map[string]string{"name": "Ada"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, resp.StatusCode)
	}
}

func TestJoinGameByUserID(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")

	user := db.User{Username: "ada", DisplayName: "Ada L"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/players", map[string]any{"userId": user.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	if player["name"] != "Ada L" {
		t.Fatalf("expected display name, got %v", player["name"])
	}
	if uint(player["user_id"].(float64)) != user.ID {
		t.Fatalf("expected linked user id %d, got %v", user.ID, player["user_id"])
	}
}

func TestAdjustPoints(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")

	adjustPoints(t, ts, code, playerID, 1000, "won the bet")
	adjustPoints(t, ts, code, playerID, -250, "lost the rematch")

	if aura := fetchPlayerAura(t, conn, playerID); aura != 750 {
		t.Fatalf("expected aura 750, got %d", aura)
	}

	var actions []db.Action
	if err := conn.Where("player_id = ?", playerID).Order("created_at asc").Find(&actions).Error; err != nil {
		t.Fatalf("load actions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("expected two actions, got %d", len(actions))
	}
	if actions[0].Type != "aura_gain" || actions[0].Points != 1000 {
		t.Fatalf("unexpected first action: %+v", actions[0])
	}
	if actions[1].Type != "aura_loss" || actions[1].Points != -250 {
		t.Fatalf("unexpected second action: %+v", actions[1])
	}
}

func TestAdjustPointsGuestForbidden(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")

	resp := doRequest(t, ts, http.MethodPatch,
		"/api/games/"+code+"/players/"+strconvUint(playerID),
		map[string]any{"points": 100, "userId": "Guest_1234"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, resp.StatusCode)
	}
	if aura := fetchPlayerAura(t, conn, playerID); aura != 0 {
		t.Fatalf("guest adjustment must not change aura, got %d", aura)
	}
}

func TestAdjustPointsRequiresNumber(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")

	resp := doRequest(t, ts, http.MethodPatch,
		"/api/games/"+code+"/players/"+strconvUint(playerID),
		map[string]any{"description": "no points"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDeletePlayer(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")
	adjustPoints(t, ts, code, playerID, 100, "seed")

	resp := doRequest(t, ts, http.MethodDelete, "/api/games/"+code+"/players/"+strconvUint(playerID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var playerCount, actionCount int64
	conn.Model(&db.Player{}).Count(&playerCount)
	conn.Model(&db.Action{}).Where("player_id = ?", playerID).Count(&actionCount)
	if playerCount != 0 || actionCount != 0 {
		t.Fatalf("expected player and actions gone, players=%d actions=%d", playerCount, actionCount)
	}
}

func TestDeletePlayerUnknown(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createGame(t, ts, "Test")

	resp := doRequest(t, ts, http.MethodDelete, "/api/games/"+code+"/players/999", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}
