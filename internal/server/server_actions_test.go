package server

import (
	"net/http"
	"testing"

	"github.com/braeddy/aura-tracker/internal/db"

	"gorm.io/gorm"
)

func latestActionID(t *testing.T, conn *gorm.DB, playerID uint) uint {
	t.Helper()
	var action db.Action
	if err := conn.Where("player_id = ?", playerID).Order("id desc").First(&action).Error; err != nil {
		t.Fatalf("load action: %v", err)
	}
	return action.ID
}

func TestAddAndListComments(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")
	adjustPoints(t, ts, code, playerID, 100, "seed")
	actionID := latestActionID(t, conn, playerID)

	resp := doRequest(t, ts, http.MethodPost,
		"/api/games/"+code+"/actions/"+strconvUint(actionID)+"/comments",
		map[string]string{"comment": "deserved it", "userId": "7", "username": "ada"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodGet,
		"/api/games/"+code+"/actions/"+strconvUint(actionID)+"/comments", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	comments := body["comments"].([]any)
	if len(comments) != 1 {
		t.Fatalf("expected one comment, got %d", len(comments))
	}
	first := comments[0].(map[string]any)
	if first["comment"] != "deserved it" || first["username"] != "ada" {
		t.Fatalf("unexpected comment: %#v", first)
	}
}

func TestAddCommentRequiresUserInfo(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")
	adjustPoints(t, ts, code, playerID, 100, "seed")
	actionID := latestActionID(t, conn, playerID)

	resp := doRequest(t, ts, http.MethodPost,
		"/api/games/"+code+"/actions/"+strconvUint(actionID)+"/comments",
		map[string]string{"comment": "anonymous"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestCommentsUnknownAction(t *testing.T) {
	ts, _ := newTestServer(t)
	code := createGame(t, ts, "Test")

	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+code+"/actions/999/comments", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestDeleteActionReversesPoints(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")
	adjustPoints(t, ts, code, playerID, 300, "typo")
	actionID := latestActionID(t, conn, playerID)

	resp := doRequest(t, ts, http.MethodDelete,
		"/api/games/"+code+"/actions/"+strconvUint(actionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["newAuraPoints"].(float64) != 0 {
		t.Fatalf("expected newAuraPoints 0, got %v", body["newAuraPoints"])
	}

	if aura := fetchPlayerAura(t, conn, playerID); aura != 0 {
		t.Fatalf("expected aura back to 0, got %d", aura)
	}
	var count int64
	conn.Model(&db.Action{}).Where("id = ?", actionID).Count(&count)
	if count != 0 {
		t.Fatal("expected action row deleted")
	}
}

func TestDeleteNegativeActionRestoresPoints(t *testing.T) {
	ts, conn := newTestServer(t)
	code := createGame(t, ts, "Test")
	playerID := joinPlayer(t, ts, code, "Ada")
	adjustPoints(t, ts, code, playerID, -400, "harsh call")
	actionID := latestActionID(t, conn, playerID)

	resp := doRequest(t, ts, http.MethodDelete,
		"/api/games/"+code+"/actions/"+strconvUint(actionID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if aura := fetchPlayerAura(t, conn, playerID); aura != 0 {
		t.Fatalf("deleting a negative action must add points back, got %d", aura)
	}
}
