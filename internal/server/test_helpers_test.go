package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/braeddy/aura-tracker/internal/config"
	"github.com/braeddy/aura-tracker/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*httptest.Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	srv := New(conn, config.Default())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, conn
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createGame(t *testing.T, ts *httptest.Server, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/create", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	code, ok := body["code"].(string)
	if !ok || code == "" {
		t.Fatalf("expected game code, got %#v", body["code"])
	}
	return code
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/players", map[string]string{"name": name})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player, ok := body["player"].(map[string]any)
	if !ok {
		t.Fatalf("expected player object, got %#v", body["player"])
	}
	return uint(player["id"].(float64))
}

func createProposal(t *testing.T, ts *httptest.Server, code string, playerID uint, points int64, username string) uint {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/proposals", map[string]any{
		"playerId":    playerID,
		"description": "test proposal",
		"points":      points,
		"username":    username,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	proposal, ok := body["proposal"].(map[string]any)
	if !ok {
		t.Fatalf("expected proposal object, got %#v", body["proposal"])
	}
	return uint(proposal["id"].(float64))
}

func castVote(t *testing.T, ts *httptest.Server, code string, proposalID uint, vote, username string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost,
		"/api/games/"+code+"/proposals/"+strconvUint(proposalID)+"/vote",
		map[string]string{"vote": vote, "username": username})
}

func strconvUint(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func adjustPoints(t *testing.T, ts *httptest.Server, code string, playerID uint, points int64, description string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPatch,
		"/api/games/"+code+"/players/"+strconvUint(playerID),
		map[string]any{"points": points, "description": description})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func fetchPlayerAura(t *testing.T, conn *gorm.DB, playerID uint) int64 {
	t.Helper()
	var player db.Player
	if err := conn.First(&player, playerID).Error; err != nil {
		t.Fatalf("load player: %v", err)
	}
	return player.AuraPoints
}

func fetchProposal(t *testing.T, conn *gorm.DB, proposalID uint) db.Proposal {
	t.Helper()
	var proposal db.Proposal
	if err := conn.First(&proposal, proposalID).Error; err != nil {
		t.Fatalf("load proposal: %v", err)
	}
	return proposal
}
