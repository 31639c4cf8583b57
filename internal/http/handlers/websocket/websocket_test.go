package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/savcinema/voicereview-service/internal/types"
	"github.com/savcinema/voicereview-service/internal/utils/jwt"
	wsClient "github.com/savcinema/voicereview-service/internal/websocket"
)

const testSecret = "test-secret"

func setupHub(t *testing.T) (*wsClient.Hub, *httptest.Server) {
	t.Helper()
	hub := wsClient.NewHub()
	go hub.Run()

	server := httptest.NewServer(WebSocketHandler(hub, testSecret))
	t.Cleanup(server.Close)

	return hub, server
}

func dial(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func waitForClients(t *testing.T, hub *wsClient.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d connected clients, got %d", want, hub.GetClientCount())
}

func TestWebSocketHandler_RejectsBadTokens(t *testing.T) {
	_, server := setupHub(t)

	tests := []struct {
		name  string
		query string
	}{
		{"missing token", ""},
		{"garbage token", "?token=not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.query)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("Expected status 401, got %d", resp.StatusCode)
			}
		})
	}
}

func TestWebSocketHandler_BroadcastReachesAdmin(t *testing.T) {
	hub, server := setupHub(t)

	token, err := jwt.CreateToken("adm_1", testSecret)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}

	conn := dial(t, server, token)
	waitForClients(t, hub, 1)

	hub.BroadcastToAdmins(types.NewEvent(types.EventReviewSubmitted, &types.ReviewSubmittedEvent{
		ReviewID: "rev_1",
		MovieID:  "movie_1",
	}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var event struct {
		Type types.EventType `json:"type"`
		Data struct {
			ReviewID string `json:"review_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		t.Fatalf("Failed to decode event: %v", err)
	}
	if event.Type != types.EventReviewSubmitted || event.Data.ReviewID != "rev_1" {
		t.Fatalf("Unexpected event: %+v", event)
	}
}

func TestWebSocketHandler_ReplacesExistingSession(t *testing.T) {
	hub, server := setupHub(t)

	token, err := jwt.CreateToken("adm_1", testSecret)
	if err != nil {
		t.Fatalf("Failed to create token: %v", err)
	}

	dial(t, server, token)
	waitForClients(t, hub, 1)

	// A second session for the same admin replaces the first
	dial(t, server, token)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.GetClientCount() == 1 && hub.HasClients() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if hub.GetClientCount() != 1 {
		t.Fatalf("Expected one session per admin, got %d", hub.GetClientCount())
	}
}
