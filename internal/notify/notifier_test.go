package notify

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quotewire/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type countingNotifier struct {
	sources   int
	providers int
	cycles    int
	quotes    int
}

func (c *countingNotifier) SourceDisabled(models.Source)               { c.sources++ }
func (c *countingNotifier) ProviderDisabled(models.HistoricalProvider) { c.providers++ }
func (c *countingNotifier) CycleCompleted(models.CycleSummary)         { c.cycles++ }
func (c *countingNotifier) QuotesPublished([]models.Quote)             { c.quotes++ }

func TestMultiFansOut(t *testing.T) {
	a := &countingNotifier{}
	b := &countingNotifier{}
	m := Multi{a, b}

	m.SourceDisabled(models.Source{})
	m.ProviderDisabled(models.HistoricalProvider{})
	m.CycleCompleted(models.CycleSummary{})
	m.QuotesPublished([]models.Quote{{Text: "x"}})

	for _, c := range []*countingNotifier{a, b} {
		if c.sources != 1 || c.providers != 1 || c.cycles != 1 || c.quotes != 1 {
			t.Errorf("Expected every event delivered once, got %+v", c)
		}
	}
}

func TestHubBroadcastsToSubscribers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	upgrader := websocket.Upgrader{}

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	// Registration on the server side races the dial returning.
	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.SubscriberCount() != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", hub.SubscriberCount())
	}

	hub.CycleCompleted(models.CycleSummary{QuotesExtracted: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}
	if event.Type != "cycle" {
		t.Errorf("Expected cycle event, got %q", event.Type)
	}

	// Empty quote batches are not broadcast.
	hub.QuotesPublished(nil)
	hub.QuotesPublished([]models.Quote{{Text: "said"}})

	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read quotes broadcast: %v", err)
	}
	if event.Type != "quotes" {
		t.Errorf("Expected quotes event immediately after cycle, got %q", event.Type)
	}
}

func TestHubDropsDeadConnections(t *testing.T) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	upgrader := websocket.Upgrader{}

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for hub.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()

	// Writes to the closed connection eventually fail and evict it. The
	// first write may still succeed against OS buffers, so push twice.
	deadline = time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() > 0 && time.Now().Before(deadline) {
		hub.CycleCompleted(models.CycleSummary{})
		time.Sleep(20 * time.Millisecond)
	}
	if got := hub.SubscriberCount(); got != 0 {
		t.Errorf("Expected dead subscriber evicted, got %d", got)
	}
}
