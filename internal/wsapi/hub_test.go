package wsapi

import (
	"testing"
	"time"

	"arbitrage/internal/models"
)

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

func TestOriginCheckerAllowsConfiguredAndLocalhost(t *testing.T) {
	checker := newOriginChecker([]string{"https://dashboard.example.com"})

	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"https://dashboard.example.com", true},
		{"http://evil.example.com", false},
	}
	for _, tc := range cases {
		if got := checker.check(tc.origin); got != tc.want {
			t.Errorf("check(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}

func TestHubBroadcastDeliversToRegisteredClient(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast(&models.Notification{ID: 1, Type: models.NotificationTypeDeal, Message: "found"})

	select {
	case msg := <-client.send:
		if len(msg) == 0 {
			t.Error("expected non-empty message")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHubDropsSlowClientInsteadOfBlocking(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte)} // unbuffered, always full once one is queued
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastStats(&models.ScannerStats{DealsExecuted: 1})
	hub.BroadcastStats(&models.ScannerStats{DealsExecuted: 2})
	time.Sleep(50 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client to be dropped, ClientCount() = %d", hub.ClientCount())
	}
}
