package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postprep/config"
)

func TestSendRunCompleteDisabled(t *testing.T) {
	sender := NewNtfySender(config.NtfyConfig{Enabled: false})
	if err := sender.SendRunComplete([]string{"/out/a.png"}); err != nil {
		t.Errorf("Disabled sender should be a no-op, got %v", err)
	}
}

func TestSendRunCompleteMissingTopic(t *testing.T) {
	sender := NewNtfySender(config.NtfyConfig{Enabled: true})
	if err := sender.SendRunComplete(nil); err == nil {
		t.Error("Sender without topic should fail")
	}
}

func TestSendRunComplete(t *testing.T) {
	var received NtfyMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("Failed to read request body: %v", err)
		}
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("Failed to parse notification: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewNtfySender(config.NtfyConfig{
		Enabled: true,
		Server:  server.URL,
		Topic:   "overlay-runs",
	})

	outputs := []string{"/out/cover_text.png", "/out/cover_blurred.png"}
	if err := sender.SendRunComplete(outputs); err != nil {
		t.Fatalf("SendRunComplete failed: %v", err)
	}

	if received.Topic != "overlay-runs" {
		t.Errorf("Topic = %s", received.Topic)
	}
	if !strings.Contains(received.Message, "cover_blurred.png") {
		t.Errorf("Message does not list outputs: %s", received.Message)
	}
}

func TestSendRunCompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	sender := NewNtfySender(config.NtfyConfig{
		Enabled: true,
		Server:  server.URL,
		Topic:   "overlay-runs",
	})
	if err := sender.SendRunComplete(nil); err == nil {
		t.Error("Non-200 response should be an error")
	}
}
