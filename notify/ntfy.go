package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"postprep/config"
)

const defaultServer = "https://ntfy.sh"

// NtfySender sends push notifications via ntfy.sh
type NtfySender struct {
	cfg config.NtfyConfig
}

// NtfyMessage represents a ntfy notification
type NtfyMessage struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority,omitempty"`
}

// NewNtfySender creates a new ntfy sender
func NewNtfySender(cfg config.NtfyConfig) *NtfySender {
	return &NtfySender{cfg: cfg}
}

// SendRunComplete notifies that the overlay run finished and which files
// were produced. A disabled sender is a silent no-op.
func (n *NtfySender) SendRunComplete(outputs []string) error {
	if !n.cfg.Enabled {
		return nil
	}
	if n.cfg.Topic == "" {
		return fmt.Errorf("ntfy topic is not configured")
	}

	server := n.cfg.Server
	if server == "" {
		server = defaultServer
	}

	msg := NtfyMessage{
		Topic:   n.cfg.Topic,
		Title:   "Overlay images ready",
		Message: fmt.Sprintf("Created %d file(s):\n%s", len(outputs), strings.Join(outputs, "\n")),
		Tags:    []string{"frame_with_picture"},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	resp, err := http.Post(server, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}
	return nil
}
