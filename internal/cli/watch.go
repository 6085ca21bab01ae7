package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		walletID    string
		displayName string
		skin        string
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Connect to the session stream and print live events",
		Long: `Connect to the server's WebSocket endpoint, join the session, and
print every event broadcast by other players.

Events include:
  - self_state: Your own state plus a snapshot of current players
  - peer_joined: Another player joined
  - peer_updated: Another player moved or changed profile
  - peer_left: Another player disconnected

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchEvents(walletID, displayName, skin, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&walletID, "wallet", "", "Join with a wallet id (omit to join as guest)")
	cmd.Flags().StringVar(&displayName, "name", "", "Display name to join with")
	cmd.Flags().StringVar(&skin, "skin", "", "Character skin to join with")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// watchEvent is an event line printed by the watch command
type watchEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func watchEvents(walletID, displayName, skin string, jsonOutput bool) error {
	url := client.WSURL()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	go func() {
		<-sigCh
		cancel()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	join := map[string]any{
		"type": "join",
		"data": map[string]any{
			"wallet_id":    walletID,
			"display_name": displayName,
			"skin":         skin,
		},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", url)
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		printWatchEvent(msg.Type, msg.Data, jsonOutput)
	}
}

func printWatchEvent(event string, data json.RawMessage, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := watchEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		displayData := string(data)
		if len(displayData) > 100 {
			displayData = displayData[:100] + "..."
		}
		displayData = strings.ReplaceAll(displayData, "\n", " ")
		fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
	}
}
