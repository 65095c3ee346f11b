package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream notifications from the daemon",
		Long: `Connect to the daemon's SSE endpoint and stream notifications in real-time.

The stream opens with the current snapshot. Events include:
  - achievement-primed / achievement-unprimed: Challenge indicator changes
  - achievement-triggered: Unlock detected locally
  - achievement-confirmed: Unlock accepted by the server
  - set-mastered: Every achievement of the game unlocked
  - leaderboard-started / leaderboard-canceled: Attempt tracker changes
  - leaderboard-submitted: Entry accepted, with rank
  - snapshot-changed: Session state changed
  - account-changed: Login state changed

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(jsonOutput bool) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	// Create request
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	req = req.WithContext(ctx)

	// Make request
	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", cfg.ServerURL)
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				data := strings.Join(dataLines, "\n")
				printEvent(currentEvent, data, jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
	} else {
		timestamp := now.Format("2006-01-02 15:04:05")
		// Truncate data if it's too long for display
		displayData := data
		if len(displayData) > 100 {
			displayData = displayData[:100] + "..."
		}
		// Remove newlines for cleaner display
		displayData = strings.ReplaceAll(displayData, "\n", " ")
		fmt.Printf("[%s] %s: %s\n", timestamp, event, displayData)
	}
}
