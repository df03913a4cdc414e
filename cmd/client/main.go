package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	consts "video-processor/pkg/constants"
)

type enqueueRequest struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Preset     string    `json:"preset"`
	Crop       *cropRect `json:"crop,omitempty"`
}

type cropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type enqueueResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type statusResponse struct {
	ID       string  `json:"id"`
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
}

type apiClient struct {
	server string
	token  string
	http   *http.Client
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.server, "/")+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

func main() {
	server := flag.String("server", "http://localhost:3000/api", "Server base URL")
	collection := flag.String("collection", consts.DefaultCollection, "Collection slug")
	docID := flag.String("id", "", "Document ID")
	preset := flag.String("preset", "", "Preset name")
	crop := flag.String("crop", "", "Normalized crop as x,y,width,height")
	token := flag.String("token", os.Getenv("API_TOKEN"), "Bearer token")
	interval := flag.Duration("interval", time.Second, "Status poll interval")
	flag.Parse()

	if strings.TrimSpace(*docID) == "" || strings.TrimSpace(*preset) == "" {
		log.Fatal("-id and -preset are required")
	}

	req := enqueueRequest{Collection: *collection, ID: *docID, Preset: *preset}
	if *crop != "" {
		rect, err := parseCrop(*crop)
		if err != nil {
			log.Fatalf("invalid -crop: %v", err)
		}
		req.Crop = rect
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &apiClient{server: *server, token: *token, http: &http.Client{Timeout: 30 * time.Second}}

	var queued enqueueResponse
	if err := client.do(ctx, http.MethodPost, "/video-queue/enqueue", req, &queued); err != nil {
		log.Fatalf("enqueue failed: %v", err)
	}
	fmt.Printf("Job %s %s (%s/%s, preset %s)\n", queued.ID, queued.State, *collection, *docID, *preset)
	fmt.Println("Ctrl+C stops polling; the job keeps running on the worker.")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nPolling stopped")
			return
		case <-ticker.C:
			var status statusResponse
			if err := client.do(ctx, http.MethodGet, "/video-queue/status/"+queued.ID, nil, &status); err != nil {
				if ctx.Err() != nil {
					continue
				}
				// Completed jobs expire from the queue after their TTL.
				log.Printf("\nstatus failed: %v", err)
				os.Exit(1)
			}
			fmt.Printf("\rProgress: %5.1f%% [%s]   ", status.Progress, status.State)
			switch status.State {
			case consts.JobStateCompleted:
				fmt.Println("\nTranscode finished")
				return
			case consts.JobStateFailed:
				fmt.Println("\nTranscode failed")
				os.Exit(1)
			}
		}
	}
}

func parseCrop(value string) (*cropRect, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("want 4 comma separated values, got %d", len(parts))
	}
	var nums [4]float64
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &nums[i]); err != nil {
			return nil, fmt.Errorf("value %q: %w", p, err)
		}
	}
	return &cropRect{X: nums[0], Y: nums[1], Width: nums[2], Height: nums[3]}, nil
}
