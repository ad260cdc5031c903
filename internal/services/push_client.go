package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"census-backend/internal/faults"
	"census-backend/internal/models"
)

// HTTPPusher delivers sync batches as a single JSON POST. Delivery
// counts only on an explicit 2xx acknowledgment from the endpoint;
// dispatch without a readable success response is a failure.
type HTTPPusher struct {
	client *http.Client
}

func NewHTTPPusher(timeout time.Duration) *HTTPPusher {
	return &HTTPPusher{
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPusher) Push(ctx context.Context, endpoint string, batch models.SyncBatch) error {
	if endpoint == "" {
		return faults.SyncErr("no collection endpoint configured", nil)
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return faults.SyncErr("failed to encode batch", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return faults.SyncErr("failed to build push request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return faults.SyncErr("push request failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return faults.SyncErr(fmt.Sprintf("endpoint rejected batch: %s", resp.Status), nil)
	}
	return nil
}
