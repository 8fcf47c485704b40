/**
 * Calendar sink client.
 *
 * Pushes finalized shift records to the external calendar service. The sink
 * is permission-gated: HTTP 403 means the user has not granted calendar
 * access and surfaces as ErrPermissionDenied. The worker performs no retries
 * here; retry policy belongs to the caller.
 */

package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shiftlens/schedule-worker/internal/extract"
)

// ErrPermissionDenied indicates the calendar collaborator rejected the push
// because the user has not granted access.
var ErrPermissionDenied = errors.New("calendar access not granted")

// Client talks to the calendar service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Event is one calendar entry derived from a ShiftCandidate. The worker does
// not depend on the shape the calendar service stores internally.
type Event struct {
	JobID      string    `json:"job_id"`
	PersonName string    `json:"person_name"`
	Date       string    `json:"date"` // YYYY-MM-DD of the shift's column
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	SourceText string    `json:"source_text"`
}

type pushRequest struct {
	Events []Event `json:"events"`
}

type pushResponse struct {
	Success bool   `json:"success"`
	Created int    `json:"created"`
	Error   string `json:"error,omitempty"`
}

// NewClient creates a calendar client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthCheck verifies the calendar service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calendar service health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("calendar service health check returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// PushEvents sends one calendar event per shift. Returns the number of
// events the service created.
func (c *Client) PushEvents(ctx context.Context, jobID, personName string, shifts []extract.ShiftCandidate) (int, error) {
	if len(shifts) == 0 {
		return 0, nil
	}

	events := make([]Event, 0, len(shifts))
	for _, s := range shifts {
		events = append(events, Event{
			JobID:      jobID,
			PersonName: personName,
			Date:       s.Date.Format("2006-01-02"),
			StartsAt:   s.Start,
			EndsAt:     s.End,
			SourceText: s.SourceText,
		})
	}

	payload, err := json.Marshal(pushRequest{Events: events})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal calendar events: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/events/batch", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create calendar request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calendar push failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return 0, ErrPermissionDenied
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("calendar push returned HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse calendar response: %w", err)
	}
	if !result.Success {
		return 0, fmt.Errorf("calendar push returned success=false: %s", result.Error)
	}

	return result.Created, nil
}
