package openf1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"scuderia-bot/pkg/logger"
)

// DriverRecord is one flat driver entry as returned by the OpenF1 API.
// Only the fields the roster builder needs are decoded.
type DriverRecord struct {
	TeamName  string `json:"team_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type meeting struct {
	MeetingKey int `json:"meeting_key"`
}

// Client fetches driver data from the OpenF1 API. It resolves the
// current meeting first, then lists that meeting's drivers.
type Client struct {
	baseURL    string
	year       string
	country    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new OpenF1 client
func NewClient(baseURL, year, country string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		year:       year,
		country:    country,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// FetchDrivers returns the flat driver list for the current meeting.
// Any non-success status, transport error, or empty payload is an
// error; the caller decides whether to keep a previously loaded roster.
func (c *Client) FetchDrivers(ctx context.Context) ([]DriverRecord, error) {
	meetingKey, err := c.fetchLatestMeetingKey(ctx)
	if err != nil {
		return nil, err
	}

	driversURL := fmt.Sprintf("%s/v1/drivers?meeting_key=%d", c.baseURL, meetingKey)

	var drivers []DriverRecord
	if err := c.getJSON(ctx, driversURL, &drivers); err != nil {
		return nil, fmt.Errorf("failed to fetch drivers: %w", err)
	}
	if len(drivers) == 0 {
		return nil, fmt.Errorf("no driver data found for meeting %d", meetingKey)
	}

	c.logger.WithFields(map[string]interface{}{
		"meeting_key":  meetingKey,
		"driver_count": len(drivers),
	}).Info("Fetched drivers from OpenF1")

	return drivers, nil
}

// fetchLatestMeetingKey resolves the meeting key for the configured
// year and country filters. OpenF1 returns meetings oldest-first for a
// filtered query with a single hit; the first entry is used.
func (c *Client) fetchLatestMeetingKey(ctx context.Context) (int, error) {
	meetingsURL := fmt.Sprintf("%s/v1/meetings?year=%s&country_name=%s",
		c.baseURL, url.QueryEscape(c.year), url.QueryEscape(c.country))

	var meetings []meeting
	if err := c.getJSON(ctx, meetingsURL, &meetings); err != nil {
		return 0, fmt.Errorf("failed to fetch meetings: %w", err)
	}
	if len(meetings) == 0 {
		return 0, fmt.Errorf("no meetings found for year=%s country=%s", c.year, c.country)
	}

	return meetings[0].MeetingKey, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
