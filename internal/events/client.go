// Package events is a thin client over the backend's event, registration,
// and help-desk endpoints. Business rules live entirely on the backend;
// this client only invokes them with the shared session cookie attached.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Event mirrors the backend's event record.
type Event struct {
	EventID       string    `json:"event_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EventType     string    `json:"event_type"`
	TeamSize      int       `json:"team_size,omitempty"`
	EventDate     time.Time `json:"event_date"`
	Deadline      time.Time `json:"deadline"`
	Status        string    `json:"status"`
	Category      string    `json:"category"`
	Venue         string    `json:"venue"`
	Rules         string    `json:"rules,omitempty"`
	OrganizerInfo string    `json:"organizer_info,omitempty"`
	IsPaid        bool      `json:"is_paid"`
}

// TeamMember is one member of a team registration.
type TeamMember struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	College string `json:"college"`
}

// RegistrationRequest creates a single or team registration.
type RegistrationRequest struct {
	EventID     string       `json:"event_id"`
	TeamName    string       `json:"team_name,omitempty"`
	TeamMembers []TeamMember `json:"team_members,omitempty"`
}

// Registration mirrors the backend's registration record.
type Registration struct {
	RegistrationID  string       `json:"registration_id"`
	EventID         string       `json:"event_id"`
	UserID          string       `json:"user_id"`
	TeamName        string       `json:"team_name,omitempty"`
	TeamMembers     []TeamMember `json:"team_members,omitempty"`
	PaymentStatus   string       `json:"payment_status"`
	Status          string       `json:"status"`
	CertificateType string       `json:"certificate_type,omitempty"`
}

// TicketRequest opens a help-desk ticket.
type TicketRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Ticket mirrors the backend's help-desk ticket record.
type Ticket struct {
	TicketID string `json:"ticket_id"`
	UserID   string `json:"user_id"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Status   string `json:"status"`
}

// Client invokes the backend API. It shares the gateway's cookie-carrying
// HTTP client so every call is authenticated by the backend session cookie.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds an events client over an existing HTTP client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("events: base URL is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("events: HTTP client is required")
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient, logger: logger}, nil
}

// List fetches events, optionally filtered by category.
func (c *Client) List(ctx context.Context, category string) ([]Event, error) {
	endpoint := "/api/events"
	if category != "" {
		endpoint += "?category=" + url.QueryEscape(category)
	}
	var out []Event
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one event by id.
func (c *Client) Get(ctx context.Context, eventID string) (Event, error) {
	var out Event
	if err := c.get(ctx, "/api/events/"+url.PathEscape(eventID), &out); err != nil {
		return Event{}, err
	}
	return out, nil
}

// Register creates a registration for the current user.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (Registration, error) {
	var out Registration
	if err := c.post(ctx, "/api/registrations", req, &out); err != nil {
		return Registration{}, err
	}
	return out, nil
}

// MyRegistrations lists the current user's registrations.
func (c *Client) MyRegistrations(ctx context.Context) ([]Registration, error) {
	var out []Registration
	if err := c.get(ctx, "/api/registrations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OpenTicket files a help-desk ticket for the current user.
func (c *Client) OpenTicket(ctx context.Context, req TicketRequest) (Ticket, error) {
	var out Ticket
	if err := c.post(ctx, "/api/tickets", req, &out); err != nil {
		return Ticket{}, err
	}
	return out, nil
}

// MyTickets lists the current user's help-desk tickets.
func (c *Client) MyTickets(ctx context.Context) ([]Ticket, error) {
	var out []Ticket
	if err := c.get(ctx, "/api/tickets", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, dst any) error {
	return c.roundTrip(ctx, http.MethodGet, endpoint, nil, dst)
}

func (c *Client) post(ctx context.Context, endpoint string, body, dst any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("events: encode request: %w", err)
	}
	return c.roundTrip(ctx, http.MethodPost, endpoint, bytes.NewReader(data), dst)
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body io.Reader, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("events: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("events: %s %s: %w", method, endpoint, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("events: read response: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("events: decode %s response: %w", endpoint, err)
	}
	return nil
}

// APIError is a non-2xx response from the backend API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("events: backend returned %d: %s", e.StatusCode, e.Detail)
}

func readDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(raw) == 0 {
		return resp.Status
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return resp.Status
}
