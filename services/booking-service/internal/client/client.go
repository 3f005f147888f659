// Package client is the HTTP implementation of the wizard collaborators against a running
// booking-service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/md-rashed-zaman/apptbook/services/booking-service/internal/model"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	defaultUserAgent     = "apptbook-client"
	maxErrorBody         = 64 << 10
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	UserAgent  string
}

// TransportError is a failure the customer cannot fix: the request never got an answer or
// the server failed. StatusCode is zero for network errors.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer that is neither a validation problem nor a server fault,
// such as 404 or 409.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

func hasStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("client: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", raw)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Client{base: base, http: hc, userAgent: ua}, nil
}

func (c *Client) Services(ctx context.Context) ([]model.Service, error) {
	var out []model.Service
	err := c.do(ctx, http.MethodGet, "/api/v1/services", nil, nil, nil, &out)
	return out, err
}

func (c *Client) StaffForService(ctx context.Context, serviceID string) ([]model.Staff, error) {
	var out []model.Staff
	err := c.do(ctx, http.MethodGet, "/api/v1/services/"+url.PathEscape(serviceID)+"/staff", nil, nil, nil, &out)
	return out, err
}

func (c *Client) SchedulesForStaff(ctx context.Context, staffID string) ([]model.ScheduleWindow, error) {
	var out []model.ScheduleWindow
	err := c.do(ctx, http.MethodGet, "/api/v1/staff/"+url.PathEscape(staffID)+"/schedules", nil, nil, nil, &out)
	return out, err
}

// SubmitAppointment posts the draft. A non-empty idempotencyKey is sent so a retried submit
// returns the first appointment.
func (c *Client) SubmitAppointment(ctx context.Context, req model.BookingRequest, idempotencyKey string) (model.Appointment, error) {
	var header http.Header
	if idempotencyKey != "" {
		header = http.Header{idempotencyKeyHeader: []string{idempotencyKey}}
	}
	var out model.Appointment
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments", nil, header, req, &out)
	return out, err
}

func (c *Client) CancelAppointment(ctx context.Context, id, reason string) (model.Appointment, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	var out model.Appointment
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments/"+url.PathEscape(id)+"/cancel", nil, nil, body, &out)
	return out, err
}

func (c *Client) CompleteAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var out model.Appointment
	err := c.do(ctx, http.MethodPost, "/api/v1/appointments/"+url.PathEscape(id)+"/complete", nil, nil, nil, &out)
	return out, err
}

type AppointmentFilter struct {
	StaffID       string
	CustomerEmail string
	Upcoming      bool
	Limit         int
}

func (c *Client) Appointments(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	q := url.Values{}
	if f.StaffID != "" {
		q.Set("staff_id", f.StaffID)
	}
	if f.CustomerEmail != "" {
		q.Set("customer_email", f.CustomerEmail)
	}
	if f.Upcoming {
		q.Set("upcoming", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", fmt.Sprint(f.Limit))
	}
	var out []model.Appointment
	err := c.do(ctx, http.MethodGet, "/api/v1/appointments", q, nil, nil, &out)
	return out, err
}

type Slot struct {
	StartTime  model.WallClock `json:"start_time"`
	EndTime    model.WallClock `json:"end_time"`
	ScheduleID string          `json:"schedule_id"`
	StartsAt   time.Time       `json:"starts_at"`
}

type SlotsResponse struct {
	Date      model.Date `json:"date"`
	StaffID   string     `json:"staff_id"`
	ServiceID string     `json:"service_id"`
	TimeZone  string     `json:"time_zone"`
	Slots     []Slot     `json:"slots"`
}

func (c *Client) Slots(ctx context.Context, staffID, serviceID string, date model.Date) (SlotsResponse, error) {
	q := url.Values{}
	q.Set("staff_id", staffID)
	q.Set("service_id", serviceID)
	q.Set("date", date.String())
	var out SlotsResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/slots", q, nil, nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, header http.Header, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	msg := errorMessage(resp.Body)
	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &model.ValidationError{Message: msg}
	case resp.StatusCode >= 500:
		return &TransportError{Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
	default:
		return &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
}

func errorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
