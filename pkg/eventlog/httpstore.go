package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPStore is a DurableLog client for a remote replication server
// (cmd/drived). Connectivity failures surface as ordinary request
// errors; only a 409 maps to ErrConflict, so the replica can tell a
// benign duplicate from a broken peer.
type HTTPStore struct {
	base   string
	client *http.Client
}

// NewHTTPStore creates a client for the server at baseURL, e.g.
// "http://localhost:8080".
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Put uploads an event. A 409 from the server means the event is
// already there and maps to ErrConflict.
func (s *HTTPStore) Put(ctx context.Context, e *Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		s.base+"/api/events/"+url.PathEscape(e.ID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrConflict
	default:
		return fmt.Errorf("put event %s: %s", e.ID, resp.Status)
	}
}

// Get retrieves a single event by ID.
func (s *HTTPStore) Get(ctx context.Context, id string) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.base+"/api/events/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get event %s: %s", id, resp.Status)
	}
	var e Event
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// Since returns events with ID > afterID in ascending ID order.
func (s *HTTPStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	q := url.Values{}
	if afterID != "" {
		q.Set("after", afterID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := s.base + "/api/events"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list events: %s", resp.Status)
	}
	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// All pages through the full remote log.
func (s *HTTPStore) All(ctx context.Context) ([]Event, error) {
	var all []Event
	after := ""
	for {
		page, err := s.Since(ctx, after, 500)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		after = page[len(page)-1].ID
	}
}

// Count asks the server for its event count.
func (s *HTTPStore) Count(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/api/status", nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status: %s", resp.Status)
	}
	var status struct {
		Events int `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return 0, fmt.Errorf("decode status: %w", err)
	}
	return status.Events, nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
