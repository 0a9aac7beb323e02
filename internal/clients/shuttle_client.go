// internal/clients/shuttle_client.go
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"campusshuttle/internal/catalog"
	"campusshuttle/internal/membership"
	"campusshuttle/internal/reservation"
)

// APIError is a non-2xx answer from the shuttle API.
type APIError struct {
	Status  int
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("shuttle api: %d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("shuttle api: unexpected status code: %d", e.Status)
}

type ShuttleClient struct {
	baseURL string
	http    *http.Client
}

// NewShuttleClient talks to the API mounted at baseURL. A nil client uses http.DefaultClient.
func NewShuttleClient(baseURL string, client *http.Client) *ShuttleClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &ShuttleClient{baseURL: baseURL, http: client}
}

func (c *ShuttleClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login registers studentID on first use and returns the canonical id.
func (c *ShuttleClient) Login(ctx context.Context, studentID, password string) (string, error) {
	var resp struct {
		StudentID string `json:"studentId"`
	}
	err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"username": studentID, "password": password}, &resp)
	return resp.StudentID, err
}

func (c *ShuttleClient) Routes(ctx context.Context) ([]catalog.Route, error) {
	var routes []catalog.Route
	err := c.do(ctx, http.MethodGet, "/api/routes", nil, &routes)
	return routes, err
}

// Search lists trips on date (YYYY-MM-DD) along route, optionally departing at or after after.
func (c *ShuttleClient) Search(ctx context.Context, date, route, after string) ([]catalog.TripView, error) {
	q := url.Values{"date": {date}, "route": {route}}
	if after != "" {
		q.Set("after", after)
	}
	var trips []catalog.TripView
	err := c.do(ctx, http.MethodGet, "/api/schedules?"+q.Encode(), nil, &trips)
	return trips, err
}

type SeatStatus struct {
	Number    string `json:"seat_number"`
	Available bool   `json:"available"`
}

func (c *ShuttleClient) SeatMap(ctx context.Context, tripID string) ([]SeatStatus, error) {
	var seats []SeatStatus
	err := c.do(ctx, http.MethodGet, "/api/schedules/"+url.PathEscape(tripID)+"/seats", nil, &seats)
	return seats, err
}

func (c *ShuttleClient) Book(ctx context.Context, studentID, tripID, seatNumber string) (*reservation.Reservation, error) {
	var res reservation.Reservation
	err := c.do(ctx, http.MethodPost, "/api/bookings", map[string]string{
		"studentId":  studentID,
		"scheduleId": tripID,
		"seatNumber": seatNumber,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel withdraws a booking and returns the resulting status.
func (c *ShuttleClient) Cancel(ctx context.Context, bookingID int64, studentID string) (reservation.Status, error) {
	var resp struct {
		Status reservation.Status `json:"status"`
	}
	path := "/api/bookings/" + strconv.FormatInt(bookingID, 10) + "?studentId=" + url.QueryEscape(studentID)
	err := c.do(ctx, http.MethodDelete, path, nil, &resp)
	return resp.Status, err
}

func (c *ShuttleClient) Bookings(ctx context.Context, studentID string) ([]reservation.BookingView, error) {
	var views []reservation.BookingView
	err := c.do(ctx, http.MethodGet, "/api/bookings/"+url.PathEscape(studentID), nil, &views)
	return views, err
}

func (c *ShuttleClient) Standing(ctx context.Context, studentID string) (*membership.Standing, error) {
	var standing membership.Standing
	if err := c.do(ctx, http.MethodGet, "/api/members/"+url.PathEscape(studentID), nil, &standing); err != nil {
		return nil, err
	}
	return &standing, nil
}
