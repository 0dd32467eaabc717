package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pennmobile/gsr-booking/internal/domain"
)

// WhartonClient talks to the university-specific reservation API. Its
// routes are keyed by the acting user's pennkey rather than a session.
type WhartonClient struct {
	hc    *http.Client
	base  string
	token string
	now   func() time.Time
}

func NewWhartonClient(baseURL, token string, timeout time.Duration) *WhartonClient {
	return &WhartonClient{
		hc:    &http.Client{Timeout: timeout},
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		now:   time.Now,
	}
}

func (c *WhartonClient) Kind() domain.ProviderKind { return domain.KindWharton }

// ListBuildings strips the provider-internal id and building_code fields,
// remapping id to lid so both providers share one building shape.
func (c *WhartonClient) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	body, err := c.do(ctx, http.MethodGet, "/locations", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Locations []struct {
			ID           json.Number `json:"id"`
			Name         string      `json:"name"`
			BuildingCode string      `json:"building_code"`
		} `json:"locations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindWharton, Message: "malformed locations response"}
	}

	buildings := make([]domain.Building, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		buildings = append(buildings, domain.Building{
			Lid:  loc.ID.String(),
			Name: loc.Name,
			Kind: domain.KindWharton,
		})
	}
	return buildings, nil
}

func (c *WhartonClient) ListAvailability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error) {
	path := fmt.Sprintf("/%s/availability/%s/%s", username, lid, date)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var rooms []struct {
		ID           json.Number `json:"id"`
		Name         string      `json:"name"`
		Availability []struct {
			StartTime time.Time `json:"start_time"`
			EndTime   time.Time `json:"end_time"`
		} `json:"availability"`
	}
	if err := json.Unmarshal(body, &rooms); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindWharton, Message: "malformed availability response"}
	}

	now := c.now()
	out := make([]domain.RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		ra := domain.RoomAvailability{
			RoomID:       room.ID.String(),
			Name:         room.Name,
			Availability: make([]domain.TimeSlot, 0, len(room.Availability)),
		}
		for _, slot := range room.Availability {
			if slot.StartTime.After(now) {
				ra.Availability = append(ra.Availability, domain.TimeSlot{Start: slot.StartTime, End: slot.EndTime})
			}
		}
		out = append(out, ra)
	}
	return out, nil
}

func (c *WhartonClient) Book(ctx context.Context, username string, req domain.BookingRequest) domain.BookingOutcome {
	payload := map[string]interface{}{
		"start":   req.Start.Format(time.RFC3339),
		"end":     req.End.Format(time.RFC3339),
		"pennkey": username,
		"room":    req.RoomID,
	}

	body, err := c.do(ctx, http.MethodPost, "/"+username+"/student_reserve", payload)
	if err != nil {
		return domain.Failed(err.Error())
	}

	var resp struct {
		BookingID json.Number `json:"booking_id"`
		Error     string      `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Failed("malformed student_reserve response")
	}
	if resp.Error != "" {
		return domain.Failed(resp.Error)
	}
	if resp.BookingID.String() == "" {
		return domain.Failed("student_reserve response missing booking id")
	}
	return domain.Confirmed(resp.BookingID.String())
}

func (c *WhartonClient) Cancel(ctx context.Context, username, bookingID string) error {
	path := fmt.Sprintf("/%s/reservations/%s/cancel", username, bookingID)
	body, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}

	var resp struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &domain.UpstreamError{Provider: domain.KindWharton, Message: "malformed cancel response"}
	}
	if resp.Error != "" {
		return &domain.UpstreamError{Provider: domain.KindWharton, Message: resp.Error}
	}
	return nil
}

// Reservations fetches the user's full upstream reservation list and
// filters it to the requested booking ids; the Wharton API has no
// lookup-by-id route.
func (c *WhartonClient) Reservations(ctx context.Context, username string, bookingIDs []string) ([]domain.ReservationDetail, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}

	body, err := c.do(ctx, http.MethodGet, "/"+username+"/reservations", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Bookings []struct {
			BookingID json.Number `json:"booking_id"`
			RoomID    json.Number `json:"room_id"`
			RoomName  string      `json:"room_name"`
			Start     time.Time   `json:"start"`
			End       time.Time   `json:"end"`
		} `json:"bookings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindWharton, Message: "malformed reservations response"}
	}

	wanted := make(map[string]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		wanted[id] = true
	}

	details := make([]domain.ReservationDetail, 0, len(bookingIDs))
	for _, b := range resp.Bookings {
		if !wanted[b.BookingID.String()] {
			continue
		}
		details = append(details, domain.ReservationDetail{
			BookingID: b.BookingID.String(),
			Kind:      domain.KindWharton,
			RoomID:    b.RoomID.String(),
			RoomName:  b.RoomName,
			Start:     b.Start,
			End:       b.End,
		})
	}
	return details, nil
}

func (c *WhartonClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &domain.UpstreamError{
			Provider: domain.KindWharton,
			Status:   resp.StatusCode,
			Message:  upstreamMessage(body, resp.StatusCode),
		}
	}
	return body, nil
}

var _ RoomProvider = (*WhartonClient)(nil)
