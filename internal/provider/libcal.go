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

// LibCalClient talks to the calendar-style reservation API.
type LibCalClient struct {
	hc    *http.Client
	base  string
	token string
	now   func() time.Time
}

func NewLibCalClient(baseURL, token string, timeout time.Duration) *LibCalClient {
	return &LibCalClient{
		hc:    &http.Client{Timeout: timeout},
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		now:   time.Now,
	}
}

func (c *LibCalClient) Kind() domain.ProviderKind { return domain.KindLibCal }

func (c *LibCalClient) ListBuildings(ctx context.Context) ([]domain.Building, error) {
	body, err := c.do(ctx, http.MethodGet, "/1.1/space/locations", nil)
	if err != nil {
		return nil, err
	}

	var locations []struct {
		Lid  json.Number `json:"lid"`
		Name string      `json:"name"`
	}
	if err := json.Unmarshal(body, &locations); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindLibCal, Message: "malformed locations response"}
	}

	buildings := make([]domain.Building, 0, len(locations))
	for _, loc := range locations {
		buildings = append(buildings, domain.Building{
			Lid:  loc.Lid.String(),
			Name: loc.Name,
			Kind: domain.KindLibCal,
		})
	}
	return buildings, nil
}

func (c *LibCalClient) ListAvailability(ctx context.Context, username, lid, date string) ([]domain.RoomAvailability, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/1.1/space/rooms/%s?date=%s", lid, date), nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Categories []struct {
			Cid   json.Number `json:"cid"`
			Rooms []struct {
				ID           json.Number `json:"id"`
				Name         string      `json:"name"`
				Availability []struct {
					From time.Time `json:"from"`
					To   time.Time `json:"to"`
				} `json:"availability"`
			} `json:"rooms"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindLibCal, Message: "malformed availability response"}
	}

	now := c.now()
	rooms := make([]domain.RoomAvailability, 0)
	for _, category := range resp.Categories {
		for _, room := range category.Rooms {
			ra := domain.RoomAvailability{
				RoomID:       room.ID.String(),
				Name:         room.Name,
				Availability: make([]domain.TimeSlot, 0, len(room.Availability)),
			}
			for _, slot := range room.Availability {
				if slot.From.After(now) {
					ra.Availability = append(ra.Availability, domain.TimeSlot{Start: slot.From, End: slot.To})
				}
			}
			rooms = append(rooms, ra)
		}
	}
	return rooms, nil
}

func (c *LibCalClient) Book(ctx context.Context, username string, req domain.BookingRequest) domain.BookingOutcome {
	payload := map[string]interface{}{
		"start":   req.Start.Format(time.RFC3339),
		"end":     req.End.Format(time.RFC3339),
		"room":    req.RoomID,
		"pennkey": username,
	}

	body, err := c.do(ctx, http.MethodPost, "/1.1/space/reserve", payload)
	if err != nil {
		return domain.Failed(err.Error())
	}

	var resp struct {
		BookingID string `json:"booking_id"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.Failed("malformed reserve response")
	}
	if resp.Error != "" {
		return domain.Failed(resp.Error)
	}
	if resp.BookingID == "" {
		return domain.Failed("reserve response missing booking id")
	}
	return domain.Confirmed(resp.BookingID)
}

func (c *LibCalClient) Cancel(ctx context.Context, username, bookingID string) error {
	body, err := c.do(ctx, http.MethodPost, "/1.1/space/cancel/"+bookingID, nil)
	if err != nil {
		return err
	}

	var results []struct {
		BookingID string `json:"booking_id"`
		Cancelled bool   `json:"cancelled"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(body, &results); err != nil || len(results) == 0 {
		return &domain.UpstreamError{Provider: domain.KindLibCal, Message: "malformed cancel response"}
	}
	if results[0].Error != "" {
		return &domain.UpstreamError{Provider: domain.KindLibCal, Message: results[0].Error}
	}
	return nil
}

func (c *LibCalClient) Reservations(ctx context.Context, username string, bookingIDs []string) ([]domain.ReservationDetail, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}

	body, err := c.do(ctx, http.MethodGet, "/1.1/space/booking/"+strings.Join(bookingIDs, ","), nil)
	if err != nil {
		return nil, err
	}

	var bookings []struct {
		BookingID string    `json:"booking_id"`
		RoomID    string    `json:"room_id"`
		RoomName  string    `json:"room_name"`
		FromDate  time.Time `json:"from_date"`
		ToDate    time.Time `json:"to_date"`
	}
	if err := json.Unmarshal(body, &bookings); err != nil {
		return nil, &domain.UpstreamError{Provider: domain.KindLibCal, Message: "malformed booking lookup response"}
	}

	details := make([]domain.ReservationDetail, 0, len(bookings))
	for _, b := range bookings {
		details = append(details, domain.ReservationDetail{
			BookingID: b.BookingID,
			Kind:      domain.KindLibCal,
			RoomID:    b.RoomID,
			RoomName:  b.RoomName,
			Start:     b.FromDate,
			End:       b.ToDate,
		})
	}
	return details, nil
}

func (c *LibCalClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
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
	req.Header.Set("Authorization", "Bearer "+c.token)
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
			Provider: domain.KindLibCal,
			Status:   resp.StatusCode,
			Message:  upstreamMessage(body, resp.StatusCode),
		}
	}
	return body, nil
}

// upstreamMessage extracts the provider's own error text when present so
// it can be passed through verbatim.
func upstreamMessage(body []byte, status int) string {
	var r struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &r); err == nil {
		for _, msg := range []string{r.Error, r.Message, r.Detail} {
			if msg != "" {
				return msg
			}
		}
	}
	return fmt.Sprintf("upstream %d", status)
}

var _ RoomProvider = (*LibCalClient)(nil)
