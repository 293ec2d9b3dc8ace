package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

// BookingListParams filters the admin booking list. Empty fields are not sent.
type BookingListParams struct {
	Date   string `json:"date,omitempty"`
	Phone  string `json:"phoneNumber,omitempty"`
	Search string `json:"search,omitempty"`
}

type Bookings struct{ c *Client }

func (b Bookings) List(ctx context.Context, p BookingListParams) ([]model.Booking, error) {
	var raw json.RawMessage
	q := listParams(map[string]string{"date": p.Date, "phoneNumber": p.Phone, "search": p.Search})
	if err := b.c.get(ctx, pathBookings, q, &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Booking](raw, "bookings"))
}

func (b Bookings) Get(ctx context.Context, id string) (model.Booking, error) {
	return getItem[model.Booking](ctx, b.c, itemPath(pathBookings, id), "booking")
}

func (b Bookings) Create(ctx context.Context, in model.Booking) (model.Booking, error) {
	return sendItem[model.Booking](ctx, b.c, request{method: http.MethodPost, path: pathBookings, body: in}, "booking")
}

// BookAppointment is the public booking endpoint used by customers.
func (b Bookings) BookAppointment(ctx context.Context, in model.Booking) (model.Booking, error) {
	return sendItem[model.Booking](ctx, b.c, request{method: http.MethodPost, path: pathBookAppointment, body: in}, "booking")
}

func (b Bookings) Update(ctx context.Context, id string, in model.Booking) (model.Booking, error) {
	return sendItem[model.Booking](ctx, b.c, request{method: http.MethodPut, path: itemPath(pathBookings, id), body: in}, "booking")
}

func (b Bookings) Delete(ctx context.Context, id string) error {
	return b.c.delete(ctx, itemPath(pathBookings, id), nil)
}

func (b Bookings) UpdateStatus(ctx context.Context, id, status string) (model.Booking, error) {
	body := map[string]string{"status": status}
	return sendItem[model.Booking](ctx, b.c, request{method: http.MethodPatch, path: bookingStatusPath(id), body: body}, "booking")
}
