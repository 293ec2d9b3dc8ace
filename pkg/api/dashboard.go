package api

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

const DefaultRecentLimit = 10

type Dashboard struct{ c *Client }

func (d Dashboard) Stats(ctx context.Context) (model.DashboardStats, error) {
	return getItem[model.DashboardStats](ctx, d.c, pathDashboardStats, "stats")
}

func (d Dashboard) RecentBookings(ctx context.Context, limit int) ([]model.Booking, error) {
	var raw json.RawMessage
	if err := d.c.get(ctx, pathRecentBookings, limitQuery(limit), &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Booking](raw, "bookings"))
}

func (d Dashboard) RecentReviews(ctx context.Context, limit int) ([]model.Review, error) {
	var raw json.RawMessage
	if err := d.c.get(ctx, pathRecentReviews, limitQuery(limit), &raw); err != nil {
		return nil, err
	}
	return wrapDecode(decodeList[model.Review](raw, "reviews"))
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return url.Values{"limit": []string{strconv.Itoa(limit)}}
}
