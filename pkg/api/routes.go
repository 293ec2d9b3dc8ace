package api

import (
	"bytes"
	"encoding/json"
	"net/url"
)

const (
	pathLogin   = "/adminLogin/adminLogin"
	pathLogout  = "/adminLogout"
	pathProfile = "/admin/profile"

	pathServices       = "/services"
	pathPublicServices = "/public/services"

	pathBookings        = "/bookings"
	pathBookAppointment = "/public/book-appointment"

	pathOffers = "/offers"

	pathReviews      = "/reviews"
	pathReviewStats  = "/reviews/stats"
	pathSubmitReview = "/public/submit-review"

	pathUsers = "/users"

	pathDashboardStats = "/dashboard/stats"
	pathRecentBookings = "/dashboard/recent-bookings"
	pathRecentReviews  = "/dashboard/recent-reviews"
)

func itemPath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

func bookingStatusPath(id string) string {
	return itemPath(pathBookings, id) + "/status"
}

func reviewApprovePath(id string) string {
	return itemPath(pathReviews, id) + "/approve"
}

// decodeList accepts a bare array or an object holding the array under key.
func decodeList[T any](raw json.RawMessage, key string) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	inner, ok := env[key]
	if !ok {
		inner, ok = env["data"]
	}
	if !ok || string(inner) == "null" {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeItem accepts a bare object or one wrapped under key. Only an object
// under key counts as a wrapper: a review's own "review" field is text.
func decodeItem[T any](raw json.RawMessage, key string) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err == nil {
		if inner, ok := env[key]; ok && isObject(inner) {
			err := json.Unmarshal(inner, &out)
			return out, err
		}
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func listParams(p map[string]string) url.Values {
	if len(p) == 0 {
		return nil
	}
	q := url.Values{}
	for k, v := range p {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
