package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/napryag/salon_bot/pkg/repository/model"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (Resources, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, opts...)
	return NewResources(c), srv
}

func TestClient_BearerOnlyWithToken(t *testing.T) {
	var gotAuth, gotReqID, gotType string
	h := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotType = r.Header.Get("Content-Type")
		_, _ = io.WriteString(w, `[]`)
	}

	res, _ := newTestClient(t, h, WithTokenSource(staticToken("secret")))
	if _, err := res.Services.List(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if gotReqID == "" {
		t.Fatalf("missing request id")
	}
	if gotType != "application/json" {
		t.Fatalf("content type = %q", gotType)
	}

	anon, _ := newTestClient(t, h, WithTokenSource(staticToken("")))
	if _, err := anon.Services.ListPublic(context.Background()); err != nil {
		t.Fatalf("list public: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("anonymous call sent %q", gotAuth)
	}
}

func TestClient_UnauthorizedRunsHandler(t *testing.T) {
	var calls int32
	res, _ := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		WithUnauthorizedHandler(func(context.Context) { atomic.AddInt32(&calls, 1) }),
	)

	_, err := res.Bookings.List(context.Background(), BookingListParams{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("handler calls = %d", calls)
	}
}

func TestClient_ErrorBody(t *testing.T) {
	res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"CUSTOMER_NOT_FOUND","message":"no bookings for this phone"}`)
	})

	_, err := res.Reviews.Submit(context.Background(), ReviewSubmission{Name: "A", PhoneNumber: "555", Rating: 5})
	if CodeOf(err) != CodeCustomerNotFound {
		t.Fatalf("code = %q (%v)", CodeOf(err), err)
	}
	if got := MessageOf(err, "fallback"); got != "no bookings for this phone" {
		t.Fatalf("message = %q", got)
	}
	if IsRetryable(err) {
		t.Fatalf("404 must not be retryable")
	}
}

func TestClient_ErrorWithoutBodyFallsBack(t *testing.T) {
	res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := res.Offers.List(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != 500 {
		t.Fatalf("err = %v", err)
	}
	if got := MessageOf(err, "Failed"); got != "Failed" {
		t.Fatalf("message = %q", got)
	}
	if !IsRetryable(err) {
		t.Fatalf("500 should be retryable")
	}
}

func TestClient_ListEnvelopeOrArray(t *testing.T) {
	bodies := map[string]string{
		"array":    `[{"_id":"1","serviceName":"Haircut","price":45}]`,
		"envelope": `{"success":true,"services":[{"_id":"1","serviceName":"Haircut","price":45}]}`,
		"data":     `{"data":[{"_id":"1","serviceName":"Haircut","price":45}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/public/services" {
					t.Errorf("path = %s", r.URL.Path)
				}
				_, _ = io.WriteString(w, body)
			})
			got, err := res.Services.ListPublic(context.Background())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != 1 || got[0].Name != "Haircut" || got[0].PriceOrZero() != 45 {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestClient_ReviewItemNotMistakenForEnvelope(t *testing.T) {
	res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"_id":"r1","name":"Ann","review":"Lovely","rating":5}`)
	})
	got, err := res.Reviews.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "r1" || got.Text != "Lovely" {
		t.Fatalf("got %+v", got)
	}
}

func TestClient_SubmitReviewMultipart(t *testing.T) {
	res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public/submit-review" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if r.FormValue("phoneNumber") != "555-1234" || r.FormValue("rating") != "4" {
			t.Errorf("fields %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("photo: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "me.jpg" || string(data) != "jpeg" {
			t.Errorf("photo %s %q", hdr.Filename, data)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"review":{"_id":"r1","name":"Ann","review":"Nice","rating":4}}`)
	})

	got, err := res.Reviews.Submit(context.Background(), ReviewSubmission{
		Name: "Ann", PhoneNumber: "555-1234", Review: "Nice", Rating: 4,
		Photo: &Photo{Filename: "me.jpg", Data: []byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.ID != "r1" || got.Rating != 4 {
		t.Fatalf("got %+v", got)
	}
}

func TestClient_RequestShapes(t *testing.T) {
	type seen struct {
		method, path, query string
		body                map[string]any
	}
	var last seen
	res, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		last = seen{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		last.body = nil
		_ = json.NewDecoder(r.Body).Decode(&last.body)
		_, _ = io.WriteString(w, `{}`)
	})
	ctx := context.Background()

	if _, err := res.Bookings.UpdateStatus(ctx, "b1", "done"); err != nil {
		t.Fatal(err)
	}
	if last.method != http.MethodPatch || last.path != "/bookings/b1/status" || last.body["status"] != "done" {
		t.Fatalf("update status: %+v", last)
	}

	if _, err := res.Reviews.Approve(ctx, "r9"); err != nil {
		t.Fatal(err)
	}
	if last.method != http.MethodPatch || last.path != "/reviews/r9/approve" {
		t.Fatalf("approve: %+v", last)
	}

	if _, err := res.Dashboard.RecentBookings(ctx, 5); err != nil {
		t.Fatal(err)
	}
	if last.path != "/dashboard/recent-bookings" || last.query != "limit=5" {
		t.Fatalf("recent: %+v", last)
	}

	if _, err := res.Auth.Login(ctx, "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	if last.path != "/adminLogin/adminLogin" || last.body["email"] != "a@b.c" {
		t.Fatalf("login: %+v", last)
	}

	off := model.Offer{ID: "o1", Name: "Summer", Status: model.OfferInactive}
	if _, err := res.Offers.Update(ctx, "o1", off); err != nil {
		t.Fatal(err)
	}
	if last.method != http.MethodPut || last.path != "/offers/o1" || last.body["status"] != "Inactive" {
		t.Fatalf("offer update: %+v", last)
	}
}

func TestClient_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	res := NewResources(New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}))

	_, err := res.Services.List(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) || !apiErr.Transport() {
		t.Fatalf("err = %v, want transport error", err)
	}
	if !IsRetryable(err) {
		t.Fatalf("timeout should be retryable")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Fatalf("err text = %q", err.Error())
	}
}
