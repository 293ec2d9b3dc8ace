package receiver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/workspace"
	"github.com/napryag/salon_bot/pkg/repository/model"
	"github.com/napryag/salon_bot/pkg/repository/storage"
	"github.com/rs/zerolog"
)

const chatID int64 = 42

type fakeBot struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.texts = append(f.texts, m.Text)
	case tgbotapi.EditMessageTextConfig:
		f.texts = append(f.texts, m.Text)
	}
	return tgbotapi.Message{MessageID: len(f.texts), Chat: &tgbotapi.Chat{ID: chatID}}, nil
}

func (f *fakeBot) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

type fakeNotifier struct {
	mu       sync.Mutex
	bookings []model.Booking
	reviews  []model.Review
}

func (f *fakeNotifier) NotifyBooking(_ context.Context, b model.Booking) error {
	f.mu.Lock()
	f.bookings = append(f.bookings, b)
	f.mu.Unlock()
	return nil
}

func (f *fakeNotifier) NotifyReview(_ context.Context, r model.Review) error {
	f.mu.Lock()
	f.reviews = append(f.reviews, r)
	f.mu.Unlock()
	return nil
}

type harness struct {
	h        *Handler
	bot      *fakeBot
	notifier *fakeNotifier
	store    storage.Storage
}

func newHarness(t *testing.T, backend http.HandlerFunc) *harness {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	st := storage.NewMemory()
	client := api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	bot := &fakeBot{}
	notifier := &fakeNotifier{}
	h := NewHandler(Deps{
		Bot:      bot,
		Registry: workspace.NewRegistry(st, client, zerolog.Nop()),
		Notifier: notifier,
		Logger:   zerolog.Nop(),
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 9, 15, 12, 0, 0, 0, time.UTC) },
		PageSize: 5,
	})
	return &harness{h: h, bot: bot, notifier: notifier, store: st}
}

func (hs *harness) command(text string) {
	cmd := strings.Fields(text)[0]
	hs.h.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID, FirstName: "Ann"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}})
}

func (hs *harness) text(text string) {
	hs.h.HandleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 2,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}})
}

func (hs *harness) tap(data string) {
	hs.h.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 10, Chat: &tgbotapi.Chat{ID: chatID}},
	}})
}

func catalogue(w http.ResponseWriter, r *http.Request) bool {
	if r.URL.Path != "/public/services" {
		return false
	}
	_, _ = io.WriteString(w, `[
		{"_id":"s1","serviceName":"Haircut","price":45,"category":"men"},
		{"_id":"s2","serviceName":"Facial","price":120,"category":"women"},
		{"_id":"s3","serviceName":"Manicure","price":25,"category":"women"}
	]`)
	return true
}

func TestHandler_StartShowsMenu(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	hs.command("/start")

	got := hs.bot.last()
	if !strings.Contains(got, "Hello Ann") || !strings.Contains(got, "Bria Beauty Salon") {
		t.Fatalf("screen = %q", got)
	}
	if hs.h.Session(chatID).State != StateMain {
		t.Fatalf("state = %v", hs.h.Session(chatID).State)
	}
}

func TestHandler_DuplicateAddShowsNotice(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if !catalogue(w, r) {
			w.WriteHeader(http.StatusNotFound)
		}
	})
	hs.command("/start")
	hs.tap(CbServices)
	if got := hs.bot.last(); !strings.Contains(got, "Haircut") || !strings.Contains(got, "$45") {
		t.Fatalf("services = %q", got)
	}

	hs.tap(PCat + "women")
	if got := hs.bot.last(); strings.Contains(got, "Haircut") || !strings.Contains(got, "Facial") {
		t.Fatalf("filtered = %q", got)
	}

	hs.tap(PAdd + "s2")
	if got := hs.bot.last(); !strings.Contains(got, "Facial added") {
		t.Fatalf("after add = %q", got)
	}
	hs.tap(PAdd + "s2")
	if got := hs.bot.last(); !strings.Contains(got, "This service is already in your cart!") {
		t.Fatalf("after duplicate = %q", got)
	}

	hs.tap(CbCart)
	if got := hs.bot.last(); !strings.Contains(got, "Total: $120") {
		t.Fatalf("cart = %q", got)
	}
}

func TestHandler_BookingFlow(t *testing.T) {
	var mu sync.Mutex
	var posted model.Booking
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if catalogue(w, r) {
			return
		}
		if r.URL.Path == "/public/book-appointment" && r.Method == http.MethodPost {
			mu.Lock()
			_ = json.NewDecoder(r.Body).Decode(&posted)
			out := posted
			mu.Unlock()
			out.ID = "b1"
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "booking": out})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	hs.command("/start")
	hs.tap(CbServices)
	hs.tap(PAdd + "s1")
	hs.tap(PAdd + "s3")
	hs.tap(CbBook)
	hs.text("Ann")
	hs.text("not a phone")
	if got := hs.bot.last(); !strings.Contains(got, "valid phone") {
		t.Fatalf("bad phone screen = %q", got)
	}
	hs.text("+1 555 123 4567")
	if got := hs.bot.last(); !strings.Contains(got, "Pick a <b>date</b>") {
		t.Fatalf("date screen = %q", got)
	}
	hs.tap(PD + "16-09-2024")
	hs.tap(PT + "10:30 AM")
	if got := hs.bot.last(); !strings.Contains(got, "Total: $70") {
		t.Fatalf("summary = %q", got)
	}
	hs.tap(CbOk)

	if got := hs.bot.last(); !strings.Contains(got, "Booking Confirmed!") {
		t.Fatalf("confirmation = %q", got)
	}
	mu.Lock()
	if len(posted.Services) != 2 || posted.Date != "16-09-2024" || posted.Time != "10:30 AM" ||
		posted.PhoneNumber != "+1 555 123 4567" || !strings.HasPrefix(posted.ConfirmationCode, "BR") {
		t.Fatalf("posted = %+v", posted)
	}
	mu.Unlock()

	ws := hs.h.registry.Get(context.Background(), chatID)
	if ws.Cart.Count() != 0 {
		t.Fatalf("cart not cleared: %d", ws.Cart.Count())
	}
	hs.h.Wait()
	if len(hs.notifier.bookings) != 1 || hs.notifier.bookings[0].ID != "b1" {
		t.Fatalf("notified = %+v", hs.notifier.bookings)
	}
}

func TestHandler_BookingFailureKeepsForm(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if catalogue(w, r) {
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	hs.command("/start")
	hs.tap(CbServices)
	hs.tap(PAdd + "s1")
	hs.tap(CbBook)
	hs.text("Ann")
	hs.text("5551234567")
	hs.tap(PD + "16-09-2024")
	hs.tap(PT + "9:00 AM")
	hs.tap(CbOk)

	if got := hs.bot.last(); !strings.Contains(got, "Failed to book appointment. Please try again.") {
		t.Fatalf("screen = %q", got)
	}
	sess := hs.h.Session(chatID)
	if sess.State != StateBookConfirm || sess.Booking.Name != "Ann" {
		t.Fatalf("form lost: %+v", sess)
	}
	if hs.h.registry.Get(context.Background(), chatID).Cart.Count() != 1 {
		t.Fatal("cart cleared on failure")
	}
}

func reviewBackend(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/public/submit-review" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func submitReview(hs *harness) {
	hs.command("/start")
	hs.tap(CbReview)
	hs.text("Ann")
	hs.text("5551234567")
	hs.tap(PRate + "5")
	hs.text("Great haircut")
	hs.tap(CbSkip)
	hs.tap(CbOk)
}

func TestHandler_ReviewOutcomes(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"not a customer", 404, `{"code":"CUSTOMER_NOT_FOUND","message":"Customer not found"}`, msgBookFirst},
		{"already reviewed", 409, `{"code":"REVIEW_EXISTS","message":"exists"}`, msgReviewExists},
		{"server message", 400, `{"message":"Rating is required"}`, "Rating is required"},
		{"no message", 500, ``, msgReviewFailed},
		{"accepted", 201, `{"success":true,"review":{"_id":"r1","name":"Ann","review":"Great haircut","rating":5}}`, msgReviewSuccess},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hs := newHarness(t, reviewBackend(tc.status, tc.body))
			submitReview(hs)
			if got := hs.bot.last(); !strings.Contains(got, tc.want) {
				t.Fatalf("screen = %q, want %q", got, tc.want)
			}
			hs.h.Wait()
			if tc.status == 201 && len(hs.notifier.reviews) != 1 {
				t.Fatalf("review not announced")
			}
		})
	}
}

func TestHandler_ReviewTooLong(t *testing.T) {
	hs := newHarness(t, reviewBackend(201, `{}`))
	hs.command("/start")
	hs.tap(CbReview)
	hs.text("Ann")
	hs.text("5551234567")
	hs.tap(PRate + "3")
	hs.text(strings.Repeat("a", MaxReviewLen+1))
	if sess := hs.h.Session(chatID); sess.State != StateReviewText {
		t.Fatalf("state = %v", sess.State)
	}
}

func TestHandler_UnauthorizedRedirectsToLogin(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true,"token":"jwt"}`)
		case "/bookings":
			if r.Header.Get("Authorization") != "Bearer jwt" {
				t.Errorf("auth = %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	if got := hs.bot.last(); !strings.Contains(got, "Logged in as admin@salon.com") {
		t.Fatalf("after login = %q", got)
	}
	hs.command("/bookings today")

	if got := hs.bot.last(); !strings.Contains(got, "Admin login") || !strings.Contains(got, "session has expired") {
		t.Fatalf("screen = %q", got)
	}
	if hs.h.Session(chatID).State != StateLogin {
		t.Fatalf("state = %v", hs.h.Session(chatID).State)
	}
	ws := hs.h.registry.Get(context.Background(), chatID)
	if ws.Session.Authenticated() {
		t.Fatal("session survived 401")
	}
	if _, ok, _ := hs.store.Get(context.Background(), "chat:42:"+storage.KeyAuthToken); ok {
		t.Fatal("token survived 401")
	}
}

func TestHandler_AdminCommandNeedsLogin(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected backend call %s", r.URL.Path)
	})
	hs.command("/dashboard")
	if got := hs.bot.last(); !strings.Contains(got, "Please log in first.") {
		t.Fatalf("screen = %q", got)
	}
}

func TestHandler_AdminReviewsAndOffers(t *testing.T) {
	var mu sync.Mutex
	approved := false
	var putStatus string
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/reviews/stats":
			_, _ = io.WriteString(w, `{"totalReviews":1,"pendingReviews":1,"averageRating":4}`)
		case r.URL.Path == "/reviews" && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"reviews":    []model.Review{{ID: "r1", Name: "Ann", Text: "Nice", Rating: 4, Approved: approved}},
				"totalPages": 1,
			})
		case r.URL.Path == "/reviews/r1/approve":
			approved = true
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/offers" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `[{"_id":"o1","offerName":"Summer","startDate":"01-09-2024","endDate":"30-09-2024","status":"Active"}]`)
		case r.URL.Path == "/offers/o1" && r.Method == http.MethodPut:
			var o model.Offer
			_ = json.NewDecoder(r.Body).Decode(&o)
			putStatus = string(o.Status)
			_ = json.NewEncoder(w).Encode(o)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbReviews)
	if got := hs.bot.last(); !strings.Contains(got, "pending") {
		t.Fatalf("reviews = %q", got)
	}
	hs.tap(PRApprove + "r1")
	if got := hs.bot.last(); !strings.Contains(got, "Review approved successfully!") || !strings.Contains(got, "approved") {
		t.Fatalf("after approve = %q", got)
	}

	hs.tap(CbOffers)
	if got := hs.bot.last(); !strings.Contains(got, "Live · 15 days left") {
		t.Fatalf("offers = %q", got)
	}
	hs.tap(POToggle + "o1")
	mu.Lock()
	if putStatus != "Inactive" {
		t.Fatalf("put status = %q", putStatus)
	}
	mu.Unlock()
	if got := hs.bot.last(); !strings.Contains(got, "Summer is now Inactive.") {
		t.Fatalf("after toggle = %q", got)
	}
}

func TestHandler_StrayTextIsDeleted(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {})
	hs.command("/start")
	hs.text("hello?")
	if got := hs.bot.last(); got != "Please use the buttons 👆" {
		t.Fatalf("reminder = %q", got)
	}
}

func TestSummarize(t *testing.T) {
	bookings := []model.Booking{
		{PhoneNumber: "1"}, {PhoneNumber: "2"}, {PhoneNumber: "1"},
		{PhoneNumber: "3"}, {PhoneNumber: "4"}, {PhoneNumber: "5"},
	}
	services := []model.Service{
		{Name: "A", BookingCount: 3}, {Name: "B", BookingCount: 9},
		{Name: "C", BookingCount: 1}, {Name: "D", BookingCount: 5},
	}
	stats, recent := Summarize(bookings, services)
	if stats.TotalBookings != 6 || stats.TotalServices != 4 || stats.TotalUsers != 5 {
		t.Fatalf("stats = %+v", stats)
	}
	if len(recent) != 5 {
		t.Fatalf("recent = %d", len(recent))
	}
	top := TopServices(services, 3)
	if len(top) != 3 || top[0].Name != "B" || top[1].Name != "D" || top[2].Name != "A" {
		t.Fatalf("top = %+v", top)
	}
}

func TestByTotalSpent(t *testing.T) {
	got := ByTotalSpent([]model.Customer{{Name: "a", TotalSpent: 10}, {Name: "b", TotalSpent: 300}, {Name: "c", TotalSpent: 45}})
	if got[0].Name != "b" || got[1].Name != "c" || got[2].Name != "a" {
		t.Fatalf("order = %+v", got)
	}
}

func TestValidPhone(t *testing.T) {
	for _, s := range []string{"5551234", "+1 (555) 123-4567"} {
		if !validPhone(s) {
			t.Errorf("%q rejected", s)
		}
	}
	for _, s := range []string{"", "12345", "call me", "555-1234x"} {
		if validPhone(s) {
			t.Errorf("%q accepted", s)
		}
	}
}

func TestHandler_AddFromOldMessageLoadsCatalogue(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if !catalogue(w, r) {
			w.WriteHeader(http.StatusNotFound)
		}
	})
	hs.tap(PAdd + "s1")
	if got := hs.bot.last(); !strings.Contains(got, "Haircut added to your cart.") {
		t.Fatalf("after add = %q", got)
	}
	if n := hs.h.registry.Get(context.Background(), chatID).Cart.Count(); n != 1 {
		t.Fatalf("cart count = %d", n)
	}
}

func TestHandler_LongReviewsFitOneMessage(t *testing.T) {
	long := strings.Repeat("great & nice <3 ", 40)[:MaxReviewLen]
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case "/reviews":
			reviews := make([]model.Review, 10)
			for i := range reviews {
				reviews[i] = model.Review{
					ID:     fmt.Sprintf("r%d", i),
					Name:   strings.Repeat("A&B ", 20),
					Text:   long,
					Rating: 5,
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"reviews": reviews, "totalPages": 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbReviews)
	got := hs.bot.last()
	checkHTML(t, got)
	if !strings.Contains(got, "…") {
		t.Fatalf("reviews not shortened: %q", got)
	}
}

func TestHandler_AdminServices(t *testing.T) {
	var mu sync.Mutex
	var posted, put model.Service
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/services" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `[{"_id":"s1","serviceName":"Haircut","serviceDescription":"Classic cut","price":45,"category":"men","serviceType":"Hair","bookingCount":3}]`)
		case r.URL.Path == "/services" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&posted)
			out := posted
			out.ID = "s2"
			_ = json.NewEncoder(w).Encode(map[string]any{"service": out})
		case r.URL.Path == "/services/s1" && r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&put)
			_ = json.NewEncoder(w).Encode(map[string]any{"service": put})
		case r.URL.Path == "/services/s2" && r.Method == http.MethodDelete:
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbAdminSvc)
	if got := hs.bot.last(); !strings.Contains(got, "Haircut") || !strings.Contains(got, "3 bookings") {
		t.Fatalf("services = %q", got)
	}

	hs.tap(CbSvcNew)
	hs.text("Beard Trim")
	hs.text("Shape and trim")
	hs.text("abc")
	if got := hs.bot.last(); !strings.Contains(got, "Please enter a price such as 45 or 12.50.") {
		t.Fatalf("bad price = %q", got)
	}
	hs.text("$25")
	hs.tap(PSCat + "men")
	hs.text("Beard")
	if got := hs.bot.last(); !strings.Contains(got, "Price: $25") || !strings.Contains(got, "Type: Beard") {
		t.Fatalf("confirm = %q", got)
	}
	hs.tap(CbOk)
	if got := hs.bot.last(); !strings.Contains(got, "Service Beard Trim saved.") || !strings.Contains(got, "Beard Trim") {
		t.Fatalf("after create = %q", got)
	}
	if st := hs.h.Session(chatID).State; st != StateAdminServices {
		t.Fatalf("state = %v", st)
	}
	mu.Lock()
	if posted.Name != "Beard Trim" || posted.Description != "Shape and trim" || posted.PriceOrZero() != 25 ||
		posted.Category != model.CategoryMen || posted.ServiceType != "Beard" {
		t.Fatalf("posted = %+v", posted)
	}
	mu.Unlock()

	hs.tap(PSEdit + "s1")
	if got := hs.bot.last(); !strings.Contains(got, "Edit service") || !strings.Contains(got, "Current: <code>Haircut</code>") {
		t.Fatalf("edit = %q", got)
	}
	hs.tap(CbKeep)
	hs.tap(CbKeep)
	hs.text("50")
	hs.tap(CbKeep)
	hs.tap(CbKeep)
	hs.tap(CbOk)
	mu.Lock()
	if put.PriceOrZero() != 50 || put.Description != "Classic cut" || put.Name != "Haircut" {
		t.Fatalf("put = %+v", put)
	}
	mu.Unlock()
	if got := hs.bot.last(); !strings.Contains(got, "Service Haircut saved.") || !strings.Contains(got, "$50") {
		t.Fatalf("after edit = %q", got)
	}

	hs.tap(PSDel + "s2")
	if got := hs.bot.last(); !strings.Contains(got, "Service deleted.") || strings.Contains(got, "Beard Trim") {
		t.Fatalf("after delete = %q", got)
	}
}

func TestHandler_OfferCreateAndEdit(t *testing.T) {
	var mu sync.Mutex
	var posted, put model.Offer
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/offers" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `[{"_id":"o1","offerName":"Summer","startDate":"01-09-2024","endDate":"30-09-2024","usageLimit":100,"status":"Active"}]`)
		case r.URL.Path == "/offers" && r.Method == http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&posted)
			out := posted
			out.ID = "o2"
			_ = json.NewEncoder(w).Encode(map[string]any{"offer": out})
		case r.URL.Path == "/offers/o1" && r.Method == http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&put)
			_ = json.NewEncoder(w).Encode(put)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbOffers)
	hs.tap(CbOfferNew)
	hs.text("Winter")
	hs.text("1-12-2024")
	if got := hs.bot.last(); !strings.Contains(got, "Please enter the date as DD-MM-YYYY.") {
		t.Fatalf("bad start = %q", got)
	}
	hs.text("01-12-2024")
	hs.text("30-11-2024")
	if got := hs.bot.last(); !strings.Contains(got, "The end date must not be before the start date.") {
		t.Fatalf("bad end = %q", got)
	}
	hs.text("31-12-2024")
	hs.text("-5")
	if got := hs.bot.last(); !strings.Contains(got, "Please enter a whole number, 0 for no limit.") {
		t.Fatalf("bad limit = %q", got)
	}
	hs.text("50")
	hs.tap(CbOk)
	if got := hs.bot.last(); !strings.Contains(got, "Offer Winter saved.") || !strings.Contains(got, "Winter") {
		t.Fatalf("after create = %q", got)
	}
	mu.Lock()
	if posted.Name != "Winter" || posted.StartDate != "01-12-2024" || posted.EndDate != "31-12-2024" ||
		posted.UsageLimit != 50 || posted.Status != model.OfferActive {
		t.Fatalf("posted = %+v", posted)
	}
	mu.Unlock()

	hs.tap(POEdit + "o1")
	for i := 0; i < 4; i++ {
		hs.tap(CbKeep)
	}
	if got := hs.bot.last(); !strings.Contains(got, "Usage limit: 100") {
		t.Fatalf("confirm = %q", got)
	}
	hs.tap(CbOk)
	mu.Lock()
	defer mu.Unlock()
	if put.Name != "Summer" || put.UsageLimit != 100 || put.Status != model.OfferActive || put.EndDate != "30-09-2024" {
		t.Fatalf("put = %+v", put)
	}
}

func TestHandler_BookingSearchAndComplete(t *testing.T) {
	var mu sync.Mutex
	var status string
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/bookings" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"bookings":[
				{"_id":"b1","name":"Ann","phoneNumber":"5551234","date":"16-09-2024","time":"10:00 AM","confirmationCode":"BR111111"},
				{"_id":"b2","name":"Bob","phoneNumber":"5559999","date":"20-09-2024","time":"11:00 AM","confirmationCode":"BR222222"}
			]}`)
		case r.URL.Path == "/bookings/b1/status" && r.Method == http.MethodPatch:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			status = body["status"]
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbBookings)
	hs.tap(CbBSearch)
	hs.text("bob")
	if got := hs.bot.last(); !strings.Contains(got, "BR222222") || strings.Contains(got, "BR111111") {
		t.Fatalf("search = %q", got)
	}
	if st := hs.h.Session(chatID).State; st != StateAdminBookings {
		t.Fatalf("state = %v", st)
	}
	hs.tap(CbBSClear)
	if got := hs.bot.last(); !strings.Contains(got, "BR111111") {
		t.Fatalf("cleared = %q", got)
	}

	hs.tap(PBDone + "b1")
	mu.Lock()
	if status != "Completed" {
		t.Fatalf("status = %q", status)
	}
	mu.Unlock()
	if got := hs.bot.last(); !strings.Contains(got, "Booking marked as completed.") {
		t.Fatalf("after done = %q", got)
	}
	hs.tap(PBFilter + "completed")
	if got := hs.bot.last(); !strings.Contains(got, "BR111111") || strings.Contains(got, "BR222222") {
		t.Fatalf("completed = %q", got)
	}
}

func TestHandler_ReviewFilterAndCustomerDelete(t *testing.T) {
	hs := newHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/adminLogin/adminLogin":
			_, _ = io.WriteString(w, `{"success":true}`)
		case r.URL.Path == "/reviews":
			_, _ = io.WriteString(w, `{"reviews":[
				{"_id":"r1","name":"Ann","review":"Lovely","rating":5,"isApproved":true},
				{"_id":"r2","name":"Bob","review":"Meh","rating":2}
			],"totalPages":1}`)
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"users":[{"_id":"u1","name":"Cleo","phoneNumber":"5550000","totalBookings":2,"totalSpent":90}]}`)
		case r.URL.Path == "/users/u1" && r.Method == http.MethodDelete:
			_, _ = io.WriteString(w, `{"success":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	hs.command("/login admin@salon.com secret")
	hs.tap(CbReviews)
	hs.tap(PRFilter + "pending")
	if got := hs.bot.last(); !strings.Contains(got, "Meh") || strings.Contains(got, "Lovely") {
		t.Fatalf("pending = %q", got)
	}
	hs.tap(PRFilter + "approved")
	if got := hs.bot.last(); strings.Contains(got, "Meh") || !strings.Contains(got, "Lovely") {
		t.Fatalf("approved = %q", got)
	}

	hs.tap(CbUsers)
	if got := hs.bot.last(); !strings.Contains(got, "Cleo") {
		t.Fatalf("users = %q", got)
	}
	hs.tap(PUDel + "u1")
	if got := hs.bot.last(); !strings.Contains(got, "Customer deleted.") || strings.Contains(got, "Cleo") {
		t.Fatalf("after delete = %q", got)
	}
}

func TestMatchesSearch(t *testing.T) {
	b := model.Booking{Name: "Ann Lee", PhoneNumber: "+1 555 1234", ConfirmationCode: "BR12AB34"}
	for _, q := range []string{"", "ann", "LEE", "555 12", "br12ab"} {
		if !MatchesSearch(b, q) {
			t.Errorf("%q missed", q)
		}
	}
	if MatchesSearch(b, "bob") {
		t.Error("bob matched")
	}
}
