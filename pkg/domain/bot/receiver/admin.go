package receiver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/bot/receiver/keyboards"
	"github.com/napryag/salon_bot/pkg/domain/bot/sender"
	"github.com/napryag/salon_bot/pkg/domain/calendar"
	"github.com/napryag/salon_bot/pkg/domain/query"
	"github.com/napryag/salon_bot/pkg/domain/workspace"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

const (
	topServices    = 3
	recentBookings = 5
	recentReviews  = 3
)

var btnAdmin = keyboards.Button{Text: "⬅️ Admin", Data: CbAdmin}

// Summarize derives dashboard numbers from raw lists: totals, unique phone
// numbers as users, and the first bookings as the recent ones.
func Summarize(bookings []model.Booking, services []model.Service) (model.DashboardStats, []model.Booking) {
	phones := make(map[string]struct{}, len(bookings))
	for _, b := range bookings {
		phones[b.PhoneNumber] = struct{}{}
	}
	stats := model.DashboardStats{
		TotalBookings: len(bookings),
		TotalServices: len(services),
		TotalUsers:    len(phones),
	}
	recent := bookings
	if len(recent) > recentBookings {
		recent = recent[:recentBookings]
	}
	return stats, recent
}

// TopServices returns the n most booked services.
func TopServices(services []model.Service, n int) []model.Service {
	out := make([]model.Service, len(services))
	copy(out, services)
	sort.SliceStable(out, func(i, j int) bool { return out[i].BookingCount > out[j].BookingCount })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (h *Handler) dashboardScreen(ctx context.Context, hk *hooks) screen {
	fresh := hk.takeFresh()
	st := load(ctx, hk.stats, none{}, fresh)
	services := load(ctx, hk.adminServices, none{}, fresh)

	var stats model.DashboardStats
	var recent []model.Booking
	if st.Err == nil {
		stats = st.Data
		recent = load(ctx, hk.recent, recentBookings, fresh).Data
	} else {
		bookings := load(ctx, hk.bookings, api.BookingListParams{}, fresh)
		stats, recent = Summarize(bookings.Data, services.Data)
	}

	var sb strings.Builder
	sb.WriteString("<b>Dashboard</b>\n\n")
	fmt.Fprintf(&sb, "Bookings: <b>%d</b>\nServices: <b>%d</b>\nCustomers: <b>%d</b>\n",
		stats.TotalBookings, stats.TotalServices, stats.TotalUsers)
	if rs := load(ctx, hk.reviewStats, none{}, fresh); rs.Err == nil {
		fmt.Fprintf(&sb, "Reviews: <b>%d</b> (%d pending, avg %.1f)\n",
			rs.Data.TotalReviews, rs.Data.PendingReviews, rs.Data.AverageRating)
	}

	if top := TopServices(services.Data, topServices); len(top) > 0 {
		sb.WriteString("\n<b>Top services</b>\n")
		for i, s := range top {
			fmt.Fprintf(&sb, "%d. %s · %d bookings\n", i+1, esc(s.Name), s.BookingCount)
		}
	}
	if len(recent) > 0 {
		sb.WriteString("\n<b>Recent bookings</b>\n")
		for _, b := range recent {
			fmt.Fprintf(&sb, "• %s · %s %s · %s\n", esc(b.Name), esc(b.Date), esc(b.Time), money(b.Total()))
		}
	}
	if st.Err == nil {
		if rr := load(ctx, hk.recentReviews, recentReviews, fresh); len(rr.Data) > 0 {
			sb.WriteString("\n<b>Latest reviews</b>\n")
			for _, r := range rr.Data {
				fmt.Fprintf(&sb, "• %s %s\n", sender.Stars(r.Rating), esc(r.Name))
			}
		}
	}

	return screen{
		text: sb.String(),
		keyboard: keyboards.Markup(
			keyboards.Row(keyboards.Button{Text: "🔄 Refresh", Data: CbDashboard}),
			keyboards.Row(btnAdmin),
		),
	}
}

func (h *Handler) bookingsScreen(ctx context.Context, sess *Session, hk *hooks) screen {
	st := load(ctx, hk.bookings, api.BookingListParams{}, hk.takeFresh())
	today := h.today()

	var sb strings.Builder
	sb.WriteString("<b>Bookings</b>")
	if f := sess.BookingFilter; f != "" {
		fmt.Fprintf(&sb, " · %s", f)
	}
	if q := sess.BookingSearch; q != "" {
		fmt.Fprintf(&sb, " · 🔍 %s", esc(q))
	}
	sb.WriteString("\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	shown := 0
	for _, b := range st.Data {
		status, err := calendar.BookingState(b, today)
		if err != nil {
			h.logger.Debug().Str("date", b.Date).Msg("booking with bad date")
		}
		if f := sess.BookingFilter; f != "" && !strings.EqualFold(string(status), f) {
			continue
		}
		if !MatchesSearch(b, sess.BookingSearch) {
			continue
		}
		shown++
		if shown > h.pageSize {
			continue
		}
		fmt.Fprintf(&sb, "<b>%s</b> · %s\n%s, %s\n%s %s · %s\n",
			esc(b.ConfirmationCode), esc(string(status)), esc(b.Name), esc(b.PhoneNumber),
			esc(b.Date), esc(b.Time), money(b.Total()))
		names := make([]string, 0, len(b.Services))
		for _, it := range b.Services {
			names = append(names, it.ServiceName)
		}
		if len(names) > 0 {
			fmt.Fprintf(&sb, "<i>%s</i>\n", esc(clip(strings.Join(names, ", "), previewLen)))
		}
		sb.WriteString("\n")
		if b.ID == "" {
			continue
		}
		label := b.ConfirmationCode
		if label == "" {
			label = b.Name
		}
		var row []keyboards.Button
		if status != calendar.StatusCompleted {
			row = append(row, keyboards.Button{Text: "✔️ Done " + label, Data: PBDone + b.ID})
		}
		row = append(row, keyboards.Button{Text: "🗑 " + label, Data: PBDel + b.ID})
		rows = append(rows, keyboards.Row(row...))
	}
	switch {
	case st.Err != nil && len(st.Data) == 0:
		sb.WriteString("Could not load bookings.")
	case shown == 0:
		sb.WriteString("No bookings.")
	case shown > h.pageSize:
		fmt.Fprintf(&sb, "…and %d more", shown-h.pageSize)
	}

	filters := keyboards.Row(
		keyboards.Button{Text: "All", Data: PBFilter + "all"},
		keyboards.Button{Text: "Today", Data: PBFilter + "today"},
		keyboards.Button{Text: "Upcoming", Data: PBFilter + "upcoming"},
		keyboards.Button{Text: "Done", Data: PBFilter + "completed"},
	)
	search := []keyboards.Button{{Text: "🔍 Search", Data: CbBSearch}}
	if sess.BookingSearch != "" {
		search = append(search, keyboards.Button{Text: "✖️ Clear search", Data: CbBSClear})
	}
	rows = append([][]tgbotapi.InlineKeyboardButton{filters, keyboards.Row(search...)}, rows...)
	rows = append(rows, keyboards.Row(btnAdmin))
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

// MatchesSearch reports whether the booking's name, phone number or
// confirmation code contains q. Name and code ignore case.
func MatchesSearch(b model.Booking, q string) bool {
	if q == "" {
		return true
	}
	lq := strings.ToLower(q)
	return strings.Contains(strings.ToLower(b.Name), lq) ||
		strings.Contains(b.PhoneNumber, q) ||
		strings.Contains(strings.ToLower(b.ConfirmationCode), lq)
}

func (h *Handler) reviewsScreen(ctx context.Context, sess *Session, hk *hooks) screen {
	fresh := hk.takeFresh()
	params := query.ReviewPageParams{Page: sess.ReviewPage + 1, Limit: h.pageSize}
	st := load(ctx, hk.reviews, params, fresh)
	page := st.Data

	var sb strings.Builder
	sb.WriteString("<b>Reviews</b>")
	if rs := load(ctx, hk.reviewStats, none{}, fresh); rs.Err == nil {
		fmt.Fprintf(&sb, " · %d total, %d pending, avg %.1f",
			rs.Data.TotalReviews, rs.Data.PendingReviews, rs.Data.AverageRating)
	}
	if sess.ReviewFilter != "" {
		fmt.Fprintf(&sb, " · %s", sess.ReviewFilter)
	}
	sb.WriteString("\n\n")

	filters := keyboards.Row(
		keyboards.Button{Text: "All", Data: PRFilter + "all"},
		keyboards.Button{Text: "Approved", Data: PRFilter + "approved"},
		keyboards.Button{Text: "Pending", Data: PRFilter + "pending"},
	)
	rows := [][]tgbotapi.InlineKeyboardButton{filters}
	shown := 0
	for _, r := range page.Reviews {
		if (sess.ReviewFilter == "approved" && !r.Approved) || (sess.ReviewFilter == "pending" && r.Approved) {
			continue
		}
		shown++
		state := "✅ approved"
		if !r.Approved {
			state = "⏳ pending"
		}
		fmt.Fprintf(&sb, "%s <b>%s</b> · %s\n%s\n", sender.Stars(r.Rating), esc(clip(r.Name, 60)), state, esc(clip(r.Text, previewLen)))
		if r.SubmittedAt != nil {
			fmt.Fprintf(&sb, "<i>%s</i>\n", r.SubmittedAt.In(h.loc).Format(time.DateOnly))
		}
		sb.WriteString("\n")
		if r.ID == "" {
			continue
		}
		var row []keyboards.Button
		if !r.Approved {
			row = append(row, keyboards.Button{Text: "✅ " + r.Name, Data: PRApprove + r.ID})
		}
		row = append(row, keyboards.Button{Text: "🗑 " + r.Name, Data: PRDel + r.ID})
		rows = append(rows, keyboards.Row(row...))
	}
	switch {
	case st.Err != nil && len(page.Reviews) == 0:
		sb.WriteString("Could not load reviews.")
	case len(page.Reviews) == 0:
		sb.WriteString("No reviews yet.")
	case shown == 0:
		sb.WriteString("No reviews match this filter.")
	}

	rows = append(rows, keyboards.Pager(PRPage, sess.ReviewPage, page.TotalPages), keyboards.Row(btnAdmin))
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

func (h *Handler) offersScreen(ctx context.Context, hk *hooks) screen {
	st := load(ctx, hk.offers, none{}, hk.takeFresh())
	today := h.today()

	var sb strings.Builder
	sb.WriteString("<b>Offers</b>\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, o := range st.Data {
		label := string(o.Status)
		if calendar.OfferLive(o, today) {
			label = fmt.Sprintf("🟢 Live · %d days left", calendar.DaysRemaining(o.EndDate, today))
		}
		fmt.Fprintf(&sb, "<b>%s</b> · %s\n%s → %s", esc(o.Name), esc(label), esc(o.StartDate), esc(o.EndDate))
		if o.UsageLimit > 0 {
			fmt.Fprintf(&sb, " · limit %d", o.UsageLimit)
		}
		sb.WriteString("\n\n")
		if o.ID == "" {
			continue
		}
		toggle := "▶️ Activate"
		if o.Status == model.OfferActive {
			toggle = "⏸ Deactivate"
		}
		rows = append(rows, keyboards.Row(
			keyboards.Button{Text: toggle + " " + o.Name, Data: POToggle + o.ID},
			keyboards.Button{Text: "✏️", Data: POEdit + o.ID},
			keyboards.Button{Text: "🗑", Data: PODel + o.ID},
		))
	}
	switch {
	case st.Err != nil && len(st.Data) == 0:
		sb.WriteString("Could not load offers.")
	case len(st.Data) == 0:
		sb.WriteString("No offers.")
	}
	rows = append(rows,
		keyboards.Row(keyboards.Button{Text: "➕ Add offer", Data: CbOfferNew}),
		keyboards.Row(btnAdmin),
	)
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

func (h *Handler) adminServicesScreen(ctx context.Context, sess *Session, hk *hooks) screen {
	st := load(ctx, hk.adminServices, none{}, hk.takeFresh())

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Manage services</b> · %s\n\n", title(model.Category(sess.ServiceFilter)))
	var rows [][]tgbotapi.InlineKeyboardButton
	shown := 0
	for _, s := range st.Data {
		if sess.ServiceFilter != "" && string(s.Category) != sess.ServiceFilter {
			continue
		}
		shown++
		if shown > h.pageSize {
			continue
		}
		fmt.Fprintf(&sb, "<b>%s</b> · %s", esc(s.Name), price(s.Price))
		if s.Category != "" {
			fmt.Fprintf(&sb, " · %s", title(s.Category))
		}
		if s.ServiceType != "" {
			fmt.Fprintf(&sb, " · %s", esc(s.ServiceType))
		}
		fmt.Fprintf(&sb, "\n%d bookings\n", s.BookingCount)
		if s.Description != "" {
			fmt.Fprintf(&sb, "<i>%s</i>\n", esc(clip(s.Description, previewLen)))
		}
		sb.WriteString("\n")
		if s.ID == "" {
			continue
		}
		rows = append(rows, keyboards.Row(
			keyboards.Button{Text: "✏️ " + s.Name, Data: PSEdit + s.ID},
			keyboards.Button{Text: "🗑", Data: PSDel + s.ID},
		))
	}
	switch {
	case st.Err != nil && len(st.Data) == 0:
		sb.WriteString("Could not load services.")
	case shown == 0:
		sb.WriteString("No services found.")
	case shown > h.pageSize:
		fmt.Fprintf(&sb, "…and %d more", shown-h.pageSize)
	}

	filters := keyboards.Row(
		keyboards.Button{Text: "All", Data: PSFilter + "all"},
		keyboards.Button{Text: "Men", Data: PSFilter + string(model.CategoryMen)},
		keyboards.Button{Text: "Women", Data: PSFilter + string(model.CategoryWomen)},
	)
	rows = append([][]tgbotapi.InlineKeyboardButton{filters}, rows...)
	rows = append(rows,
		keyboards.Row(keyboards.Button{Text: "➕ Add service", Data: CbSvcNew}),
		keyboards.Row(btnAdmin),
	)
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

// ByTotalSpent sorts customers, biggest spenders first.
func ByTotalSpent(users []model.Customer) []model.Customer {
	out := make([]model.Customer, len(users))
	copy(out, users)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalSpent > out[j].TotalSpent })
	return out
}

func (h *Handler) usersScreen(ctx context.Context, hk *hooks) screen {
	st := load(ctx, hk.users, api.UserListParams{SortBy: "totalSpent"}, hk.takeFresh())
	users := ByTotalSpent(st.Data)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Customers</b> · %d\n\n", len(users))
	var del []keyboards.Button
	for i, u := range users {
		if i == h.pageSize {
			fmt.Fprintf(&sb, "…and %d more", len(users)-h.pageSize)
			break
		}
		fmt.Fprintf(&sb, "<b>%s</b> · %s\n%d bookings · %s", esc(u.Name), esc(u.PhoneNumber), u.TotalBookings, money(u.TotalSpent))
		if u.LastVisit != "" {
			fmt.Fprintf(&sb, " · last %s", esc(u.LastVisit))
		}
		if u.FavoriteService != "" {
			fmt.Fprintf(&sb, "\n<i>likes %s</i>", esc(u.FavoriteService))
		}
		sb.WriteString("\n\n")
		if u.ID != "" {
			del = append(del, keyboards.Button{Text: "🗑 " + u.Name, Data: PUDel + u.ID})
		}
	}
	switch {
	case st.Err != nil && len(users) == 0:
		sb.WriteString("Could not load customers.")
	case len(users) == 0:
		sb.WriteString("No customers yet.")
	}
	rows := keyboards.Grid(del, 2)
	rows = append(rows, keyboards.Row(btnAdmin))
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

func (h *Handler) handleAdminCallback(ctx context.Context, data string, sess *Session, ws *workspace.Workspace, hk *hooks) {
	if !ws.Session.Authenticated() {
		sess.Jump(StateLogin)
		sess.Notice = "Please log in first."
		return
	}

	switch {
	case data == CbAdminSvc:
		sess.Go(StateAdminServices)
		hk.fresh = true
	case data == CbSvcNew:
		startServiceForm(sess, model.Service{})
	case data == CbOfferNew:
		startOfferForm(sess, model.Offer{})
	case data == CbBSearch:
		sess.Go(StateBookingSearch)
	case data == CbBSClear:
		sess.BookingSearch = ""
	case data == CbKeep:
		keepDraftValue(sess)

	case strings.HasPrefix(data, PBFilter):
		val, _ := Is(data, PBFilter)
		sess.BookingFilter = bookingFilter(val)

	case strings.HasPrefix(data, PBDone):
		id, _ := Is(data, PBDone)
		h.completeBooking(ctx, sess, hk, id)

	case strings.HasPrefix(data, PBDel):
		id, _ := Is(data, PBDel)
		if _, err := hk.bookingMut.Delete.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to delete booking")
			return
		}
		hk.bookings.SetData(without(hk.bookings.State().Data, func(b model.Booking) bool { return b.ID == id }))
		sess.Notice = "Booking deleted."

	case strings.HasPrefix(data, PRPage):
		val, _ := Is(data, PRPage)
		sess.ReviewPage = max(atoi(val), 0)

	case strings.HasPrefix(data, PRApprove):
		id, _ := Is(data, PRApprove)
		if _, err := hk.reviewMut.Approve.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to approve review")
			return
		}
		sess.Notice = "Review approved successfully!"
		hk.reviews.Refetch(ctx)
		hk.reviewStats.Refetch(ctx)

	case strings.HasPrefix(data, PRDel):
		id, _ := Is(data, PRDel)
		if _, err := hk.reviewMut.Delete.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to delete review")
			return
		}
		sess.Notice = "Review deleted successfully!"
		hk.reviews.Refetch(ctx)
		hk.reviewStats.Refetch(ctx)

	case strings.HasPrefix(data, POToggle):
		id, _ := Is(data, POToggle)
		h.toggleOffer(ctx, sess, hk, id)

	case strings.HasPrefix(data, PODel):
		id, _ := Is(data, PODel)
		if _, err := hk.offerMut.Delete.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to delete offer")
			return
		}
		hk.offers.SetData(without(hk.offers.State().Data, func(o model.Offer) bool { return o.ID == id }))
		sess.Notice = "Offer deleted."

	case strings.HasPrefix(data, POEdit):
		id, _ := Is(data, POEdit)
		o, ok := find(hk.offers.State().Data, func(o model.Offer) bool { return o.ID == id })
		if !ok {
			sess.Notice = "That offer is gone."
			return
		}
		startOfferForm(sess, o)

	case strings.HasPrefix(data, PRFilter):
		val, _ := Is(data, PRFilter)
		switch val {
		case "approved", "pending":
			sess.ReviewFilter = val
		default:
			sess.ReviewFilter = ""
		}

	case strings.HasPrefix(data, PSFilter):
		val, _ := Is(data, PSFilter)
		if val == "all" {
			val = ""
		}
		sess.ServiceFilter = val

	case strings.HasPrefix(data, PSEdit):
		id, _ := Is(data, PSEdit)
		svc, ok := find(hk.adminServices.State().Data, func(s model.Service) bool { return s.ID == id })
		if !ok {
			sess.Notice = "That service is gone."
			return
		}
		startServiceForm(sess, svc)

	case strings.HasPrefix(data, PSDel):
		id, _ := Is(data, PSDel)
		if _, err := hk.serviceMut.Delete.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to delete service")
			return
		}
		hk.adminServices.SetData(without(hk.adminServices.State().Data, func(s model.Service) bool { return s.ID == id }))
		sess.Notice = "Service deleted."

	case strings.HasPrefix(data, PSCat):
		val, _ := Is(data, PSCat)
		if sess.State == StateServiceCategory {
			sess.ServiceDraft.Category = model.Category(val)
			sess.Go(nextFormStep(sess.State))
		}

	case strings.HasPrefix(data, PUDel):
		id, _ := Is(data, PUDel)
		if _, err := hk.userMut.Delete.Call(ctx, id); err != nil {
			failNotice(sess, err, "Failed to delete customer")
			return
		}
		hk.users.SetData(without(hk.users.State().Data, func(u model.Customer) bool { return u.ID == id }))
		sess.Notice = "Customer deleted."

	default:
		h.logger.Debug().Str("data", data).Msg("unknown callback")
	}
}

// toggleOffer flips the offer status, sending the whole offer back.
func (h *Handler) toggleOffer(ctx context.Context, sess *Session, hk *hooks, id string) {
	offers := hk.offers.State().Data
	next, ok := find(offers, func(o model.Offer) bool { return o.ID == id })
	if !ok {
		sess.Notice = "That offer is gone."
		return
	}
	if next.Status == model.OfferActive {
		next.Status = model.OfferInactive
	} else {
		next.Status = model.OfferActive
	}
	updated, err := hk.offerMut.Update.Call(ctx, query.Update[model.Offer]{ID: id, Body: next})
	if err != nil {
		failNotice(sess, err, "Failed to update offer")
		return
	}
	if updated.ID == "" {
		updated = next
	}
	hk.offers.SetData(replace(offers, updated, func(o model.Offer) bool { return o.ID == id }))
	sess.Notice = fmt.Sprintf("%s is now %s.", updated.Name, updated.Status)
}

// completeBooking records that the visit took place.
func (h *Handler) completeBooking(ctx context.Context, sess *Session, hk *hooks, id string) {
	bookings := hk.bookings.State().Data
	b, ok := find(bookings, func(b model.Booking) bool { return b.ID == id })
	if !ok {
		sess.Notice = "That booking is gone."
		return
	}
	change := query.StatusChange{ID: id, Status: string(calendar.StatusCompleted)}
	updated, err := hk.bookingMut.UpdateStatus.Call(ctx, change)
	if err != nil {
		failNotice(sess, err, "Failed to update booking status")
		return
	}
	if updated.ID != "" {
		b = updated
	}
	b.Status = change.Status
	hk.bookings.SetData(replace(bookings, b, func(x model.Booking) bool { return x.ID == id }))
	sess.Notice = "Booking marked as completed."
}

// failNotice shows a mutation failure. A 401 already redirected the chat.
func failNotice(sess *Session, err error, fallback string) {
	if errors.Is(err, api.ErrUnauthorized) {
		return
	}
	sess.Notice = fallback
}

func find[T any](in []T, match func(T) bool) (T, bool) {
	for _, v := range in {
		if match(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// replace returns a copy of in with every match swapped for v.
func replace[T any](in []T, v T, match func(T) bool) []T {
	out := make([]T, len(in))
	copy(out, in)
	for i := range out {
		if match(out[i]) {
			out[i] = v
		}
	}
	return out
}

func without[T any](in []T, drop func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}
