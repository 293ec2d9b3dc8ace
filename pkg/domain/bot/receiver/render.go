package receiver

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/domain/bot/receiver/keyboards"
	"github.com/napryag/salon_bot/pkg/domain/bot/sender"
	"github.com/napryag/salon_bot/pkg/domain/calendar"
	"github.com/napryag/salon_bot/pkg/domain/query"
	"github.com/napryag/salon_bot/pkg/domain/workspace"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

const datesPerPage = 8

type screen struct {
	text     string
	keyboard tgbotapi.InlineKeyboardMarkup
}

var (
	btnBack = keyboards.Button{Text: "⬅️ Back", Data: CbBack}
	btnMain = keyboards.Button{Text: "🏠 Menu", Data: CbMain}
)

// render builds the screen for the chat's current state. A fetch may move the
// chat to the login screen (401), in which case that screen is built instead.
func (h *Handler) render(ctx context.Context, sess *Session, ws *workspace.Workspace) screen {
	var scr screen
	for i := 0; i < 3; i++ {
		if sess.State.AdminOnly() && !ws.Session.Authenticated() {
			sess.Jump(StateLogin)
			if sess.Notice == "" {
				sess.Notice = "Please log in first."
			}
		}
		before := sess.State
		scr = h.build(ctx, sess, ws)
		if sess.State == before {
			break
		}
	}
	scr.text = truncate(withNotice(sess.TakeNotice(), scr.text))
	return scr
}

func (h *Handler) build(ctx context.Context, sess *Session, ws *workspace.Workspace) screen {
	hk := h.chatHooks(ws.ChatID, ws)
	switch sess.State {
	case StateServices:
		return h.servicesScreen(ctx, sess, ws, hk)
	case StateCart:
		return cartScreen(ws)
	case StateBookName:
		return prompt("Enter your <b>name</b>:")
	case StateBookPhone:
		return prompt("Enter your <b>phone number</b>:")
	case StateBookDate:
		return h.dateScreen(sess)
	case StateBookTime:
		return timeScreen(sess)
	case StateBookConfirm:
		return bookingSummary(sess, ws)
	case StateReviewName:
		return prompt("<b>Leave a review</b>\n\nEnter your <b>name</b>:")
	case StateReviewPhone:
		return prompt("Enter the <b>phone number</b> you booked with:")
	case StateReviewRating:
		return ratingScreen()
	case StateReviewText:
		return prompt(fmt.Sprintf("Write your review (max %d characters):", MaxReviewLen))
	case StateReviewPhoto:
		return screen{
			text: "Send a photo for your review, or skip.",
			keyboard: keyboards.Markup(
				keyboards.Row(keyboards.Button{Text: "Skip ➡️", Data: CbSkip}),
				keyboards.Row(btnBack),
			),
		}
	case StateReviewConfirm:
		return reviewSummary(sess)
	case StateHelp:
		return helpScreen()
	case StateLogin:
		return screen{
			text:     "<b>Admin login</b>\n\nSend <code>/login &lt;email&gt; &lt;password&gt;</code>",
			keyboard: keyboards.Markup(keyboards.Row(btnMain)),
		}
	case StateAdmin:
		return adminMenu(ws)
	case StateAdminDashboard:
		return h.dashboardScreen(ctx, hk)
	case StateAdminBookings:
		return h.bookingsScreen(ctx, sess, hk)
	case StateAdminReviews:
		return h.reviewsScreen(ctx, sess, hk)
	case StateAdminOffers:
		return h.offersScreen(ctx, hk)
	case StateAdminUsers:
		return h.usersScreen(ctx, hk)
	case StateAdminServices:
		return h.adminServicesScreen(ctx, sess, hk)
	case StateBookingSearch:
		return screen{
			text:     "Send a name, phone number or confirmation code to search bookings.",
			keyboard: keyboards.Markup(keyboards.Row(btnBack, btnAdmin)),
		}
	case StateServiceName, StateServiceDesc, StateServicePrice, StateServiceCategory, StateServiceType, StateServiceConfirm:
		return serviceFormScreen(sess)
	case StateOfferName, StateOfferStart, StateOfferEnd, StateOfferLimit, StateOfferConfirm:
		return offerFormScreen(sess)
	}
	sess.State = StateMain
	return mainMenu(ws)
}

// load syncs q with params; fresh forces a refetch when params did not change.
func load[P, T any](ctx context.Context, q *query.Query[P, T], params P, fresh bool) query.State[T] {
	before := q.Runs()
	st := q.Sync(ctx, params)
	if fresh && q.Runs() == before {
		st = q.Refetch(ctx)
	}
	return st
}

func prompt(text string) screen {
	return screen{text: text, keyboard: keyboards.Markup(keyboards.Row(btnBack, btnMain))}
}

func mainMenu(ws *workspace.Workspace) screen {
	text := "<b>Bria Beauty Salon</b>\n\nPick a service, book a visit or tell us how it went."
	rows := [][]tgbotapi.InlineKeyboardButton{
		keyboards.Row(keyboards.Button{Text: "💇 Services", Data: CbServices}),
		keyboards.Row(
			keyboards.Button{Text: fmt.Sprintf("🛒 Cart (%d)", ws.Cart.Count()), Data: CbCart},
			keyboards.Button{Text: "📅 Book", Data: CbBook},
		),
		keyboards.Row(
			keyboards.Button{Text: "⭐ Review", Data: CbReview},
			keyboards.Button{Text: "❓ Help", Data: CbHelp},
		),
	}
	if ws.Session.Authenticated() {
		rows = append(rows, keyboards.Row(keyboards.Button{Text: "🔐 Admin", Data: CbAdmin}))
	}
	return screen{text: text, keyboard: keyboards.Markup(rows...)}
}

func (h *Handler) servicesScreen(ctx context.Context, sess *Session, ws *workspace.Workspace, hk *hooks) screen {
	st := load(ctx, hk.services, none{}, hk.takeFresh())

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Services</b> · %s\n\n", title(model.Category(sess.Category)))

	var add []keyboards.Button
	shown := 0
	for _, s := range st.Data {
		if sess.Category != "" && string(s.Category) != sess.Category {
			continue
		}
		shown++
		fmt.Fprintf(&sb, "• <b>%s</b> · %s\n", esc(s.Name), price(s.Price))
		if s.Description != "" {
			fmt.Fprintf(&sb, "  <i>%s</i>\n", esc(s.Description))
		}
		label := "➕ " + s.Name
		if ws.Cart.Contains(s.ID) {
			label = "✅ " + s.Name
		}
		add = append(add, keyboards.Button{Text: label, Data: PAdd + s.ID})
	}
	switch {
	case st.Err != nil && len(st.Data) == 0:
		sb.WriteString("Could not load services. Please try again.")
	case shown == 0:
		sb.WriteString("No services found.")
	}

	cats := []keyboards.Button{
		catButton("All", "all", sess.Category == ""),
		catButton("Men", string(model.CategoryMen), sess.Category == string(model.CategoryMen)),
		catButton("Women", string(model.CategoryWomen), sess.Category == string(model.CategoryWomen)),
	}
	rows := [][]tgbotapi.InlineKeyboardButton{keyboards.Row(cats...)}
	rows = append(rows, keyboards.Grid(add, 2)...)
	rows = append(rows,
		keyboards.Row(keyboards.Button{Text: fmt.Sprintf("🛒 Cart (%d)", ws.Cart.Count()), Data: CbCart}),
		keyboards.Row(btnBack, btnMain),
	)
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

func catButton(label, value string, active bool) keyboards.Button {
	if active {
		label = "• " + label + " •"
	}
	return keyboards.Button{Text: label, Data: PCat + value}
}

func cartScreen(ws *workspace.Workspace) screen {
	items := ws.Cart.Items()
	if len(items) == 0 {
		return screen{
			text: "<b>Your cart is empty</b>\n\nAdd a service to get started.",
			keyboard: keyboards.Markup(
				keyboards.Row(keyboards.Button{Text: "💇 Services", Data: CbServices}),
				keyboards.Row(btnMain),
			),
		}
	}

	var sb strings.Builder
	sb.WriteString("<b>Your cart</b>\n\n")
	var rm []keyboards.Button
	for _, it := range items {
		fmt.Fprintf(&sb, "• %s · %s\n", esc(it.Name), price(it.Price))
		rm = append(rm, keyboards.Button{Text: "❌ " + it.Name, Data: PRm + it.ID})
	}
	fmt.Fprintf(&sb, "\n<b>Total: %s</b>", money(ws.Cart.Total()))

	rows := keyboards.Grid(rm, 2)
	rows = append(rows,
		keyboards.Row(
			keyboards.Button{Text: "🗑 Clear", Data: CbClear},
			keyboards.Button{Text: "📅 Book", Data: CbBook},
		),
		keyboards.Row(btnBack, btnMain),
	)
	return screen{text: sb.String(), keyboard: keyboards.Markup(rows...)}
}

func (h *Handler) dateScreen(sess *Session) screen {
	days := calendar.BookingDays(h.today())
	pages := (len(days) + datesPerPage - 1) / datesPerPage
	if sess.DatePage >= pages {
		sess.DatePage = pages - 1
	}
	if sess.DatePage < 0 {
		sess.DatePage = 0
	}
	from := sess.DatePage * datesPerPage
	to := min(from+datesPerPage, len(days))

	buttons := make([]keyboards.Button, 0, datesPerPage)
	for _, d := range days[from:to] {
		buttons = append(buttons, keyboards.Button{Text: HumanDate(d), Data: PD + calendar.FormatDate(d)})
	}
	rows := keyboards.Grid(buttons, 2)
	rows = append(rows, keyboards.Pager(PDPage, sess.DatePage, pages), keyboards.Row(btnBack, btnMain))
	return screen{text: "Pick a <b>date</b>:", keyboard: keyboards.Markup(rows...)}
}

func timeScreen(sess *Session) screen {
	slots := calendar.TimeSlots()
	buttons := make([]keyboards.Button, 0, len(slots))
	for _, s := range slots {
		buttons = append(buttons, keyboards.Button{Text: s, Data: PT + s})
	}
	rows := keyboards.Grid(buttons, 3)
	rows = append(rows, keyboards.Row(btnBack, btnMain))
	return screen{
		text:     fmt.Sprintf("Pick a <b>time</b> on %s:", esc(sess.Booking.Date)),
		keyboard: keyboards.Markup(rows...),
	}
}

func bookingSummary(sess *Session, ws *workspace.Workspace) screen {
	b := sess.Booking
	var sb strings.Builder
	sb.WriteString("<b>Confirm your booking</b>\n\n")
	fmt.Fprintf(&sb, "Name: %s\nPhone: %s\nDate: %s\nTime: %s\n\n", esc(b.Name), esc(b.Phone), esc(b.Date), esc(b.Time))
	for _, it := range ws.Cart.Items() {
		fmt.Fprintf(&sb, "• %s · %s\n", esc(it.Name), price(it.Price))
	}
	fmt.Fprintf(&sb, "\n<b>Total: %s</b>", money(ws.Cart.Total()))
	return screen{
		text: sb.String(),
		keyboard: keyboards.Markup(
			keyboards.Row(keyboards.Button{Text: "✅ Confirm booking", Data: CbOk}),
			keyboards.Row(btnBack, btnMain),
		),
	}
}

func ratingScreen() screen {
	buttons := make([]keyboards.Button, 0, 5)
	for n := 1; n <= 5; n++ {
		buttons = append(buttons, keyboards.Button{Text: fmt.Sprintf("%d ⭐", n), Data: fmt.Sprintf("%s%d", PRate, n)})
	}
	return screen{
		text:     "How would you <b>rate</b> your visit?",
		keyboard: keyboards.Markup(keyboards.Row(buttons...), keyboards.Row(btnBack, btnMain)),
	}
}

func reviewSummary(sess *Session) screen {
	r := sess.Review
	photo := "no"
	if r.Photo != nil {
		photo = "yes"
	}
	text := fmt.Sprintf("<b>Your review</b>\n\nName: %s\nPhone: %s\nRating: %s\nPhoto: %s\n\n%s",
		esc(r.Name), esc(r.Phone), sender.Stars(r.Rating), photo, esc(r.Text))
	return screen{
		text: text,
		keyboard: keyboards.Markup(
			keyboards.Row(keyboards.Button{Text: "📨 Submit review", Data: CbOk}),
			keyboards.Row(btnBack, btnMain),
		),
	}
}

func helpScreen() screen {
	text := "<b>Help</b>\n\n" +
		"1. Open <b>Services</b> and add what you like to the cart.\n" +
		"2. Tap <b>Book</b>, enter your name and phone, then pick a date and time.\n" +
		"3. After your visit, leave a <b>Review</b> with the same phone number.\n\n" +
		"Salon staff can sign in with <code>/login</code>."
	return screen{text: text, keyboard: keyboards.Markup(keyboards.Row(btnBack, btnMain))}
}

func adminMenu(ws *workspace.Workspace) screen {
	who := "admin"
	if u := ws.Session.User(); u != nil {
		who = u.Email
	}
	return screen{
		text: fmt.Sprintf("<b>Admin</b> · %s", esc(who)),
		keyboard: keyboards.Markup(
			keyboards.Row(
				keyboards.Button{Text: "📊 Dashboard", Data: CbDashboard},
				keyboards.Button{Text: "📅 Bookings", Data: CbBookings},
			),
			keyboards.Row(
				keyboards.Button{Text: "⭐ Reviews", Data: CbReviews},
				keyboards.Button{Text: "🎁 Offers", Data: CbOffers},
			),
			keyboards.Row(
				keyboards.Button{Text: "💇 Services", Data: CbAdminSvc},
				keyboards.Button{Text: "👥 Customers", Data: CbUsers},
			),
			keyboards.Row(keyboards.Button{Text: "🚪 Logout", Data: CbLogout}),
			keyboards.Row(btnMain),
		),
	}
}
