package receiver

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/api"
	"github.com/napryag/salon_bot/pkg/domain/calendar"
	"github.com/napryag/salon_bot/pkg/domain/cart"
	"github.com/napryag/salon_bot/pkg/domain/workspace"
	"github.com/napryag/salon_bot/pkg/repository/model"
	"github.com/rs/zerolog"
)

// BotAPI is the part of *tgbotapi.BotAPI the handler uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier tells the admins about new customer activity.
type Notifier interface {
	NotifyBooking(ctx context.Context, b model.Booking) error
	NotifyReview(ctx context.Context, r model.Review) error
}

// FileDownloader fetches a Telegram file by id.
type FileDownloader interface {
	Download(ctx context.Context, fileID string) ([]byte, error)
}

type Deps struct {
	Bot      BotAPI
	Registry *workspace.Registry
	Notifier Notifier
	Files    FileDownloader
	Logger   zerolog.Logger
	Location *time.Location
	Now      func() time.Time
	PageSize int
}

type Handler struct {
	bot      BotAPI
	store    *Store
	registry *workspace.Registry
	notifier Notifier
	files    FileDownloader
	logger   zerolog.Logger
	loc      *time.Location
	now      func() time.Time
	pageSize int

	mu      sync.Mutex
	screens map[int64]*hooks

	// background notifications, waited for in tests
	wg sync.WaitGroup
}

func NewHandler(d Deps) *Handler {
	h := &Handler{
		bot:      d.Bot,
		store:    NewStore(),
		registry: d.Registry,
		notifier: d.Notifier,
		files:    d.Files,
		logger:   d.Logger,
		loc:      d.Location,
		now:      d.Now,
		pageSize: d.PageSize,
		screens:  make(map[int64]*hooks),
	}
	if h.loc == nil {
		h.loc = time.Local
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.pageSize <= 0 {
		h.pageSize = 10
	}
	h.registry.OnUnauthorized(h.redirectToLogin)
	return h
}

// Session exposes the dialog state of a chat.
func (h *Handler) Session(chatID int64) *Session {
	return h.store.Get(chatID)
}

// Wait blocks until background notifications finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) today() time.Time {
	return h.now().In(h.loc)
}

func (h *Handler) chatHooks(chatID int64, ws *workspace.Workspace) *hooks {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hk, ok := h.screens[chatID]; ok {
		return hk
	}
	hk := newHooks(ws.API)
	h.screens[chatID] = hk
	return hk
}

// dropHooks forgets cached screen data, e.g. admin lists after logout.
func (h *Handler) dropHooks(chatID int64) {
	h.mu.Lock()
	hk, ok := h.screens[chatID]
	delete(h.screens, chatID)
	h.mu.Unlock()
	if ok {
		hk.close()
	}
}

// redirectToLogin runs when the backend answers 401 for this chat.
func (h *Handler) redirectToLogin(_ context.Context, chatID int64) {
	sess := h.store.Get(chatID)
	sess.Jump(StateLogin)
	sess.Notice = "Your session has expired. Please log in again."
	h.logger.Info().Int64("chat_id", chatID).Msg("redirected to login")
}

// HandleUpdate dispatches one Telegram update.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	sess := h.store.Get(chatID)
	ws := h.registry.Get(ctx, chatID)

	if m.IsCommand() {
		h.handleCommand(ctx, m, sess, ws)
		return
	}

	if sess.State == StateReviewPhoto && len(m.Photo) > 0 {
		h.takePhoto(ctx, m, sess)
		h.sendScreen(ctx, chatID, sess, ws)
		return
	}

	if sess.State.TextInput() && strings.TrimSpace(m.Text) != "" {
		h.takeInput(sess, m.Text)
		h.sendScreen(ctx, chatID, sess, ws)
		return
	}

	// Anything else: delete it and remind about the buttons.
	_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, m.MessageID))

	remind := tgbotapi.NewMessage(chatID, "Please use the buttons 👆")
	sent, err := h.bot.Send(remind)
	if err != nil {
		h.logger.Warn().Err(err).Msg("send reminder failed")
		return
	}
	go func(chatID int64, mid int) {
		time.Sleep(5 * time.Second)
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, mid))
	}(chatID, sent.MessageID)
}

func (h *Handler) handleCommand(ctx context.Context, m *tgbotapi.Message, sess *Session, ws *workspace.Workspace) {
	chatID := m.Chat.ID
	switch m.Command() {
	case "start":
		sess.ResetFlow()
		if _, err := h.bot.Request(tgbotapi.NewDeleteMessage(chatID, m.MessageID)); err != nil {
			h.logger.Debug().Err(err).Msg("delete /start failed")
		}
		name := ""
		if m.From != nil {
			name = m.From.FirstName
		}
		sess.Notice = "Hello " + name + "! Book salon services, manage your cart and leave reviews here."
	case "login":
		// The message holds a password: never leave it in the chat.
		_, _ = h.bot.Request(tgbotapi.NewDeleteMessage(chatID, m.MessageID))
		fields := strings.Fields(m.CommandArguments())
		if len(fields) != 2 {
			sess.Jump(StateLogin)
			sess.Notice = "Usage: /login <email> <password>"
			break
		}
		res := ws.Session.Login(ctx, fields[0], fields[1])
		if res.Success {
			sess.Jump(StateAdmin)
			sess.Notice = "Logged in as " + fields[0]
		} else {
			sess.Jump(StateLogin)
			sess.Notice = res.Error
		}
	case "logout":
		ws.Session.Logout(ctx)
		h.dropHooks(chatID)
		sess.ResetFlow()
		sess.Notice = "Logged out."
	case "admin":
		sess.Jump(StateAdmin)
	case "dashboard":
		sess.Jump(StateAdminDashboard)
	case "bookings":
		sess.BookingFilter = bookingFilter(m.CommandArguments())
		sess.Jump(StateAdminBookings)
	case "reviews":
		sess.ReviewPage = max(atoi(strings.TrimSpace(m.CommandArguments()))-1, 0)
		sess.Jump(StateAdminReviews)
	case "offers":
		sess.Jump(StateAdminOffers)
	case "users":
		sess.Jump(StateAdminUsers)
	case "cart":
		sess.Jump(StateCart)
	case "services":
		sess.Jump(StateServices)
	case "review":
		sess.Review = ReviewForm{}
		sess.Jump(StateReviewName)
	case "help":
		sess.Jump(StateHelp)
	default:
		sess.Notice = "Unknown command."
	}
	h.refresh(ws)
	h.sendScreen(ctx, chatID, sess, ws)
}

func bookingFilter(arg string) string {
	switch f := strings.ToLower(strings.TrimSpace(arg)); f {
	case "today", "upcoming", "completed":
		return f
	}
	return ""
}

func (h *Handler) takeInput(sess *Session, raw string) {
	text := strings.TrimSpace(raw)
	switch sess.State {
	case StateBookName:
		sess.Booking.Name = text
		sess.Go(StateBookPhone)
	case StateBookPhone:
		if !validPhone(text) {
			sess.Notice = "Please enter a valid phone number."
			return
		}
		sess.Booking.Phone = text
		sess.DatePage = 0
		sess.Go(StateBookDate)
	case StateReviewName:
		sess.Review.Name = text
		sess.Go(StateReviewPhone)
	case StateReviewPhone:
		if !validPhone(text) {
			sess.Notice = "Please enter a valid phone number."
			return
		}
		sess.Review.Phone = text
		sess.Go(StateReviewRating)
	case StateReviewText:
		if n := len([]rune(text)); n > MaxReviewLen {
			sess.Notice = "Your review is too long. Please keep it under 500 characters."
			return
		}
		sess.Review.Text = text
		sess.Go(StateReviewPhoto)
	default:
		h.takeFormInput(sess, text)
	}
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 7 && digits <= 15
}

func (h *Handler) takePhoto(ctx context.Context, m *tgbotapi.Message, sess *Session) {
	if h.files == nil {
		sess.Notice = "Photos are not supported right now. Tap Skip to continue."
		return
	}
	largest := m.Photo[len(m.Photo)-1]
	data, err := h.files.Download(ctx, largest.FileID)
	if err != nil {
		h.logger.Warn().Err(err).Msg("download review photo failed")
		sess.Notice = "Could not read that photo. Try again or tap Skip."
		return
	}
	sess.Review.Photo = &api.Photo{Filename: largest.FileUniqueID + ".jpg", Data: data}
	sess.Go(StateReviewConfirm)
}

func (h *Handler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		_, _ = h.bot.Request(tgbotapi.NewCallback(cq.ID, ""))
		return
	}
	chatID := cq.Message.Chat.ID
	sess := h.store.Get(chatID)
	ws := h.registry.Get(ctx, chatID)
	hk := h.chatHooks(chatID, ws)
	data := cq.Data

	switch {
	case data == CbStart || data == CbMain:
		sess.ResetFlow()
	case data == CbServices:
		sess.Go(StateServices)
		hk.fresh = true
	case data == CbCart:
		sess.Go(StateCart)
	case data == CbClear:
		if err := ws.Cart.Clear(ctx); err != nil {
			h.logger.Error().Err(err).Msg("clear cart failed")
			sess.Notice = "Could not clear the cart. Please try again."
		}
	case data == CbBook:
		if ws.Cart.Count() == 0 {
			sess.Notice = "Your cart is empty. Add a service first."
			sess.Go(StateServices)
			break
		}
		sess.Go(StateBookName)
	case data == CbReview:
		sess.Review = ReviewForm{}
		sess.Go(StateReviewName)
	case data == CbHelp:
		sess.Go(StateHelp)
	case data == CbBack:
		sess.Back()
	case data == CbSkip:
		if sess.State == StateReviewPhoto {
			sess.Review.Photo = nil
			sess.Go(StateReviewConfirm)
		}
	case data == CbOk:
		h.confirm(ctx, sess, ws, hk)

	case data == CbAdmin:
		sess.Go(StateAdmin)
	case data == CbDashboard:
		sess.Go(StateAdminDashboard)
		hk.fresh = true
	case data == CbBookings:
		sess.Go(StateAdminBookings)
		hk.fresh = true
	case data == CbReviews:
		sess.Go(StateAdminReviews)
		hk.fresh = true
	case data == CbOffers:
		sess.Go(StateAdminOffers)
		hk.fresh = true
	case data == CbUsers:
		sess.Go(StateAdminUsers)
		hk.fresh = true
	case data == CbLogout:
		ws.Session.Logout(ctx)
		h.dropHooks(chatID)
		sess.ResetFlow()
		sess.Notice = "Logged out."

	case strings.HasPrefix(data, PCat):
		val, _ := Is(data, PCat)
		if val == "all" {
			val = ""
		}
		sess.Category = val
	case strings.HasPrefix(data, PAdd):
		val, _ := Is(data, PAdd)
		h.addToCart(ctx, sess, ws, hk, val)
	case strings.HasPrefix(data, PRm):
		val, _ := Is(data, PRm)
		if err := ws.Cart.Remove(ctx, val); err != nil {
			h.logger.Error().Err(err).Msg("remove from cart failed")
			sess.Notice = "Could not update the cart. Please try again."
		}
	case strings.HasPrefix(data, PDPage):
		val, _ := Is(data, PDPage)
		sess.DatePage = atoi(val)
	case strings.HasPrefix(data, PD):
		val, _ := Is(data, PD)
		sess.Booking.Date = val
		sess.Go(StateBookTime)
	case strings.HasPrefix(data, PT):
		val, _ := Is(data, PT)
		sess.Booking.Time = val
		sess.Go(StateBookConfirm)
	case strings.HasPrefix(data, PRate):
		val, _ := Is(data, PRate)
		if n := atoi(val); n >= 1 && n <= 5 {
			sess.Review.Rating = n
			sess.Go(StateReviewText)
		}

	default:
		h.handleAdminCallback(ctx, data, sess, ws, hk)
	}

	h.editScreen(ctx, cq.Message.Chat.ID, cq.Message.MessageID, sess, ws)
	_, _ = h.bot.Request(tgbotapi.NewCallback(cq.ID, ""))
}

func (h *Handler) addToCart(ctx context.Context, sess *Session, ws *workspace.Workspace, hk *hooks, id string) {
	// Buttons outlive the cache: after a restart the list loads on first tap.
	st := load(ctx, hk.services, none{}, false)
	svc, ok := find(st.Data, func(s model.Service) bool { return s.ID == id })
	if !ok {
		sess.Notice = "That service is no longer available."
		return
	}
	switch err := ws.Cart.Add(ctx, svc); {
	case err == nil:
		sess.Notice = svc.Name + " added to your cart."
	case errors.Is(err, cart.ErrAlreadyInCart):
		sess.Notice = cart.NoticeAlreadyInCart
	default:
		h.logger.Error().Err(err).Msg("add to cart failed")
		sess.Notice = "Could not update the cart. Please try again."
	}
}

func (h *Handler) confirm(ctx context.Context, sess *Session, ws *workspace.Workspace, hk *hooks) {
	if sess.State.AdminOnly() && !ws.Session.Authenticated() {
		return
	}
	switch sess.State {
	case StateBookConfirm:
		h.submitBooking(ctx, sess, ws, hk)
	case StateReviewConfirm:
		h.submitReview(ctx, sess, hk)
	case StateServiceConfirm:
		h.saveService(ctx, sess, hk)
	case StateOfferConfirm:
		h.saveOffer(ctx, sess, hk)
	}
}

func (h *Handler) submitBooking(ctx context.Context, sess *Session, ws *workspace.Workspace, hk *hooks) {
	items := ws.Cart.LineItems()
	if len(items) == 0 {
		sess.Notice = "Your cart is empty. Add a service first."
		sess.Jump(StateServices)
		return
	}
	b := model.Booking{
		Name:             sess.Booking.Name,
		PhoneNumber:      sess.Booking.Phone,
		Services:         items,
		Date:             sess.Booking.Date,
		Time:             sess.Booking.Time,
		ConfirmationCode: calendar.ConfirmationCode(h.now()),
	}
	created, err := hk.bookingMut.BookAppointment.Call(ctx, b)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return
		}
		h.logger.Warn().Err(err).Msg("book appointment failed")
		sess.Notice = "Failed to book appointment. Please try again."
		return
	}
	if created.ConfirmationCode == "" {
		created = b
	}
	if err := ws.Cart.Clear(ctx); err != nil {
		h.logger.Error().Err(err).Msg("clear cart after booking failed")
	}
	sess.ResetFlow()
	sess.Notice = "Booking Confirmed! Your code is " + created.ConfirmationCode +
		". Your appointment has been successfully booked."

	h.notify(ctx, func(ctx context.Context) error { return h.notifier.NotifyBooking(ctx, created) })
}

const (
	msgBookFirst = "Hey buddy! Please take our awesome services first before leaving a review. " +
		"Book an appointment and experience our amazing salon services!"
	msgReviewExists  = "You have already submitted a review with this phone number. Thank you for your feedback!"
	msgReviewFailed  = "Failed to submit review. Please try again."
	msgReviewSuccess = "Review Submitted! Thank you for your review! It will be published after admin approval."
)

func (h *Handler) submitReview(ctx context.Context, sess *Session, hk *hooks) {
	f := sess.Review
	sub := api.ReviewSubmission{
		Name:        f.Name,
		PhoneNumber: f.Phone,
		Review:      f.Text,
		Rating:      f.Rating,
		Photo:       f.Photo,
	}
	created, err := hk.reviewMut.Submit.Call(ctx, sub)
	if err != nil {
		sess.Notice = ReviewErrorMessage(err)
		h.logger.Info().Err(err).Str("code", api.CodeOf(err)).Msg("review rejected")
		return
	}
	if created.Name == "" {
		created = model.Review{Name: f.Name, PhoneNumber: f.Phone, Text: f.Text, Rating: f.Rating}
	}
	sess.ResetFlow()
	sess.Notice = msgReviewSuccess

	h.notify(ctx, func(ctx context.Context) error { return h.notifier.NotifyReview(ctx, created) })
}

// ReviewErrorMessage maps a failed review submission to what the customer sees.
func ReviewErrorMessage(err error) string {
	switch api.CodeOf(err) {
	case api.CodeCustomerNotFound:
		return msgBookFirst
	case api.CodeReviewExists:
		return msgReviewExists
	}
	return api.MessageOf(err, msgReviewFailed)
}

func (h *Handler) notify(ctx context.Context, fn func(context.Context) error) {
	if h.notifier == nil {
		return
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := fn(context.WithoutCancel(ctx)); err != nil {
			h.logger.Warn().Err(err).Msg("admin notification failed")
		}
	}()
}

// refresh marks the chat's data stale so the next render refetches.
func (h *Handler) refresh(ws *workspace.Workspace) {
	hk := h.chatHooks(ws.ChatID, ws)
	hk.fresh = true
}

func (h *Handler) sendScreen(ctx context.Context, chatID int64, sess *Session, ws *workspace.Workspace) {
	scr := h.render(ctx, sess, ws)
	msg := tgbotapi.NewMessage(chatID, scr.text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = scr.keyboard
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send screen failed")
	}
}

func (h *Handler) editScreen(ctx context.Context, chatID int64, messageID int, sess *Session, ws *workspace.Workspace) {
	scr := h.render(ctx, sess, ws)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, scr.text, scr.keyboard)
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(edit); err != nil && !strings.Contains(err.Error(), "message is not modified") {
		h.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("edit screen failed")
	}
}
