package receiver

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/domain/bot/receiver/keyboards"
	"github.com/napryag/salon_bot/pkg/domain/calendar"
	"github.com/napryag/salon_bot/pkg/domain/query"
	"github.com/napryag/salon_bot/pkg/repository/model"
	"github.com/napryag/salon_bot/pkg/utils/errs"
)

var btnKeep = keyboards.Button{Text: "Keep current ➡️", Data: CbKeep}

func startServiceForm(sess *Session, svc model.Service) {
	if svc.Category == "" {
		svc.Category = model.CategoryMen
	}
	sess.ServiceDraft = svc
	sess.Go(StateServiceName)
}

func startOfferForm(sess *Session, o model.Offer) {
	if o.Status == "" {
		o.Status = model.OfferActive
	}
	sess.OfferDraft = o
	sess.Go(StateOfferName)
}

// nextFormStep is the step after s in the admin forms.
func nextFormStep(s State) State {
	switch s {
	case StateServiceName:
		return StateServiceDesc
	case StateServiceDesc:
		return StateServicePrice
	case StateServicePrice:
		return StateServiceCategory
	case StateServiceCategory:
		return StateServiceType
	case StateServiceType:
		return StateServiceConfirm
	case StateOfferName:
		return StateOfferStart
	case StateOfferStart:
		return StateOfferEnd
	case StateOfferEnd:
		return StateOfferLimit
	case StateOfferLimit:
		return StateOfferConfirm
	}
	return s
}

// draftValue is what the draft holds for the current form step.
func draftValue(sess *Session) string {
	d, o := sess.ServiceDraft, sess.OfferDraft
	switch sess.State {
	case StateServiceName:
		return d.Name
	case StateServiceDesc:
		return d.Description
	case StateServicePrice:
		if d.Price != nil {
			return money(d.PriceOrZero())
		}
	case StateServiceCategory:
		return string(d.Category)
	case StateServiceType:
		return d.ServiceType
	case StateOfferName:
		return o.Name
	case StateOfferStart:
		return o.StartDate
	case StateOfferEnd:
		return o.EndDate
	case StateOfferLimit:
		if o.ID != "" {
			return strconv.Itoa(o.UsageLimit)
		}
	}
	return ""
}

func keepDraftValue(sess *Session) {
	if draftValue(sess) == "" {
		sess.Notice = "There is nothing to keep. Please enter a value."
		return
	}
	sess.Go(nextFormStep(sess.State))
}

// takeFormInput fills the admin form step waiting for text.
func (h *Handler) takeFormInput(sess *Session, text string) {
	switch sess.State {
	case StateBookingSearch:
		sess.BookingSearch = text
		sess.Back()
		return
	case StateServiceName:
		sess.ServiceDraft.Name = text
	case StateServiceDesc:
		sess.ServiceDraft.Description = text
	case StateServicePrice:
		p, err := parsePrice(text)
		if err != nil {
			sess.Notice = "Please enter a price such as 45 or 12.50."
			return
		}
		sess.ServiceDraft.Price = &p
	case StateServiceType:
		sess.ServiceDraft.ServiceType = text
	case StateOfferName:
		sess.OfferDraft.Name = text
	case StateOfferStart:
		if _, err := calendar.ParseDate(text, h.loc); err != nil {
			sess.Notice = "Please enter the date as DD-MM-YYYY."
			return
		}
		sess.OfferDraft.StartDate = text
	case StateOfferEnd:
		if _, err := calendar.ParseDate(text, h.loc); err != nil {
			sess.Notice = "Please enter the date as DD-MM-YYYY."
			return
		}
		o := sess.OfferDraft
		o.EndDate = text
		if !h.offerDatesOK(o) {
			sess.Notice = msgOfferDates
			return
		}
		sess.OfferDraft = o
	case StateOfferLimit:
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			sess.Notice = "Please enter a whole number, 0 for no limit."
			return
		}
		sess.OfferDraft.UsageLimit = n
	default:
		return
	}
	sess.Go(nextFormStep(sess.State))
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "$"), 64)
	if err != nil {
		return 0, errs.New("failed to parse price").Arg("price", s).Wrap(err)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errs.Newf("price %q out of range", s)
	}
	return v, nil
}

const msgOfferDates = "The end date must not be before the start date."

func (h *Handler) offerDatesOK(o model.Offer) bool {
	start, err := calendar.ParseDate(o.StartDate, h.loc)
	if err != nil {
		return false
	}
	end, err := calendar.ParseDate(o.EndDate, h.loc)
	return err == nil && !end.Before(start)
}

// reopen puts the chat on an admin list with Back leading to the admin menu.
func reopen(sess *Session, list State) {
	sess.Jump(StateAdmin)
	sess.Go(list)
}

func (h *Handler) saveService(ctx context.Context, sess *Session, hk *hooks) {
	draft := sess.ServiceDraft
	var saved model.Service
	var err error
	if draft.ID == "" {
		saved, err = hk.serviceMut.Create.Call(ctx, draft)
	} else {
		saved, err = hk.serviceMut.Update.Call(ctx, query.Update[model.Service]{ID: draft.ID, Body: draft})
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("service", draft.Name).Msg("save service failed")
		failNotice(sess, err, "Failed to save service")
		return
	}
	if saved.Name == "" {
		saved = draft
	}

	list := hk.adminServices.State().Data
	if draft.ID == "" {
		hk.adminServices.SetData(append(append([]model.Service(nil), list...), saved))
	} else {
		hk.adminServices.SetData(replace(list, saved, func(s model.Service) bool { return s.ID == draft.ID }))
	}
	sess.ServiceDraft = model.Service{}
	reopen(sess, StateAdminServices)
	sess.Notice = fmt.Sprintf("Service %s saved.", saved.Name)
}

func (h *Handler) saveOffer(ctx context.Context, sess *Session, hk *hooks) {
	draft := sess.OfferDraft
	if !h.offerDatesOK(draft) {
		sess.Notice = msgOfferDates
		return
	}
	var saved model.Offer
	var err error
	if draft.ID == "" {
		saved, err = hk.offerMut.Create.Call(ctx, draft)
	} else {
		saved, err = hk.offerMut.Update.Call(ctx, query.Update[model.Offer]{ID: draft.ID, Body: draft})
	}
	if err != nil {
		h.logger.Warn().Err(err).Str("offer", draft.Name).Msg("save offer failed")
		failNotice(sess, err, "Failed to save offer")
		return
	}
	if saved.Name == "" {
		saved = draft
	}

	list := hk.offers.State().Data
	if draft.ID == "" {
		hk.offers.SetData(append(append([]model.Offer(nil), list...), saved))
	} else {
		hk.offers.SetData(replace(list, saved, func(o model.Offer) bool { return o.ID == draft.ID }))
	}
	sess.OfferDraft = model.Offer{}
	reopen(sess, StateAdminOffers)
	sess.Notice = fmt.Sprintf("Offer %s saved.", saved.Name)
}

// formPrompt asks for one value, offering to keep what the draft holds.
func formPrompt(sess *Session, heading, ask string) screen {
	text := heading + "\n\n" + ask
	var rows [][]tgbotapi.InlineKeyboardButton
	if cur := draftValue(sess); cur != "" {
		text += fmt.Sprintf("\n\nCurrent: <code>%s</code>", esc(clip(cur, previewLen)))
		rows = append(rows, keyboards.Row(btnKeep))
	}
	rows = append(rows, keyboards.Row(btnBack, btnAdmin))
	return screen{text: text, keyboard: keyboards.Markup(rows...)}
}

func serviceFormScreen(sess *Session) screen {
	d := sess.ServiceDraft
	heading := "<b>New service</b>"
	if d.ID != "" {
		heading = "<b>Edit service</b>"
	}
	switch sess.State {
	case StateServiceName:
		return formPrompt(sess, heading, "Enter the service <b>name</b>:")
	case StateServiceDesc:
		return formPrompt(sess, heading, "Enter the <b>description</b>:")
	case StateServicePrice:
		return formPrompt(sess, heading, "Enter the <b>price</b> in dollars:")
	case StateServiceCategory:
		scr := formPrompt(sess, heading, "Pick the <b>category</b>:")
		cats := keyboards.Row(
			keyboards.Button{Text: "Men", Data: PSCat + string(model.CategoryMen)},
			keyboards.Button{Text: "Women", Data: PSCat + string(model.CategoryWomen)},
		)
		scr.keyboard.InlineKeyboard = append([][]tgbotapi.InlineKeyboardButton{cats}, scr.keyboard.InlineKeyboard...)
		return scr
	case StateServiceType:
		return formPrompt(sess, heading, "Enter the <b>service type</b>, e.g. Hair, Beard or Facial:")
	}

	var sb strings.Builder
	sb.WriteString(heading + "\n\n")
	fmt.Fprintf(&sb, "Name: %s\nDescription: %s\nPrice: %s\nCategory: %s\nType: %s",
		esc(d.Name), esc(clip(d.Description, previewLen)), price(d.Price), title(d.Category), esc(d.ServiceType))
	return screen{
		text: sb.String(),
		keyboard: keyboards.Markup(
			keyboards.Row(keyboards.Button{Text: "✅ Save service", Data: CbOk}),
			keyboards.Row(btnBack, btnAdmin),
		),
	}
}

func offerFormScreen(sess *Session) screen {
	o := sess.OfferDraft
	heading := "<b>New offer</b>"
	if o.ID != "" {
		heading = "<b>Edit offer</b>"
	}
	switch sess.State {
	case StateOfferName:
		return formPrompt(sess, heading, "Enter the offer <b>name</b>:")
	case StateOfferStart:
		return formPrompt(sess, heading, "Enter the <b>start date</b> (DD-MM-YYYY):")
	case StateOfferEnd:
		return formPrompt(sess, heading, "Enter the <b>end date</b> (DD-MM-YYYY):")
	case StateOfferLimit:
		return formPrompt(sess, heading, "Enter the <b>usage limit</b>, 0 for none:")
	}

	limit := "none"
	if o.UsageLimit > 0 {
		limit = strconv.Itoa(o.UsageLimit)
	}
	text := fmt.Sprintf("%s\n\nName: %s\nFrom %s to %s\nUsage limit: %s\nStatus: %s",
		heading, esc(o.Name), esc(o.StartDate), esc(o.EndDate), limit, esc(string(o.Status)))
	return screen{
		text: text,
		keyboard: keyboards.Markup(
			keyboards.Row(keyboards.Button{Text: "✅ Save offer", Data: CbOk}),
			keyboards.Row(btnBack, btnAdmin),
		),
	}
}
