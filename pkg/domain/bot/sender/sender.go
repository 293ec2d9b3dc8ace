package sender

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/napryag/salon_bot/pkg/repository/model"
	"github.com/napryag/salon_bot/pkg/utils/errs"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Processor posts admin notifications to a channel.
type Processor struct {
	config  ProcessorConfig
	logger  zerolog.Logger
	limiter *rate.Limiter
	sleep   func(time.Duration)

	bot BotAPI
}

func New(config ProcessorConfig, logger zerolog.Logger, bot BotAPI) *Processor {
	limit := rate.Inf
	if config.RatePerSecond > 0 {
		limit = rate.Limit(config.RatePerSecond)
	}
	return &Processor{
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		sleep:   time.Sleep,
		bot:     bot,
	}
}

// Send delivers text with up to Attempts tries and exponential backoff.
func (p *Processor) Send(ctx context.Context, text string) (int, error) {
	p.logger.Trace().Msg("In")
	defer p.logger.Trace().Msg("Out")

	var msgToSend tgbotapi.MessageConfig
	if id, ok := p.config.chatID(); ok {
		msgToSend = tgbotapi.NewMessage(id, text)
	} else {
		msgToSend = tgbotapi.NewMessageToChannel(p.config.ChannelID, text)
	}
	msgToSend.ParseMode = tgbotapi.ModeHTML

	var err error
	var msg tgbotapi.Message

	for i := 0; i < p.config.attempts(); i++ {
		if i > 0 {
			// 2s, 4s, ... before each retry
			p.sleep(time.Duration(math.Pow(2, float64(i))) * time.Second)
		}
		if werr := p.limiter.Wait(ctx); werr != nil {
			return 0, errs.New("notification cancelled").Wrap(werr)
		}
		msg, err = p.bot.Send(msgToSend)
		if err == nil {
			return msg.MessageID, nil
		}
		p.logger.Warn().Err(err).Int("attempt", i+1).Msg("send failed")
	}
	p.logger.Error().Err(err).Msg("send permanently failed")

	return 0, errs.New("failed to send message").Wrap(err)
}

// NotifyBooking announces a customer booking to the admins.
func (p *Processor) NotifyBooking(ctx context.Context, b model.Booking) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>New booking %s</b>\n", escape(b.ConfirmationCode))
	fmt.Fprintf(&sb, "%s, %s\n", escape(b.Name), escape(b.PhoneNumber))
	fmt.Fprintf(&sb, "%s at %s\n", escape(b.Date), escape(b.Time))
	for _, it := range b.Services {
		fmt.Fprintf(&sb, "• %s (%s)\n", escape(it.ServiceName), Money(it.ServicePrice))
	}
	fmt.Fprintf(&sb, "Total: %s", Money(b.Total()))
	_, err := p.Send(ctx, sb.String())
	return err
}

// NotifyReview announces a review waiting for approval.
func (p *Processor) NotifyReview(ctx context.Context, r model.Review) error {
	text := fmt.Sprintf("<b>New review awaiting approval</b>\n%s, %s\n%s\n%s",
		escape(r.Name), escape(r.PhoneNumber), Stars(r.Rating), escape(r.Text))
	_, err := p.Send(ctx, text)
	return err
}

func Money(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("$%.0f", v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func Stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
