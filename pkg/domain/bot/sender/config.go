package sender

import (
	"strconv"

	"github.com/napryag/salon_bot/pkg/utils/errs"
)

// ProcessorConfig describes where admin notifications go.
type ProcessorConfig struct {
	// ChannelID is either a numeric chat id or an @channel username.
	ChannelID     string
	RatePerSecond float64
	Attempts      int
}

func (c ProcessorConfig) Validate() error {
	if c.ChannelID == "" {
		return errs.New("empty channel id")
	}
	if c.RatePerSecond < 0 {
		return errs.New("negative rate").Arg("rate", c.RatePerSecond)
	}
	return nil
}

func (c ProcessorConfig) attempts() int {
	if c.Attempts <= 0 {
		return 3
	}
	return c.Attempts
}

// chatID returns the numeric id when ChannelID is one.
func (c ProcessorConfig) chatID() (int64, bool) {
	id, err := strconv.ParseInt(c.ChannelID, 10, 64)
	return id, err == nil
}
