package receiver

import (
	"context"
	"io"
	"net/http"

	"github.com/napryag/salon_bot/pkg/utils/errs"
)

// Telegram serves photos up to 20 MB; review photos are far smaller.
const maxPhotoBytes = 10 << 20

// FileURLResolver turns a file id into a download link.
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// TelegramFiles downloads files that users sent to the bot.
type TelegramFiles struct {
	bot  FileURLResolver
	http *http.Client
}

func NewTelegramFiles(bot FileURLResolver, client *http.Client) *TelegramFiles {
	if client == nil {
		client = http.DefaultClient
	}
	return &TelegramFiles{bot: bot, http: client}
}

func (f *TelegramFiles) Download(ctx context.Context, fileID string) ([]byte, error) {
	link, err := f.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, errs.New("failed to resolve file").Arg("file_id", fileID).Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, errs.New("failed to build file request").Wrap(err)
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, errs.New("failed to download file").Arg("file_id", fileID).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New("unexpected file status").Arg("status", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, errs.New("failed to read file").Wrap(err)
	}
	if len(data) > maxPhotoBytes {
		return nil, errs.New("file too large").Arg("limit", maxPhotoBytes)
	}
	return data, nil
}
