package receiver

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/napryag/salon_bot/pkg/domain/bot/sender"
	"github.com/napryag/salon_bot/pkg/repository/model"
)

// Telegram rejects longer messages.
const maxMessageLen = 4096

const MaxReviewLen = 500

// previewLen caps free text of one list item so a page of items fits.
const previewLen = 200

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func esc(s string) string {
	return htmlEscaper.Replace(s)
}

func money(v float64) string {
	return sender.Money(v)
}

func price(p *float64) string {
	if p == nil {
		return "—"
	}
	return money(*p)
}

func title(c model.Category) string {
	switch c {
	case model.CategoryMen:
		return "Men"
	case model.CategoryWomen:
		return "Women"
	}
	return "All"
}

// HumanDate renders a DD-MM-YYYY date as "Mon 02 Jan".
func HumanDate(t time.Time) string {
	return t.Format("Mon 02 Jan")
}

// clip shortens s to n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}

var tagPattern = regexp.MustCompile(`</?(b|i|code)>`)

// truncate fits an HTML message into Telegram's limit. It prefers a blank
// line as the cut, never leaves half an entity or tag, and closes open tags.
func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	const more = "\n…"
	cut := maxMessageLen - len(more) - len("</code></i></b>")
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	head := s[:cut]
	if i := strings.LastIndex(head, "\n\n"); i > len(head)/2 {
		head = head[:i]
	}
	if i := strings.LastIndexAny(head, "&<"); i >= 0 && !strings.ContainsAny(head[i:], ";>") {
		head = head[:i]
	}
	return head + closeTags(head) + more
}

// closeTags returns the closing tags for whatever s leaves open.
func closeTags(s string) string {
	var open []string
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if strings.HasPrefix(m[0], "</") {
			if n := len(open); n > 0 && open[n-1] == m[1] {
				open = open[:n-1]
			}
			continue
		}
		open = append(open, m[1])
	}
	var sb strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString("</" + open[i] + ">")
	}
	return sb.String()
}

func withNotice(notice, text string) string {
	if notice == "" {
		return text
	}
	return fmt.Sprintf("<i>%s</i>\n\n%s", esc(notice), text)
}
