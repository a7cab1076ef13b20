package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dietbot/core/config"
)

const defaultLongPollTimeout = 10 * time.Second

// BuildPoller returns a webhook poller in webhook mode and a long poller
// otherwise.
func BuildPoller(tc config.TelegramConfig, wc config.WebhookConfig) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(tc.RunMode), config.RunModeWebhook) {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(wc.Listen, strconv.Itoa(wc.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: wc.URL},
		}
	}
	timeout := defaultLongPollTimeout
	if tc.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(tc.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}
}
