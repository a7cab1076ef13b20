// Package callbacks decodes telebot's inline button callback data.
package callbacks

import (
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ErrNoPayload is returned when a button that needs an argument carries none.
var ErrNoPayload = errors.New("callback: empty payload")

// Parse splits telebot's "\f<unique>|<payload>" encoding. Data without the
// form feed prefix is treated the same way, so plain "key|payload" works.
func Parse(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(key), payload
}

// Key returns the unique part of the current callback.
func Key(c tele.Context) string {
	k, _ := Parse(c.Callback())
	return k
}

// Payload returns the part after '|', possibly empty.
func Payload(c tele.Context) string {
	_, p := Parse(c.Callback())
	return p
}

// RequirePayload is Payload that fails on an empty value.
func RequirePayload(c tele.Context) (string, error) {
	p := strings.TrimSpace(Payload(c))
	if p == "" {
		return "", ErrNoPayload
	}
	return p, nil
}
