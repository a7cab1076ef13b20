package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"telebot encoding", &tele.Callback{Data: "\frecipe|r_001"}, "recipe", "r_001"},
		{"no payload", &tele.Callback{Data: "\fsettings"}, "settings", ""},
		{"plain data", &tele.Callback{Data: "toggle|gout"}, "toggle", "gout"},
		{"payload keeps separators", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
		{"unique already split", &tele.Callback{Unique: "diary_add", Data: "r_002"}, "diary_add", "r_002"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := Parse(tc.cb)
			assert.Equal(t, tc.key, key)
			assert.Equal(t, tc.payload, payload)
		})
	}
}
