package logger

import (
	"strings"
	"time"
)

// defaultKeyOrder fixes the leading columns of every line; remaining keys
// follow in lexical order.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"op",
	"cb_key",
	"action",
	"outcome",
	"duration_ms",
	"count",
	"query",
	"recipe_id",
	"shop_id",
	"radius_km",
	"days",
	"model",
	"locale",
	"mode",
	"listen",
	"http_code",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"kind",
	"retryable",
	"attempt",
	"attempts",
	"backoff_ms",
}

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var outcomes = map[string]bool{
	"ok":           true,
	"fail":         true,
	"cancelled":    true,
	"rate_limited": true,
	"degraded":     true,
}

func levelName(lvl string) string {
	if lvl == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(lvl)]; ok {
		return mapped
	}
	return strings.ToUpper(lvl)
}

// Status maps an error to the status value used in summaries.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Took returns the elapsed time since start rounded to milliseconds.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}
