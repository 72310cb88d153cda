package logger

import (
	"log/slog"
	"time"
)

// Error returns an empty Attr for nil errors so callers need no nil check.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

func Latency(d time.Duration) slog.Attr {
	return slog.Duration("latency", d)
}
