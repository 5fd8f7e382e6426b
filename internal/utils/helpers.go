package utils

import (
	"fmt"
	"time"
)

// UnixMilliTime converts a stored millisecond timestamp into a time in loc.
func UnixMilliTime(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc)
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", msg, err)
}

func WrapErrorf(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}

	return WrapError(err, fmt.Sprintf(msg, args...))
}
