package timesync

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Stamp is a wall-clock timestamp in microseconds since the Unix epoch.
type Stamp int64

const microsPerSecond = 1_000_000

// ParseStamp parses a "<seconds>.<fraction>" timestamp as printed by
// strace --timestamps=unix,us. The fraction may have at most six digits.
// A missing fraction is accepted and treated as zero.
func ParseStamp(s string) (Stamp, error) {
	secStr, fracStr, hasFrac := strings.Cut(s, ".")
	if secStr == "" || !isDigits(secStr) {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	if hasFrac && (fracStr == "" || len(fracStr) > 6 || !isDigits(fracStr)) {
		return 0, fmt.Errorf("invalid timestamp fraction %q", s)
	}

	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	if sec > math.MaxInt64/microsPerSecond-1 {
		return 0, fmt.Errorf("timestamp %q out of range", s)
	}

	var micros int64
	if hasFrac {
		padded := fracStr + strings.Repeat("0", 6-len(fracStr))
		micros, err = strconv.ParseInt(padded, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp fraction %q: %w", s, err)
		}
	}

	return Stamp(sec*microsPerSecond + micros), nil
}

// FromTime converts a time.Time to a Stamp, truncating to microseconds.
func FromTime(t time.Time) Stamp {
	return Stamp(t.UnixMicro())
}

// Time returns the stamp as a time.Time in the local location.
func (s Stamp) Time() time.Time {
	return time.UnixMicro(int64(s))
}

// Seconds returns the stamp as fractional seconds.
func (s Stamp) Seconds() float64 {
	return float64(s) / microsPerSecond
}

// Sub returns the duration s-o.
func (s Stamp) Sub(o Stamp) time.Duration {
	return time.Duration(s-o) * time.Microsecond
}

// String formats the stamp the way strace prints it.
func (s Stamp) String() string {
	sign := ""
	v := int64(s)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%06d", sign, v/microsPerSecond, v%microsPerSecond)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
