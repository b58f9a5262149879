package timesync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Stamp
		wantErr bool
	}{
		{name: "strace unix us", input: "1700000000.123456", want: 1700000000123456},
		{name: "short fraction", input: "0.1", want: 100000},
		{name: "zero", input: "0.0", want: 0},
		{name: "no fraction", input: "42", want: 42 * microsPerSecond},
		{name: "empty", input: "", wantErr: true},
		{name: "trailing dot", input: "12.", wantErr: true},
		{name: "too precise", input: "1.1234567", wantErr: true},
		{name: "letters", input: "1a.5", wantErr: true},
		{name: "negative", input: "-1.5", wantErr: true},
		{name: "overflows micros", input: "99999999999999999.000000", wantErr: true},
		{name: "just past range", input: "9223372036854.775807", wantErr: true},
		{name: "int64 overflow", input: "99999999999999999999.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStamp_EqualTextEqualValue(t *testing.T) {
	// 0.1 + 0.2 style drift must not occur: the same text always yields the same stamp.
	a, err := ParseStamp("0.3")
	require.NoError(t, err)
	b, err := ParseStamp("0.300000")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStamp_String(t *testing.T) {
	assert.Equal(t, "1700000000.000042", Stamp(1700000000000042).String())
	assert.Equal(t, "0.100000", Stamp(100000).String())
	assert.Equal(t, "-0.000001", Stamp(-1).String())
}

func TestStamp_SubAndTime(t *testing.T) {
	start := Stamp(1_000_000)
	end := Stamp(3_500_000)

	assert.Equal(t, 2500*time.Millisecond, end.Sub(start))
	assert.True(t, start.Time().Equal(time.Unix(1, 0)))
	assert.Equal(t, start, FromTime(time.Unix(1, 0)))
	assert.InDelta(t, 3.5, end.Seconds(), 1e-9)
}

func TestConverter(t *testing.T) {
	c := NewConverter(Stamp(5_000_000))

	assert.Equal(t, Stamp(5_000_000), c.Origin())
	assert.Equal(t, 250*time.Millisecond, c.Offset(Stamp(5_250_000)))
	assert.Equal(t, int64(250_000), c.OffsetMicros(Stamp(5_250_000)))
	assert.True(t, c.WallClock(Stamp(5_000_000)).Equal(time.Unix(5, 0)))
}
