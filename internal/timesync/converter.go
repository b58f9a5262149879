package timesync

import "time"

// Converter maps stamps onto a session timeline anchored at an origin,
// usually the earliest timestamp observed in the trace.
type Converter struct {
	origin Stamp
}

// NewConverter creates a converter anchored at origin.
func NewConverter(origin Stamp) *Converter {
	return &Converter{origin: origin}
}

// Offset returns the time elapsed between the origin and s.
func (c *Converter) Offset(s Stamp) time.Duration {
	return s.Sub(c.origin)
}

// OffsetMicros returns the offset from the origin in whole microseconds.
func (c *Converter) OffsetMicros(s Stamp) int64 {
	return int64(s - c.origin)
}

// WallClock returns the absolute wall-clock time of s.
func (c *Converter) WallClock(s Stamp) time.Time {
	return s.Time()
}

// Origin returns the stamp used as the zero point.
func (c *Converter) Origin() Stamp {
	return c.origin
}
