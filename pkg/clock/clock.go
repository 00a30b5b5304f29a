package clock

import "time"

// Clock reports the instant projections are evaluated against.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now implements Clock.
func (f Func) Now() time.Time {
	return f()
}

// Real reads the wall clock in the configured location.
type Real struct {
	Location *time.Location
}

// NewReal returns a wall clock bound to loc (local time when nil).
func NewReal(loc *time.Location) Real {
	return Real{Location: loc}
}

// Now implements Clock.
func (r Real) Now() time.Time {
	now := time.Now()
	if r.Location != nil {
		return now.In(r.Location)
	}
	return now
}

// Offset replays time from a fixed base: the reported instant is Base plus
// however much real time has elapsed since SetAt.
type Offset struct {
	Base  time.Time
	SetAt time.Time
	Real  Clock
}

// NewOffset builds a debug clock over the given real clock.
func NewOffset(base, setAt time.Time, real Clock) Offset {
	return Offset{Base: base, SetAt: setAt, Real: real}
}

// Now implements Clock.
func (o Offset) Now() time.Time {
	realNow := o.Real.Now()
	return o.Base.Add(realNow.Sub(o.SetAt)).In(realNow.Location())
}

// Skew returns how far the clock runs ahead of the real clock.
func (o Offset) Skew() time.Duration {
	return o.Base.Sub(o.SetAt)
}

// Fixed always reports the same instant.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
