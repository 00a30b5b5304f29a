package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOffsetAddsElapsedRealTime(t *testing.T) {
	setAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	base := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	real := Fixed(setAt.Add(90 * time.Minute))

	c := NewOffset(base, setAt, real)

	assert.Equal(t, time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC), c.Now())
	assert.Equal(t, base.Sub(setAt), c.Skew())
}

func TestOffsetUsesRealClockLocation(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	setAt := time.Date(2025, 6, 1, 8, 0, 0, 0, loc)
	base := time.Date(2025, 6, 2, 8, 0, 0, 0, loc)

	c := NewOffset(base, setAt, Fixed(setAt))

	now := c.Now()
	assert.Equal(t, loc, now.Location())
	assert.Equal(t, 8, now.Hour())
}

func TestFuncAdapter(t *testing.T) {
	instant := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var c Clock = Func(func() time.Time { return instant })
	assert.Equal(t, instant, c.Now())
}
