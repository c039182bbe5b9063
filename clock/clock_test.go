package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/credit-facility/clock"
)

func TestTest_AdvanceIsExact(t *testing.T) {
	anchor := clock.Date(2026, time.January, 1)
	tc := clock.NewTest(anchor)

	first := tc.Now()
	tc.Advance(72 * time.Hour)
	second := tc.Now()

	assert.Equal(t, 72*time.Hour, second.Sub(first))
	assert.Equal(t, clock.Date(2026, time.January, 4), second)
}

func TestTest_Set(t *testing.T) {
	tc := clock.NewTest(clock.Date(2026, time.January, 1))
	target := clock.Date(2026, time.June, 15)
	tc.Set(target)
	assert.True(t, tc.Now().Equal(target))
}

func TestTest_MonotonicNonDecreasing(t *testing.T) {
	tc := clock.NewTest(clock.Date(2026, time.January, 1))
	prev := tc.Now()
	for i := 0; i < 5; i++ {
		tc.Advance(time.Hour)
		next := tc.Now()
		require.True(t, next.AfterOrEqual(prev))
		prev = next
	}
}

func TestInstant_DaysUntil(t *testing.T) {
	a := clock.Date(2026, time.January, 1)
	b := clock.Date(2026, time.January, 31)
	assert.Equal(t, 30, a.DaysUntil(b))
	assert.Equal(t, -30, b.DaysUntil(a))
}

func TestInstant_AddMonths(t *testing.T) {
	// Mid-month anchors shift plainly.
	assert.Equal(t, clock.Date(2026, time.February, 15), clock.Date(2026, time.January, 15).AddMonths(1))
	// Month-end anchors clamp to the target month's last day instead of
	// normalizing into the month after (bare AddDate would turn Jan 31
	// into Mar 3).
	assert.Equal(t, clock.Date(2026, time.February, 28), clock.Date(2026, time.January, 31).AddMonths(1))
	assert.Equal(t, clock.Date(2028, time.February, 29), clock.Date(2028, time.January, 31).AddMonths(1))
	assert.Equal(t, clock.Date(2026, time.April, 30), clock.Date(2026, time.March, 31).AddMonths(1))
}

func TestSystem_ReturnsUTC(t *testing.T) {
	s := clock.System{}
	now := s.Now()
	assert.Equal(t, time.UTC, now.Time().Location())
}
