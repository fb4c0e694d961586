package api_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/payroll-engine/api"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) RefreshStatuses(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestStatusScheduler_RunsImmediatelyAndStops(t *testing.T) {
	// GIVEN: A scheduler whose interval is far longer than the test
	r := &countingRefresher{}
	s := api.NewStatusScheduler(r, nil)
	s.CheckInterval = time.Hour

	// WHEN: It is started and stopped
	s.Start()
	s.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	// THEN: Exactly the initial refresh ran
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestStatusScheduler_SurvivesFailures(t *testing.T) {
	r := &countingRefresher{err: errors.New("database locked")}
	s := api.NewStatusScheduler(r, nil)
	s.CheckInterval = 10 * time.Millisecond

	s.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestStatusScheduler_Disabled(t *testing.T) {
	r := &countingRefresher{}
	s := api.NewStatusScheduler(r, nil)
	s.Enabled = false

	s.Start()
	s.Stop()

	assert.Zero(t, r.calls.Load())
}
