package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dailit/dailit-server/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls int
	n     int
	err   error
}

func (s *stubRefresher) RefreshStatuses(ctx context.Context) (int, error) {
	s.calls++
	return s.n, s.err
}

func TestRefreshStatusesLogsCount(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger("info")
	logger.SetOutput(&buf)
	stub := &stubRefresher{n: 3}

	NewJobs(stub, logger).RefreshStatuses()

	assert.Equal(t, 1, stub.calls)
	assert.Contains(t, buf.String(), `"updated":3`)
}

func TestRefreshStatusesLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger("info")
	logger.SetOutput(&buf)

	NewJobs(&stubRefresher{err: errors.New("store down")}, logger).RefreshStatuses()

	assert.Contains(t, buf.String(), "store down")
	assert.Contains(t, buf.String(), `"funcName":"RefreshStatuses"`)
}

func TestSchedulerRegistersJob(t *testing.T) {
	logger := utils.NewTestLogger()
	s := NewScheduler(NewJobs(&stubRefresher{}, logger), logger, "0 * * * *")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 1, s.Entries())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	logger := utils.NewTestLogger()
	s := NewScheduler(NewJobs(&stubRefresher{}, logger), logger, "every day")

	assert.Error(t, s.Start())
}

func TestSchedulerEmptyScheduleDisablesJob(t *testing.T) {
	logger := utils.NewTestLogger()
	s := NewScheduler(NewJobs(&stubRefresher{}, logger), logger, "")

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Equal(t, 0, s.Entries())
}
