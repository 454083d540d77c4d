package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/repository"
	"flowcore/internal/status"
)

// =============================================================================
// Reservoir eviction and windowing tests
// =============================================================================

func TestInMemoryStatusRepository_EvictsOldestWhenFull(t *testing.T) {
	repo := repository.NewInMemoryStatusRepository(2)
	base := time.Now()

	require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "1"}, base))
	require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "2"}, base.Add(time.Minute)))
	require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "3"}, base.Add(2*time.Minute)))

	points, err := repo.GetGroupStatusHistory("g", base.Add(-time.Hour), base.Add(time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "2", points[0].Status.GroupID)
	assert.Equal(t, "3", points[1].Status.GroupID)
}

func TestInMemoryStatusRepository_WindowFiltersByTimeRange(t *testing.T) {
	repo := repository.NewInMemoryStatusRepository(10)
	base := time.Now()

	require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "old"}, base.Add(-time.Hour)))
	require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "recent"}, base))

	points, err := repo.GetProcessorStatusHistory("p", base.Add(-time.Minute), base.Add(time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "recent", points[0].Status.GroupID)
}

func TestInMemoryStatusRepository_MaxPointsTruncatesToMostRecent(t *testing.T) {
	repo := repository.NewInMemoryStatusRepository(10)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "g"}, base.Add(time.Duration(i)*time.Minute)))
	}

	points, err := repo.GetConnectionStatusHistory("c", base.Add(-time.Hour), base.Add(time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestInMemoryStatusRepository_DefaultCapacity(t *testing.T) {
	repo := repository.NewInMemoryStatusRepository(0)
	base := time.Now()
	for i := 0; i < repository.DefaultReservoirSize+10; i++ {
		require.NoError(t, repo.Capture(&status.ProcessGroupStatus{GroupID: "g"}, base.Add(time.Duration(i)*time.Second)))
	}
	points, err := repo.GetGroupStatusHistory("g", base.Add(-time.Hour), base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, points, repository.DefaultReservoirSize)
}
