package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	now := time.Now()
	insertExpiredAndFresh(t, db, "nse_holidays", "segment", now.Add(-time.Hour).Unix(), now.Add(time.Hour).Unix())
	insertExpiredAndFresh(t, db, "nse_indices", "feed", now.Add(-time.Hour).Unix(), now.Add(time.Hour).Unix())

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())
	job.SetRunID("run-1")
	require.NoError(t, job.Run())
	assert.Equal(t, "run-1", job.RunID())

	var remaining int
	require.NoError(t, db.QueryRow("SELECT (SELECT COUNT(*) FROM nse_holidays) + (SELECT COUNT(*) FROM nse_indices)").Scan(&remaining))
	assert.Equal(t, 2, remaining)
}

func TestCleanupJobRun_MissingTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.Exec("DROP TABLE nse_indices")
	require.NoError(t, err)

	job := NewCleanupJob(NewRepository(db), zerolog.Nop())
	assert.Error(t, job.Run())
}
