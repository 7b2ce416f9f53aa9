package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drawColumns = []string{"id", "issue", "draw_date", "front_numbers", "back_numbers", "created_at", "updated_at"}

func newMockDB(t *testing.T) (*MySQLDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewMySQLDBWithConn(db), mock
}

// TestGetDrawHistoryReturnsChronological tests that newest-first rows are reversed
func TestGetDrawHistoryReturnsChronological(t *testing.T) {
	store, mock := newMockDB(t)
	now := time.Now()

	rows := sqlmock.NewRows(drawColumns).
		AddRow(2, "24002", now, "03 09 17 22 30", "02 07", now, now).
		AddRow(1, "24001", now, "01 05 12 23 35", "03 11", now, now)
	mock.ExpectQuery("SELECT id, issue, draw_date").WithArgs(2).WillReturnRows(rows)

	history, err := store.GetDrawHistory(2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "24001", history[0].Issue)
	assert.Equal(t, []int{1, 5, 12, 23, 35}, history[0].Front)
	assert.Equal(t, []int{2, 7}, history[1].Back)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestGetDrawByIssueNotFound tests the nil, nil contract for missing rows
func TestGetDrawByIssueNotFound(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectQuery("SELECT id, issue, draw_date").WithArgs("24009").WillReturnRows(sqlmock.NewRows(drawColumns))

	record, err := store.GetDrawByIssue("24009")
	require.NoError(t, err)
	assert.Nil(t, record)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSaveDrawRecord tests that numbers are stored sorted and formatted
func TestSaveDrawRecord(t *testing.T) {
	store, mock := newMockDB(t)
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO draw_records").
		WithArgs("24001", date, "01 05 12 23 35", "03 11").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveDrawRecord(&DrawRecord{Issue: "24001", DrawDate: date, Front: []int{23, 1, 35, 5, 12}, Back: []int{11, 3}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSaveDrawRecordRejectsInvalid tests that invalid draws never reach the database
func TestSaveDrawRecordRejectsInvalid(t *testing.T) {
	store, mock := newMockDB(t)

	err := store.SaveDrawRecord(&DrawRecord{Issue: "24001", Front: []int{1, 2, 3}, Back: []int{1, 2}})
	assert.ErrorIs(t, err, ErrInvalidDraw)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestGetNextIssue tests next issue derivation
func TestGetNextIssue(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectQuery("SELECT issue FROM draw_records").WillReturnRows(sqlmock.NewRows([]string{"issue"}).AddRow("24150"))

	next, err := store.GetNextIssue()
	require.NoError(t, err)
	assert.Equal(t, "24151", next)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSavePredictionBatch tests the transactional insert
func TestSavePredictionBatch(t *testing.T) {
	store, mock := newMockDB(t)
	at := time.Now()
	batch := []PredictionRecord{
		{BatchID: "b1", TargetIssue: "24002", Mode: "single", Seq: 1, FrontNumbers: "01 02 03 04 05", BackNumbers: "01 02", PredictedAt: at},
		{BatchID: "b1", TargetIssue: "24002", Mode: "single", Seq: 2, FrontNumbers: "06 07 08 09 10", BackNumbers: "03 04", PredictedAt: at},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO predictions").WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("INSERT INTO predictions").WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	require.NoError(t, store.SavePredictionBatch(batch))
	assert.Equal(t, int64(10), batch[0].ID)
	assert.Equal(t, int64(11), batch[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestSavePredictionBatchRollsBack tests rollback on insert failure
func TestSavePredictionBatchRollsBack(t *testing.T) {
	store, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO predictions").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.SavePredictionBatch([]PredictionRecord{{BatchID: "b1", Seq: 1}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestGetPredictionStats tests win rate derivation
func TestGetPredictionStats(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"total_predictions", "verified_predictions", "winning_predictions", "total_prize"}).
			AddRow(20, 10, 2, 20))

	stats, err := store.GetPredictionStats()
	require.NoError(t, err)
	assert.Equal(t, 20, stats.TotalPredictions)
	assert.InDelta(t, 20.0, stats.WinRate, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestUpdatePredictionVerification tests the verification update
func TestUpdatePredictionVerification(t *testing.T) {
	store, mock := newMockDB(t)
	mock.ExpectExec("UPDATE predictions").
		WithArgs(3, 1, "九等奖", int64(5), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdatePredictionVerification(42, 3, 1, "九等奖", 5))
	require.NoError(t, mock.ExpectationsWereMet())
}
