package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows(id string, status models.RequestStage) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "reference", "subject", "description", "request_type", "maintenance_for", "status", "priority",
		"equipment_id", "category", "maintenance_team_id", "assigned_to", "created_by",
		"request_date", "scheduled_date", "started_at", "completed_at", "duration_hours",
		"notes", "instructions", "created_at", "updated_at",
	}).AddRow(id, "MR/2026/00001", "Broken belt", nil, "corrective", "equipment", status, 2,
		nil, nil, nil, nil, "user-1",
		nil, nil, nil, nil, 0.0,
		nil, nil, now, now)
}

func TestRequestRepositoryCreateWritesHistory(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO maintenance_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	comment := "Request created"
	request := &models.MaintenanceRequest{
		Reference:   "MR/2026/00001",
		Subject:     "Broken belt",
		RequestType: models.TypeCorrective,
		Status:      models.StageNew,
		Priority:    2,
		CreatedBy:   "user-1",
	}
	history := &models.RequestHistory{ToStage: models.StageNew, Comment: &comment}
	require.NoError(t, repo.Create(context.Background(), request, history))
	require.NotEmpty(t, request.ID)
	require.Equal(t, request.ID, history.RequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reference, subject")).
		WithArgs("req-1").
		WillReturnRows(requestRows("req-1", models.StageNew))

	request, err := repo.FindByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "req-1", request.ID)
	require.Equal(t, models.StageNew, request.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListAppliesScope(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, reference, subject")).
		WithArgs("new", "team-1", "team-2").
		WillReturnRows(requestRows("req-1", models.StageNew))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("new", "team-1", "team-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	requests, total, err := repo.List(context.Background(), models.RequestFilter{
		Status:  models.StageNew,
		TeamIDs: []string{"team-1", "team-2"},
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplyTransition(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	fromStage := models.StageNew
	err := repo.ApplyTransition(context.Background(), TransitionParams{
		RequestID: "req-1",
		FromStage: models.StageNew,
		ToStage:   models.StageInProgress,
		History: &models.RequestHistory{
			FromStage: &fromStage,
			ToStage:   models.StageInProgress,
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplyTransitionConcurrentMove(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), TransitionParams{
		RequestID: "req-1",
		FromStage: models.StageNew,
		ToStage:   models.StageInProgress,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryApplyTransitionScrapSideEffect(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO request_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE equipment SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO equipment_scrap_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	fromStage := models.StageRepaired
	requestID := "req-1"
	err := repo.ApplyTransition(context.Background(), TransitionParams{
		RequestID: "req-1",
		FromStage: models.StageRepaired,
		ToStage:   models.StageScrap,
		History: &models.RequestHistory{
			FromStage: &fromStage,
			ToStage:   models.StageScrap,
		},
		ScrapEquipmentID: "eq-1",
		ScrapLog: &models.EquipmentScrapLog{
			EquipmentID: "eq-1",
			RequestID:   &requestID,
			Reason:      "Scrapped via maintenance request: Broken belt",
		},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE maintenance_requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.MaintenanceRequest{ID: "missing"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListHistory(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	rows := sqlmock.NewRows([]string{"id", "request_id", "from_stage", "to_stage", "changed_by", "comment", "duration_at_change", "changed_at"}).
		AddRow("hist-2", "req-1", "new", "in_progress", "tech-1", nil, 0.0, time.Now()).
		AddRow("hist-1", "req-1", nil, "new", "user-1", "Request created", 0.0, time.Now().Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, from_stage, to_stage")).
		WithArgs("req-1").
		WillReturnRows(rows)

	history, err := repo.ListHistory(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.StageInProgress, history[0].ToStage)
	require.Nil(t, history[1].FromStage)
	require.NoError(t, mock.ExpectationsWereMet())
}
