package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/repository"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type requestRepoStub struct {
	requests    map[string]*models.MaintenanceRequest
	history     map[string][]models.RequestHistory
	transitions []repository.TransitionParams
	listFilter  models.RequestFilter
	applyErr    error
}

func newRequestRepoStub() *requestRepoStub {
	return &requestRepoStub{
		requests: make(map[string]*models.MaintenanceRequest),
		history:  make(map[string][]models.RequestHistory),
	}
}

func (r *requestRepoStub) Create(ctx context.Context, request *models.MaintenanceRequest, history *models.RequestHistory) error {
	if request.ID == "" {
		request.ID = "req-" + request.Reference
	}
	r.requests[request.ID] = request
	history.RequestID = request.ID
	r.history[request.ID] = append(r.history[request.ID], *history)
	return nil
}

func (r *requestRepoStub) FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	if req, ok := r.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error) {
	r.listFilter = filter
	result := make([]models.MaintenanceRequest, 0, len(r.requests))
	for _, req := range r.requests {
		result = append(result, *req)
	}
	return result, len(result), nil
}

func (r *requestRepoStub) ListByStage(ctx context.Context, stage models.RequestStage, teamIDs []string) ([]models.MaintenanceRequest, error) {
	var result []models.MaintenanceRequest
	for _, req := range r.requests {
		if req.Status != stage {
			continue
		}
		if len(teamIDs) > 0 {
			if req.MaintenanceTeamID == nil {
				continue
			}
			found := false
			for _, id := range teamIDs {
				if *req.MaintenanceTeamID == id {
					found = true
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *requestRepoStub) ListScheduled(ctx context.Context, from, to time.Time, teamIDs []string) ([]models.MaintenanceRequest, error) {
	var result []models.MaintenanceRequest
	for _, req := range r.requests {
		if req.ScheduledDate == nil || req.ScheduledDate.Before(from) || !req.ScheduledDate.Before(to) {
			continue
		}
		result = append(result, *req)
	}
	return result, nil
}

func (r *requestRepoStub) Update(ctx context.Context, request *models.MaintenanceRequest) error {
	if _, ok := r.requests[request.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *requestRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := r.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.requests, id)
	return nil
}

func (r *requestRepoStub) ListHistory(ctx context.Context, requestID string) ([]models.RequestHistory, error) {
	return r.history[requestID], nil
}

func (r *requestRepoStub) ApplyTransition(ctx context.Context, params repository.TransitionParams) error {
	if r.applyErr != nil {
		return r.applyErr
	}
	req, ok := r.requests[params.RequestID]
	if !ok || req.Status != params.FromStage {
		return sql.ErrNoRows
	}
	r.transitions = append(r.transitions, params)
	req.Status = params.ToStage
	if params.StartedAt != nil {
		req.StartedAt = params.StartedAt
	}
	if params.CompletedAt != nil {
		req.CompletedAt = params.CompletedAt
	}
	req.DurationHours = params.DurationHours
	if params.History != nil {
		r.history[params.RequestID] = append(r.history[params.RequestID], *params.History)
	}
	return nil
}

type equipmentReaderStub struct {
	equipment map[string]*models.Equipment
}

func (e *equipmentReaderStub) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	if eq, ok := e.equipment[id]; ok {
		copy := *eq
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func adminActor() *models.Actor {
	return &models.Actor{ID: "admin-1", Role: models.RoleAdmin}
}

func technicianActor(teams ...string) *models.Actor {
	return &models.Actor{ID: "tech-1", Role: models.RoleTechnician, TeamIDs: teams}
}

func seedRequest(repo *requestRepoStub, id string, stage models.RequestStage, mutate ...func(*models.MaintenanceRequest)) *models.MaintenanceRequest {
	teamID := "team-1"
	req := &models.MaintenanceRequest{
		ID:                id,
		Reference:         "MR/2026/00042",
		Subject:           "Spindle vibration",
		RequestType:       models.TypeCorrective,
		MaintenanceFor:    "equipment",
		Status:            stage,
		Priority:          3,
		MaintenanceTeamID: &teamID,
		CreatedBy:         "user-1",
	}
	for _, m := range mutate {
		m(req)
	}
	repo.requests[id] = req
	return req
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	return appErr.Code
}

func TestRequestServiceCreateDefaults(t *testing.T) {
	repo := newRequestRepoStub()
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	actor := &models.Actor{ID: "user-1", Role: models.RoleUser}
	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		Subject:     "  Broken belt  ",
		RequestType: models.TypeCorrective,
	}, actor)
	require.NoError(t, err)
	require.Equal(t, "Broken belt", created.Subject)
	require.Equal(t, models.StageNew, created.Status)
	require.Equal(t, 2, created.Priority)
	require.Equal(t, "equipment", created.MaintenanceFor)
	require.Regexp(t, `^MR/\d{4}/\d{5}$`, created.Reference)
	require.Equal(t, "user-1", created.CreatedBy)

	history := repo.history[created.ID]
	require.Len(t, history, 1)
	require.Nil(t, history[0].FromStage)
	require.Equal(t, models.StageNew, history[0].ToStage)
	require.Equal(t, "Request created", *history[0].Comment)
}

func TestRequestServiceCreateEquipmentAutoFill(t *testing.T) {
	teamID := "team-9"
	techID := "tech-9"
	equipment := &equipmentReaderStub{equipment: map[string]*models.Equipment{
		"eq-1": {
			ID:                  "eq-1",
			Name:                "CNC Mill",
			Category:            "machinery",
			Status:              models.EquipmentActive,
			MaintenanceTeamID:   &teamID,
			DefaultTechnicianID: &techID,
		},
	}}
	svc := NewRequestService(newRequestRepoStub(), equipment, nil)

	created, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		Subject:     "Coolant leak",
		RequestType: models.TypeCorrective,
		EquipmentID: "eq-1",
	}, &models.Actor{ID: "user-1", Role: models.RoleUser})
	require.NoError(t, err)
	require.Equal(t, "machinery", *created.Category)
	require.Equal(t, teamID, *created.MaintenanceTeamID)
	require.Equal(t, techID, *created.AssignedTo)
}

func TestRequestServiceCreateRejectsScrappedEquipment(t *testing.T) {
	equipment := &equipmentReaderStub{equipment: map[string]*models.Equipment{
		"eq-1": {ID: "eq-1", Status: models.EquipmentScrapped},
	}}
	svc := NewRequestService(newRequestRepoStub(), equipment, nil)

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		Subject:     "Anything",
		RequestType: models.TypeCorrective,
		EquipmentID: "eq-1",
	}, &models.Actor{ID: "user-1", Role: models.RoleUser})
	require.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}

func TestRequestServiceCreatePreventiveRequiresManager(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &equipmentReaderStub{}, nil)

	for _, actor := range []*models.Actor{
		{ID: "user-1", Role: models.RoleUser},
		{ID: "tech-1", Role: models.RoleTechnician},
	} {
		_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
			Subject:     "Quarterly inspection",
			RequestType: models.TypePreventive,
		}, actor)
		require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
	}

	_, err := svc.Create(context.Background(), dto.CreateRequestRequest{
		Subject:     "Quarterly inspection",
		RequestType: models.TypePreventive,
	}, &models.Actor{ID: "mgr-1", Role: models.RoleManager})
	require.NoError(t, err)
}

func TestRequestServiceTransitionHappyPath(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)
	svc.now = fixedClock(now)

	updated, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status:  models.StageInProgress,
		Comment: "picked up",
	}, technicianActor("team-1"))
	require.NoError(t, err)
	require.Equal(t, models.StageInProgress, updated.Status)
	require.Equal(t, now, *updated.StartedAt)
	require.Nil(t, updated.CompletedAt)

	require.Len(t, repo.transitions, 1)
	params := repo.transitions[0]
	require.Equal(t, models.StageNew, params.FromStage)
	require.Equal(t, models.StageInProgress, params.ToStage)
	require.NotNil(t, params.History)
	require.Equal(t, models.StageNew, *params.History.FromStage)
	require.Equal(t, "picked up", *params.History.Comment)
}

func TestRequestServiceTransitionComputesDuration(t *testing.T) {
	repo := newRequestRepoStub()
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	seedRequest(repo, "req-1", models.StageInProgress, func(r *models.MaintenanceRequest) {
		r.StartedAt = &started
	})
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)
	svc.now = fixedClock(started.Add(90 * time.Minute))

	updated, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageRepaired,
	}, technicianActor("team-1"))
	require.NoError(t, err)
	require.Equal(t, models.StageRepaired, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	require.InDelta(t, 1.5, updated.DurationHours, 0.0001)
}

func TestRequestServiceTransitionBackToNewKeepsStartedAt(t *testing.T) {
	repo := newRequestRepoStub()
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	seedRequest(repo, "req-1", models.StageInProgress, func(r *models.MaintenanceRequest) {
		r.StartedAt = &started
	})
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)
	svc.now = fixedClock(started.Add(time.Hour))

	updated, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageNew,
	}, technicianActor("team-1"))
	require.NoError(t, err)
	require.Equal(t, models.StageNew, updated.Status)
	require.Equal(t, started, *updated.StartedAt)
	require.Len(t, repo.transitions, 1)
	require.Nil(t, repo.transitions[0].StartedAt)
}

func TestRequestServiceTransitionSameStageIsNoOp(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageInProgress)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	// Even a plain user succeeds on a same-stage target; nothing is written.
	updated, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageInProgress,
	}, &models.Actor{ID: "user-9", Role: models.RoleUser})
	require.NoError(t, err)
	require.Equal(t, models.StageInProgress, updated.Status)
	require.Empty(t, repo.transitions)
	require.Empty(t, repo.history["req-1"])
}

func TestRequestServiceTransitionUnknownStage(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: "cancelled",
	}, adminActor())
	require.Equal(t, appErrors.ErrInvalidStage.Code, appErrorCode(t, err))
}

func TestRequestServiceTransitionIllegalJump(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageRepaired,
	}, adminActor())
	require.Equal(t, appErrors.ErrStageTransition.Code, appErrorCode(t, err))
	require.Contains(t, err.Error(), "in_progress")
}

func TestRequestServiceTransitionNotFound(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "missing", dto.StageUpdateRequest{
		Status: models.StageInProgress,
	}, adminActor())
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}

func TestRequestServiceTransitionUserRoleForbidden(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageInProgress,
	}, &models.Actor{ID: "user-1", Role: models.RoleUser})
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
}

func TestRequestServiceTransitionTechnicianWrongTeam(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageInProgress,
	}, technicianActor("team-2"))
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
	require.Contains(t, err.Error(), "team")
}

func TestRequestServiceTransitionScrapRequiresAdmin(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageRepaired)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageScrap,
	}, &models.Actor{ID: "mgr-1", Role: models.RoleManager})
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageScrap,
	}, adminActor())
	require.NoError(t, err)
}

func TestRequestServiceTransitionScrapSideEffect(t *testing.T) {
	repo := newRequestRepoStub()
	equipmentID := "eq-1"
	seedRequest(repo, "req-1", models.StageRepaired, func(r *models.MaintenanceRequest) {
		r.EquipmentID = &equipmentID
		r.Subject = "Gearbox failure"
	})
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageScrap,
	}, adminActor())
	require.NoError(t, err)

	require.Len(t, repo.transitions, 1)
	params := repo.transitions[0]
	require.Equal(t, equipmentID, params.ScrapEquipmentID)
	require.NotNil(t, params.ScrapLog)
	require.Equal(t, equipmentID, params.ScrapLog.EquipmentID)
	require.Equal(t, "Scrapped via maintenance request: Gearbox failure", params.ScrapLog.Reason)
	require.Equal(t, "req-1", *params.ScrapLog.RequestID)
	require.Equal(t, "admin-1", *params.ScrapLog.ScrappedBy)
}

func TestRequestServiceTransitionConcurrentConflict(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	repo.applyErr = sql.ErrNoRows
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Transition(context.Background(), "req-1", dto.StageUpdateRequest{
		Status: models.StageInProgress,
	}, adminActor())
	require.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))
}

func TestRequestServiceListScoping(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, _, err := svc.List(context.Background(), dto.RequestQuery{}, technicianActor("team-1", "team-2"))
	require.NoError(t, err)
	require.Equal(t, []string{"team-1", "team-2"}, repo.listFilter.TeamIDs)

	_, _, err = svc.List(context.Background(), dto.RequestQuery{}, &models.Actor{ID: "user-1", Role: models.RoleUser})
	require.NoError(t, err)
	require.Equal(t, "user-1", repo.listFilter.CreatedBy)
}

func TestRequestServiceListTechnicianWithoutTeams(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	requests, total, err := svc.List(context.Background(), dto.RequestQuery{}, technicianActor())
	require.NoError(t, err)
	require.Empty(t, requests)
	require.Zero(t, total)
}

func TestRequestServiceListRejectsUnknownStatusFilter(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &equipmentReaderStub{}, nil)

	_, _, err := svc.List(context.Background(), dto.RequestQuery{Status: "closed"}, adminActor())
	require.Equal(t, appErrors.ErrInvalidStage.Code, appErrorCode(t, err))
}

func TestRequestServiceGetOutOfScopeIsForbidden(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	_, err := svc.Get(context.Background(), "req-1", technicianActor("team-2"))
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = svc.Get(context.Background(), "req-1", &models.Actor{ID: "user-2", Role: models.RoleUser})
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	_, err = svc.Get(context.Background(), "req-1", &models.Actor{ID: "user-1", Role: models.RoleUser})
	require.NoError(t, err)
}

func TestRequestServiceUpdateNeverTouchesStage(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageInProgress)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	subject := "New subject"
	updated, err := svc.Update(context.Background(), "req-1", dto.UpdateRequestRequest{
		Subject: &subject,
	}, adminActor())
	require.NoError(t, err)
	require.Equal(t, "New subject", updated.Subject)
	require.Equal(t, models.StageInProgress, updated.Status)
}

func TestRequestServiceDeleteRequiresManager(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	err := svc.Delete(context.Background(), "req-1", technicianActor("team-1"))
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))

	err = svc.Delete(context.Background(), "req-1", &models.Actor{ID: "mgr-1", Role: models.RoleManager})
	require.NoError(t, err)
}

func TestRequestServiceKanban(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	seedRequest(repo, "req-2", models.StageInProgress)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	board, err := svc.Kanban(context.Background(), adminActor())
	require.NoError(t, err)
	require.Len(t, board.Columns, 4)
	require.Equal(t, 2, board.TotalRequests)
	require.Equal(t, models.StageNew, board.Columns[0].Stage)
	require.Equal(t, 1, board.Columns[0].Count)
}

func TestRequestServiceKanbanTechnicianWithoutTeamsIsEmpty(t *testing.T) {
	repo := newRequestRepoStub()
	seedRequest(repo, "req-1", models.StageNew)
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	board, err := svc.Kanban(context.Background(), technicianActor())
	require.NoError(t, err)
	require.Zero(t, board.TotalRequests)
	require.Len(t, board.Columns, 4)
}

func TestRequestServiceCalendarValidation(t *testing.T) {
	svc := NewRequestService(newRequestRepoStub(), &equipmentReaderStub{}, nil)

	_, err := svc.Calendar(context.Background(), 13, 2026, adminActor())
	require.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))

	_, err = svc.Calendar(context.Background(), 6, 1990, adminActor())
	require.Equal(t, appErrors.ErrValidation.Code, appErrorCode(t, err))
}

func TestRequestServiceCalendarWindow(t *testing.T) {
	repo := newRequestRepoStub()
	inMonth := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	outOfMonth := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	seedRequest(repo, "req-1", models.StageNew, func(r *models.MaintenanceRequest) {
		r.ScheduledDate = &inMonth
	})
	seedRequest(repo, "req-2", models.StageNew, func(r *models.MaintenanceRequest) {
		r.ScheduledDate = &outOfMonth
	})
	svc := NewRequestService(repo, &equipmentReaderStub{}, nil)

	view, err := svc.Calendar(context.Background(), 4, 2026, adminActor())
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "req-1", view.Items[0].ID)
}
