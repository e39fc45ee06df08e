package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type equipmentRepoStub struct {
	equipment    map[string]*models.Equipment
	scrapLogs    map[string][]models.EquipmentScrapLog
	openRequests map[string]int
}

func newEquipmentRepoStub() *equipmentRepoStub {
	return &equipmentRepoStub{
		equipment:    make(map[string]*models.Equipment),
		scrapLogs:    make(map[string][]models.EquipmentScrapLog),
		openRequests: make(map[string]int),
	}
}

func (e *equipmentRepoStub) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error) {
	result := make([]models.Equipment, 0, len(e.equipment))
	for _, eq := range e.equipment {
		result = append(result, *eq)
	}
	return result, len(result), nil
}

func (e *equipmentRepoStub) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	if eq, ok := e.equipment[id]; ok {
		copy := *eq
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (e *equipmentRepoStub) Create(ctx context.Context, equipment *models.Equipment) error {
	if equipment.ID == "" {
		equipment.ID = "eq-new"
	}
	e.equipment[equipment.ID] = equipment
	return nil
}

func (e *equipmentRepoStub) Update(ctx context.Context, equipment *models.Equipment) error {
	if _, ok := e.equipment[equipment.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *equipment
	e.equipment[equipment.ID] = &copy
	return nil
}

func (e *equipmentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := e.equipment[id]; !ok {
		return sql.ErrNoRows
	}
	delete(e.equipment, id)
	return nil
}

func (e *equipmentRepoStub) CountOpenRequests(ctx context.Context, id string) (int, error) {
	return e.openRequests[id], nil
}

func (e *equipmentRepoStub) ListScrapLogs(ctx context.Context, equipmentID string) ([]models.EquipmentScrapLog, error) {
	return e.scrapLogs[equipmentID], nil
}

func TestEquipmentServiceCreateDefaults(t *testing.T) {
	repo := newEquipmentRepoStub()
	svc := NewEquipmentService(repo, nil, nil)

	created, err := svc.Create(context.Background(), dto.CreateEquipmentRequest{
		Name:         " CNC Lathe ",
		SerialNumber: "SN-100",
		Category:     "machinery",
	})
	require.NoError(t, err)
	require.Equal(t, "CNC Lathe", created.Name)
	require.Equal(t, 100, created.HealthPercentage)
	require.Equal(t, models.EquipmentActive, created.Status)
}

func TestEquipmentServiceGetDerivedFlags(t *testing.T) {
	repo := newEquipmentRepoStub()
	repo.equipment["eq-1"] = &models.Equipment{
		ID:               "eq-1",
		HealthPercentage: 12,
		Status:           models.EquipmentActive,
	}
	repo.openRequests["eq-1"] = 3
	svc := NewEquipmentService(repo, nil, nil)

	resp, err := svc.Get(context.Background(), "eq-1")
	require.NoError(t, err)
	require.True(t, resp.IsCritical)
	require.False(t, resp.IsScrapped)
	require.Equal(t, 3, resp.OpenRequestCount)
}

func TestEquipmentServiceUpdateScrappedIsReadOnly(t *testing.T) {
	repo := newEquipmentRepoStub()
	repo.equipment["eq-1"] = &models.Equipment{ID: "eq-1", Status: models.EquipmentScrapped}
	svc := NewEquipmentService(repo, nil, nil)

	name := "Renamed"
	_, err := svc.Update(context.Background(), "eq-1", dto.UpdateEquipmentRequest{Name: &name})
	require.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))
}

func TestEquipmentServiceDeleteBlockedByOpenRequests(t *testing.T) {
	repo := newEquipmentRepoStub()
	repo.equipment["eq-1"] = &models.Equipment{ID: "eq-1", Status: models.EquipmentActive}
	repo.openRequests["eq-1"] = 1
	svc := NewEquipmentService(repo, nil, nil)

	err := svc.Delete(context.Background(), "eq-1")
	require.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))

	repo.openRequests["eq-1"] = 0
	require.NoError(t, svc.Delete(context.Background(), "eq-1"))
}

func TestEquipmentServiceScrapLogs(t *testing.T) {
	repo := newEquipmentRepoStub()
	repo.equipment["eq-1"] = &models.Equipment{ID: "eq-1", Status: models.EquipmentScrapped}
	repo.scrapLogs["eq-1"] = []models.EquipmentScrapLog{{ID: "sl-1", EquipmentID: "eq-1", Reason: "worn out"}}
	svc := NewEquipmentService(repo, nil, nil)

	logs, err := svc.ScrapLogs(context.Background(), "eq-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)

	_, err = svc.ScrapLogs(context.Background(), "missing")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}
