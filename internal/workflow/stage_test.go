package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		current models.RequestStage
		target  models.RequestStage
		wantErr string
	}{
		{name: "new to in_progress", current: models.StageNew, target: models.StageInProgress},
		{name: "in_progress to repaired", current: models.StageInProgress, target: models.StageRepaired},
		{name: "in_progress back to new", current: models.StageInProgress, target: models.StageNew},
		{name: "repaired to scrap", current: models.StageRepaired, target: models.StageScrap},
		{name: "same stage is a no-op", current: models.StageRepaired, target: models.StageRepaired},
		{name: "new to repaired skips a stage", current: models.StageNew, target: models.StageRepaired, wantErr: appErrors.ErrStageTransition.Code},
		{name: "new to scrap skips stages", current: models.StageNew, target: models.StageScrap, wantErr: appErrors.ErrStageTransition.Code},
		{name: "repaired back to in_progress", current: models.StageRepaired, target: models.StageInProgress, wantErr: appErrors.ErrStageTransition.Code},
		{name: "scrap is terminal", current: models.StageScrap, target: models.StageNew, wantErr: appErrors.ErrStageTransition.Code},
		{name: "unknown target", current: models.StageNew, target: "cancelled", wantErr: appErrors.ErrInvalidStage.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.current, tc.target)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			require.Equal(t, tc.wantErr, appErr.Code)
		})
	}
}

func TestValidateTerminalMessage(t *testing.T) {
	err := Validate(models.StageScrap, models.StageInProgress)
	require.Error(t, err)
	require.Contains(t, err.Error(), "terminal")
}

func TestValidateIllegalCarriesAllowedSet(t *testing.T) {
	err := Validate(models.StageNew, models.StageScrap)
	require.Error(t, err)
	require.Contains(t, err.Error(), "in_progress")
}

func TestAllowedNext(t *testing.T) {
	require.Equal(t, []models.RequestStage{models.StageInProgress}, AllowedNext(models.StageNew))
	require.ElementsMatch(t, []models.RequestStage{models.StageNew, models.StageRepaired}, AllowedNext(models.StageInProgress))
	require.Empty(t, AllowedNext(models.StageScrap))
}

func TestIsTerminal(t *testing.T) {
	require.True(t, IsTerminal(models.StageScrap))
	require.False(t, IsTerminal(models.StageNew))
	require.False(t, IsTerminal("unknown"))
}

func TestValid(t *testing.T) {
	for _, stage := range models.Stages {
		require.True(t, Valid(stage))
	}
	require.False(t, Valid("done"))
}
