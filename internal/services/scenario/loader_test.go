package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/iwtcode/linacService/internal/middleware/logging"
	apperrors "github.com/iwtcode/linacService/pkg/errors"
	"github.com/stretchr/testify/require"
)

const planScenario = `{
  "patientId": "P-001",
  "treatmentPlan": {
    "planId": "PROSTATE_VMAT",
    "treatmentFields": [
      {"fieldName": "Arc 1 CW", "technique": "VMAT", "monitorUnits": "250.5", "doseRate": 600, "gantryAngle": "181-179"},
      {"fieldName": "kV Pair", "type": "Imaging", "imagingModality": "kV", "gantryAngle": 0},
      {"fieldName": "Off", "monitorUnits": 10, "active": false, "jawPositions_cm": {"X1": "-5", "X2": 5, "Y1": "bad", "Y2": 7}}
    ]
  },
  "treatmentFields": [{"fieldName": "ignored"}]
}`

func TestIDFromFile(t *testing.T) {
	require.Equal(t, "A2", IDFromFile("A2.json"))
	require.Equal(t, "A2_computer_withErrors", IDFromFile("data/A2_computer_withErrors.JSON"))
	require.Equal(t, "B1", IDFromFile(`C:\scenarios\B1.json`))
	require.Equal(t, "notes.txt", IDFromFile("notes.txt"))
	require.Equal(t, UnknownID, IDFromFile(""))
	require.Equal(t, UnknownID, IDFromFile(".json"))
}

func TestParsePlanFields(t *testing.T) {
	rec, err := Parse("A2.json", []byte(planScenario))
	require.NoError(t, err)
	require.Equal(t, "A2", rec.ScenarioID)
	require.Equal(t, "P-001", rec.PatientID)
	require.Equal(t, "PROSTATE_VMAT", rec.PlanLabel())

	fields := rec.Fields()
	require.Len(t, fields, 3)
	require.Equal(t, 250.5, fields[0].PlanMU())
	require.Equal(t, "181-179", string(fields[0].GantryAngle))
	require.True(t, fields[1].IsImaging())
	require.Equal(t, "0", string(fields[1].GantryAngle))
	require.Equal(t, 600.0, fields[1].Rate())
	require.False(t, fields[2].IsActive())
	require.Equal(t, -5.0, fields[2].Jaws.X1.Float())
	require.Zero(t, fields[2].Jaws.Y1.Float())
}

func TestParseTopLevelFields(t *testing.T) {
	rec, err := Parse("B0.json", []byte(`{"treatmentFields": [{"fieldName": "AP", "monitorUnits": 100}]}`))
	require.NoError(t, err)
	require.Len(t, rec.Fields(), 1)
	require.Equal(t, "B0", rec.PlanLabel())
}

func TestParseMalformed(t *testing.T) {
	rec, err := Parse("C1.json", []byte(`{"treatmentFields": [`))
	require.Error(t, err)
	require.Equal(t, "C1", rec.ScenarioID)
	require.Empty(t, rec.Fields())
}

func TestParseKeepsRecordOnMistypedValues(t *testing.T) {
	rec, err := Parse("D4.json", []byte(`{
		"patientId": "P-004",
		"treatmentPlan": {"planId": "H&N", "treatmentFields": [
			{"fieldName": "AP", "monitorUnits": 100},
			{"fieldName": "PA", "monitorUnits": 80, "active": "true"},
			{"fieldName": 7, "monitorUnits": 60, "active": "no"}
		]}
	}`))
	require.Error(t, err)
	require.Equal(t, "D4", rec.ScenarioID)
	require.Equal(t, "P-004", rec.PatientID)

	fields := rec.Fields()
	require.Len(t, fields, 3)
	require.True(t, fields[1].IsActive())
	require.Equal(t, 80.0, fields[1].PlanMU())
	require.Empty(t, fields[2].FieldName)
	require.Equal(t, 60.0, fields[2].PlanMU())
	require.False(t, fields[2].IsActive())
}

func TestLoaderLoadAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "A2.json"), []byte(planScenario), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte(`x`), 0o644))

	l := NewLoader(dir, logging.NewNop())
	files, err := l.List()
	require.NoError(t, err)
	require.Equal(t, []string{"A2.json", "broken.json"}, files)

	rec, err := l.Load("A2.json")
	require.NoError(t, err)
	require.Len(t, rec.Fields(), 3)

	rec, err = l.Load("broken.json")
	require.NoError(t, err)
	require.Empty(t, rec.Fields())

	_, err = l.Load("missing.json")
	require.ErrorIs(t, err, apperrors.ErrScenarioLoad)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.NotFoundErrorCode, appErr.Code)

	// выход за пределы каталога не допускается
	_, err = l.Load("../../etc/passwd")
	require.ErrorIs(t, err, apperrors.ErrScenarioLoad)

	_, err = l.Load("  ")
	require.ErrorIs(t, err, apperrors.ErrScenarioLoad)
}
