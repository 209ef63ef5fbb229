package delivery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func field(name string, mu, rate float64, gantry string) models.TreatmentField {
	r := models.Number(rate)
	return models.TreatmentField{
		FieldName:    name,
		MonitorUnits: models.Number(mu),
		DoseRate:     &r,
		GantryAngle:  models.GantryAngle(gantry),
	}
}

func TestParseGantry(t *testing.T) {
	cases := []struct {
		spec string
		want GantryPlan
	}{
		{"", GantryPlan{}},
		{"270", GantryPlan{StartDeg: 270, EndDeg: 270}},
		{"-90", GantryPlan{StartDeg: 270, EndDeg: 270}},
		{"720.5", GantryPlan{StartDeg: 0.5, EndDeg: 0.5}},
		{"180-179", GantryPlan{IsArc: true, StartDeg: 180, EndDeg: 179}},
		{" 181 - 360 ", GantryPlan{IsArc: true, StartDeg: 181, EndDeg: 0}},
		{"-30-30", GantryPlan{IsArc: true, StartDeg: 330, EndDeg: 30}},
		{"abc", GantryPlan{}},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseGantry(models.GantryAngle(tc.spec)), tc.spec)
	}
}

func TestGantryAngleFromJSONNumber(t *testing.T) {
	var f models.TreatmentField
	require.NoError(t, json.Unmarshal([]byte(`{"gantryAngle": 45}`), &f))
	require.Equal(t, GantryPlan{StartDeg: 45, EndDeg: 45}, ParseGantry(f.GantryAngle))
}

func TestInferDirection(t *testing.T) {
	require.Equal(t, CounterClockwise, InferDirection(models.TreatmentField{FieldName: "Arc 2 ccw"}))
	require.Equal(t, Clockwise, InferDirection(models.TreatmentField{FieldName: "Arc 1 CW"}))
	require.Equal(t, Clockwise, InferDirection(models.TreatmentField{FieldName: "SBRT Arc"}))
}

func TestArcTraversalFlipsNearNullMove(t *testing.T) {
	dir, d := ArcTraversal(180, 179, Clockwise)
	require.Equal(t, CounterClockwise, dir)
	require.Equal(t, 359.0, d)

	dir, d = ArcTraversal(179, 180, CounterClockwise)
	require.Equal(t, Clockwise, dir)
	require.Equal(t, 359.0, d)

	dir, d = ArcTraversal(180, 0, Clockwise)
	require.Equal(t, Clockwise, dir)
	require.Equal(t, 180.0, d)

	dir, d = ArcTraversal(90, 90, Clockwise)
	require.Equal(t, CounterClockwise, dir)
	require.Equal(t, 360.0, d)
}

func TestAngleAt(t *testing.T) {
	arc := GantryPlan{IsArc: true, StartDeg: 180, EndDeg: 179}
	require.Equal(t, 180.0, AngleAt(arc, Clockwise, 0))
	// почти полный оборот против часовой стрелки
	require.InDelta(t, 359.5, AngleAt(arc, Clockwise, 0.5), 1e-9)
	require.InDelta(t, 179.0, AngleAt(arc, Clockwise, 1), 1e-9)

	cw := GantryPlan{IsArc: true, StartDeg: 30, EndDeg: 330}
	require.InDelta(t, 0.0, AngleAt(cw, Clockwise, 0.5), 1e-9)

	static := GantryPlan{StartDeg: 90, EndDeg: 90}
	require.Equal(t, 90.0, AngleAt(static, Clockwise, 0.7))
}

func TestSampleEndpointsAndMonotonic(t *testing.T) {
	f := field("Arc 1", 137.3, 600, "181-179")
	mu, _ := Sample(f, 0)
	require.Equal(t, 0.0, mu)
	mu, _ = Sample(f, 1)
	require.Equal(t, 137.3, mu)

	prev := -1.0
	for i := 0; i <= 100; i++ {
		mu, _ := Sample(f, float64(i)/100)
		require.GreaterOrEqual(t, mu, prev)
		prev = mu
	}
}

func TestTimingDurationAndSteps(t *testing.T) {
	timing := DefaultTiming()

	// 100 MU при 600 MU/мин = 10 с
	require.Equal(t, 10*time.Second, timing.Duration(field("A", 100, 600, "0")))
	// 10 MU = 1 с, ограничено снизу 2.5 с
	require.Equal(t, 2500*time.Millisecond, timing.Duration(field("B", 10, 600, "0")))
	// 1000 MU = 100 с, ограничено сверху 10 с
	require.Equal(t, 10*time.Second, timing.Duration(field("C", 1000, 600, "0")))
	// нулевые MU - мгновенно
	require.Equal(t, time.Duration(0), timing.Duration(field("D", 0, 600, "0")))
	// MU без мощности дозы - 5 с
	require.Equal(t, 5*time.Second, timing.Duration(field("E", 50, 0, "0")))

	require.Equal(t, 50, timing.Steps(2500*time.Millisecond))
	require.Equal(t, 15, timing.Steps(100*time.Millisecond))
}

func TestTechniqueLabels(t *testing.T) {
	require.Equal(t, "VMAT", TechniqueLabel("vmat"))
	require.Equal(t, "3DCRT", TechniqueLabel("3D-CRT"))
	require.Equal(t, "STATIC", TechniqueLabel(""))
	require.Equal(t, "ARC (VMAT)", BeamTypeLabel(models.TreatmentField{Technique: "VMAT"}))
	require.Equal(t, "STATIC (Static Photon)", BeamTypeLabel(models.TreatmentField{Technique: "Electron"}))
}

func TestDeliverReachesPlanMU(t *testing.T) {
	fields := []models.TreatmentField{
		field("Arc 1 CW", 100, 600, "180-179"),
		field("AP", 50, 600, "0"),
	}
	sim := NewSimulator(fields, DefaultTiming(), InstantClock{})

	var mus []float64
	var angles []float64
	err := sim.Deliver(context.Background(), 0, func(index int, p models.DeliveryProgress) {
		require.Equal(t, 0, index)
		mus = append(mus, p.DeliveredMU)
		require.NotNil(t, p.CurrentGantryDeg)
		angles = append(angles, *p.CurrentGantryDeg)
	})
	require.NoError(t, err)

	// 10 с * 20 шагов + финальный шаг
	require.Len(t, mus, 201)
	for i := 1; i < len(mus); i++ {
		require.GreaterOrEqual(t, mus[i], mus[i-1])
	}
	require.Equal(t, 180.0, angles[0])
	require.InDelta(t, 179.0, angles[len(angles)-1], 1e-9)

	p, ok := sim.Progress(0)
	require.True(t, ok)
	require.True(t, p.Done)
	require.Equal(t, 100.0, p.DeliveredMU)

	require.ErrorIs(t, sim.Deliver(context.Background(), 0, nil), ErrAlreadyDone)
	require.NoError(t, sim.Deliver(context.Background(), 1, nil))
	all := sim.AllProgress()
	assert.Equal(t, 50.0, all[1].DeliveredMU)
	assert.Equal(t, 0.0, *all[1].CurrentGantryDeg)
}

func TestDeliverInstantFields(t *testing.T) {
	fields := []models.TreatmentField{
		{FieldName: "kV Pair", Type: "Imaging", MonitorUnits: 2},
		field("Setup", 0, 600, "90"),
	}
	sim := NewSimulator(fields, DefaultTiming(), InstantClock{})

	calls := 0
	require.NoError(t, sim.Deliver(context.Background(), 0, func(int, models.DeliveryProgress) { calls++ }))
	require.Equal(t, 1, calls)
	require.True(t, sim.IsDone(0))

	require.NoError(t, sim.Deliver(context.Background(), 1, nil))
	p, _ := sim.Progress(1)
	require.True(t, p.Done)
	require.Equal(t, 0.0, p.DeliveredMU)
	require.Equal(t, 90.0, *p.CurrentGantryDeg)
}

func TestCompleteMarksImagingField(t *testing.T) {
	fields := []models.TreatmentField{
		{FieldName: "CBCT", Type: "Imaging", GantryAngle: "180"},
		field("AP", 100, 600, "0"),
	}
	sim := NewSimulator(fields, DefaultTiming(), InstantClock{})

	calls := 0
	require.NoError(t, sim.Complete(0, func(int, models.DeliveryProgress) { calls++ }))
	require.True(t, sim.IsDone(0))
	require.NoError(t, sim.Complete(0, func(int, models.DeliveryProgress) { calls++ }))
	require.Equal(t, 1, calls)

	require.ErrorIs(t, sim.Complete(1, nil), ErrNotInstant)
	require.False(t, sim.IsDone(1))
	require.ErrorIs(t, sim.Complete(5, nil), ErrNoField)
}

func TestDeliverCancelledLeavesFieldOpen(t *testing.T) {
	sim := NewSimulator([]models.TreatmentField{field("AP", 100, 600, "0")}, DefaultTiming(), InstantClock{})
	ctx, cancel := context.WithCancel(context.Background())

	steps := 0
	err := sim.Deliver(ctx, 0, func(int, models.DeliveryProgress) {
		steps++
		if steps == 3 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, sim.IsDone(0))
	require.False(t, sim.Running())

	p, _ := sim.Progress(0)
	require.Less(t, p.DeliveredMU, 100.0)
}

func TestDeliverRejectsBadIndex(t *testing.T) {
	sim := NewSimulator(nil, DefaultTiming(), InstantClock{})
	require.ErrorIs(t, sim.Deliver(context.Background(), 0, nil), ErrNoField)
}

func TestDeliverIsNotReentrant(t *testing.T) {
	sim := NewSimulator([]models.TreatmentField{
		field("A", 100, 600, "0"),
		field("B", 100, 600, "0"),
	}, DefaultTiming(), InstantClock{})

	var nested error
	require.NoError(t, sim.Deliver(context.Background(), 0, func(int, models.DeliveryProgress) {
		if nested == nil {
			nested = sim.Deliver(context.Background(), 1, nil)
		}
	}))
	require.ErrorIs(t, nested, ErrBusy)
}
