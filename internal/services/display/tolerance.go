package display

import (
	"math"
	"sort"

	"github.com/iwtcode/linacService/internal/config"
	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/iwtcode/linacService/internal/services/delivery"
)

type paramKind int

const (
	kindAngle paramKind = iota
	kindPosition
	kindMU
)

// Имена параметров геометрии и пучка, которые сверяются с планом
const (
	ParamGantry     = "gantry"
	ParamCollimator = "collimator"
	ParamCouchRtn   = "couch_rtn"
	ParamJawX1      = "jaw_x1"
	ParamJawX2      = "jaw_x2"
	ParamJawY1      = "jaw_y1"
	ParamJawY2      = "jaw_y2"
	ParamCouchVrt   = "couch_vrt"
	ParamCouchLng   = "couch_lng"
	ParamCouchLat   = "couch_lat"
	ParamCouchPitch = "couch_pitch"
	ParamCouchRoll  = "couch_roll"
	ParamMU         = "mu"
)

type planValue struct {
	kind  paramKind
	value float64
}

// planValues возвращает плановые значения поля. Угол гантри дуги не сверяется.
func planValues(field models.TreatmentField) map[string]planValue {
	values := map[string]planValue{
		ParamCollimator: {kindAngle, field.CollimatorAngle.Float()},
		ParamCouchRtn:   {kindAngle, field.CouchAngle.Float()},
		ParamJawX1:      {kindPosition, field.Jaws.X1.Float()},
		ParamJawX2:      {kindPosition, field.Jaws.X2.Float()},
		ParamJawY1:      {kindPosition, field.Jaws.Y1.Float()},
		ParamJawY2:      {kindPosition, field.Jaws.Y2.Float()},
		ParamCouchVrt:   {kindPosition, field.CouchCoordinates.Vertical.Float()},
		ParamCouchLng:   {kindPosition, field.CouchCoordinates.Longitudinal.Float()},
		ParamCouchLat:   {kindPosition, field.CouchCoordinates.Lateral.Float()},
		ParamCouchPitch: {kindAngle, field.PitchAngle.Float()},
		ParamCouchRoll:  {kindAngle, field.RollAngle.Float()},
		ParamMU:         {kindMU, field.PlanMU()},
	}
	if plan := delivery.ParseGantry(field.GantryAngle); !plan.IsArc {
		values[ParamGantry] = planValue{kindAngle, plan.StartDeg}
	}
	return values
}

// CheckTolerance сравнивает фактические значения с планом поля и возвращает
// отсортированный список параметров вне допуска. Неизвестные параметры игнорируются,
// поля визуализации не проверяются.
func CheckTolerance(field models.TreatmentField, actual map[string]float64, limits config.ToleranceLimits) []string {
	if field.IsImaging() || len(actual) == 0 {
		return nil
	}
	plan := planValues(field)
	var out []string
	for name, value := range actual {
		pv, ok := plan[name]
		if !ok || math.IsNaN(value) {
			continue
		}
		var diff, limit float64
		switch pv.kind {
		case kindAngle:
			diff = angleDiff(pv.value, value)
			limit = limits.AngleDeg
		case kindPosition:
			diff = math.Abs(pv.value - value)
			limit = limits.PositionCm
		case kindMU:
			diff = math.Abs(pv.value - value)
			limit = limits.MU
		}
		if diff > limit {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func angleDiff(a, b float64) float64 {
	d := math.Abs(delivery.NormDeg(a) - delivery.NormDeg(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// round1 округляет до 0.1
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
