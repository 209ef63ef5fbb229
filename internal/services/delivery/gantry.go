package delivery

import (
	"math"
	"strconv"
	"strings"

	"github.com/iwtcode/linacService/internal/domain/models"
)

// Direction - направление вращения гантри. По часовой стрелке угол уменьшается.
type Direction string

const (
	Clockwise        Direction = "cw"
	CounterClockwise Direction = "ccw"
)

// longArcThresholdDeg: если путь в выбранном направлении не больше порога,
// дуга "180-179" трактуется как почти полный оборот в обратную сторону.
const longArcThresholdDeg = 5.0

// GantryPlan - разобранная спецификация угла гантри
type GantryPlan struct {
	IsArc    bool    `json:"is_arc"`
	StartDeg float64 `json:"start_deg"`
	EndDeg   float64 `json:"end_deg"`
}

// NormDeg приводит угол к [0, 360)
func NormDeg(d float64) float64 {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	n := math.Mod(d, 360)
	if n < 0 {
		n += 360
	}
	if n >= 360 {
		n = 0
	}
	return n
}

// ParseGantry разбирает угол гантри: число - статичный угол, "A-B" - дуга от A до B.
func ParseGantry(spec models.GantryAngle) GantryPlan {
	s := strings.TrimSpace(string(spec))
	if s == "" {
		return GantryPlan{}
	}

	// Знак минус в начале относится к первому углу, разделитель ищем после него
	if idx := strings.Index(s[1:], "-"); idx >= 0 {
		start := parseDeg(s[:idx+1])
		end := parseDeg(s[idx+2:])
		return GantryPlan{IsArc: true, StartDeg: start, EndDeg: end}
	}

	a := parseDeg(s)
	return GantryPlan{StartDeg: a, EndDeg: a}
}

func parseDeg(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return NormDeg(v)
}

// InferDirection определяет направление дуги по имени поля ("CCW" - против часовой).
func InferDirection(field models.TreatmentField) Direction {
	name := strings.ToUpper(field.FieldName)
	if strings.Contains(name, "CCW") {
		return CounterClockwise
	}
	return Clockwise
}

func distance(start, end float64, dir Direction) float64 {
	if dir == CounterClockwise {
		return NormDeg(end - start)
	}
	return NormDeg(start - end)
}

func flip(dir Direction) Direction {
	if dir == CounterClockwise {
		return Clockwise
	}
	return CounterClockwise
}

// ArcTraversal возвращает фактическое направление и длину пути дуги.
func ArcTraversal(start, end float64, dir Direction) (Direction, float64) {
	if dir != CounterClockwise {
		dir = Clockwise
	}
	d := distance(start, end, dir)
	if d <= longArcThresholdDeg {
		dir = flip(dir)
		d = 360 - d
	}
	return dir, d
}

// AngleAt возвращает угол гантри при прогрессе p ∈ [0,1].
func AngleAt(plan GantryPlan, dir Direction, p float64) float64 {
	if !plan.IsArc {
		return plan.StartDeg
	}
	p = clamp(p, 0, 1)
	chosen, d := ArcTraversal(plan.StartDeg, plan.EndDeg, dir)
	delta := d * p
	if chosen == CounterClockwise {
		return NormDeg(plan.StartDeg + delta)
	}
	return NormDeg(plan.StartDeg - delta)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
