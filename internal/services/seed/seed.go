// Package seed вычисляет детерминированное исходное рассогласование kV-изображения
// по идентификатору сценария. Консоль и экран визуализации считают его независимо
// и обязаны получить одинаковый результат без обмена сообщениями.
package seed

import "github.com/iwtcode/linacService/internal/domain/models"

const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619

	// fallbackSeed используется для пустого идентификатора и нулевого хеша
	fallbackSeed uint32 = 0x9E3779B9

	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223

	maxTranslatePx = 20.0
	maxRotateDeg   = 1.2
	minScale       = 0.99
	maxScale       = 1.01
)

// Hash - 32-битный FNV-1a по кодовым точкам идентификатора.
func Hash(scenarioID string) uint32 {
	h := fnvOffset32
	for _, r := range scenarioID {
		h ^= uint32(r)
		h *= fnvPrime32
	}
	return h
}

// Seed возвращает смещение (сдвиг, поворот, масштаб) для сценария.
func Seed(scenarioID string) models.SeedOffset {
	state := fallbackSeed
	if scenarioID != "" {
		if h := Hash(scenarioID); h != 0 {
			state = h
		}
	}

	g := &lcg{state: state}
	return models.SeedOffset{
		TranslateX: g.between(-maxTranslatePx, maxTranslatePx),
		TranslateY: g.between(-maxTranslatePx, maxTranslatePx),
		RotateDeg:  g.between(-maxRotateDeg, maxRotateDeg),
		Scale:      g.between(minScale, maxScale),
	}
}

type lcg struct {
	state uint32
}

// next возвращает равномерное значение в [0, 1)
func (g *lcg) next() float64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return float64(g.state) / 4294967296.0
}

func (g *lcg) between(lo, hi float64) float64 {
	return lo + (hi-lo)*g.next()
}
