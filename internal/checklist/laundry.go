package checklist

import (
	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/taskbank"
)

const laundryCycle = 10

// NextLaundry advances the laundry cycle by one generation. It returns the
// laundry task for this generation (0 for none) and the new counter. Wash,
// dry and iron fill the first three generations of every ten.
func NextLaundry(cur model.LaundryGeneration) (int, model.LaundryGeneration) {
	switch {
	case cur.GenerationCount <= 0, cur.GenerationCount >= laundryCycle:
		return taskbank.WashLaundry, model.LaundryGeneration{GenerationCount: 1, CurrentLaundryStep: 1}
	case cur.GenerationCount == 1:
		return taskbank.DryLaundry, model.LaundryGeneration{GenerationCount: 2, CurrentLaundryStep: 2}
	case cur.GenerationCount == 2:
		return taskbank.IronLaundry, model.LaundryGeneration{GenerationCount: 3, CurrentLaundryStep: 3}
	}
	return 0, model.LaundryGeneration{GenerationCount: cur.GenerationCount + 1}
}
