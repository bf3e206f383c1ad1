package domain

import "time"

const (
	exampleDailySlots  = 28
	exampleWeeklySlots = 4
)

// ExampleReferenceDate anchors generated example data.
var ExampleReferenceDate = time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC)

// RandomSource is satisfied by *rand.Rand from math/rand/v2.
type RandomSource interface {
	IntN(n int) int
}

// GenerateExampleData flips a coin for each of the 28 days (daily) or 4 weeks
// (weekly) following ExampleReferenceDate and keeps the slots that came up heads.
func GenerateExampleData(period Period, src RandomSource) ([]time.Time, error) {
	var slots, step int
	switch period {
	case PeriodDaily:
		slots, step = exampleDailySlots, 1
	case PeriodWeekly:
		slots, step = exampleWeeklySlots, 7
	default:
		_, err := period.Threshold()
		return nil, err
	}

	dates := []time.Time{}
	for i := 0; i < slots; i++ {
		if src.IntN(2) == 0 {
			dates = append(dates, ExampleReferenceDate.AddDate(0, 0, i*step))
		}
	}
	return dates, nil
}
