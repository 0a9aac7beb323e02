// internal/catalog/timetable.go
package catalog

import (
	"fmt"
	"time"
)

// Timetable describes the rolling schedule generated at process start.
type Timetable struct {
	Routes     []Route
	Departures []TimeOfDay
	Days       int
	SeatCount  int
}

// DefaultHorizonDays covers today through today+30, every date a search may ask for.
const DefaultHorizonDays = 31

// DefaultTimetable is the campus schedule: four routes and six daily departures
// from today through today+30.
func DefaultTimetable() Timetable {
	return Timetable{
		Routes: []Route{
			{ID: "NCU-THSR", Name: "National Central University - Taoyuan HSR Station"},
			{ID: "THSR-NCU", Name: "Taoyuan HSR Station - National Central University"},
			{ID: "NCU-ZLTS", Name: "National Central University - Zhongli Railway Station"},
			{ID: "ZLTS-NCU", Name: "Zhongli Railway Station - National Central University"},
		},
		Departures: []TimeOfDay{8 * 60, 9*60 + 30, 11 * 60, 13*60 + 30, 15 * 60, 16*60 + 30},
		Days:       DefaultHorizonDays,
		SeatCount:  DefaultSeatCount,
	}
}

// Seed fills repo with every day x route x departure combination starting at today.
// Trip ids are assigned sequentially as T1, T2, ...
func Seed(repo *MemoryRepository, tt Timetable, today time.Time) (int, error) {
	if tt.SeatCount <= 0 {
		tt.SeatCount = DefaultSeatCount
	}
	for _, route := range tt.Routes {
		if err := repo.AddRoute(route); err != nil {
			return 0, err
		}
	}

	start := DateOf(today)
	next := len(repo.All()) + 1
	created := 0
	for day := 0; day < tt.Days; day++ {
		date := start.AddDate(0, 0, day)
		for _, route := range tt.Routes {
			for _, dep := range tt.Departures {
				id := fmt.Sprintf("T%d", next)
				trip, err := NewTrip(id, route, date, dep, tt.SeatCount)
				if err != nil {
					return created, fmt.Errorf("build trip %s: %w", id, err)
				}
				if err := repo.AddTrip(trip); err != nil {
					return created, err
				}
				next++
				created++
			}
		}
	}
	return created, nil
}
