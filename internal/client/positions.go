package client

import (
	"sort"

	"f1picks/ingestion/internal/models"
)

// LatestPositions collapses a raw position time series into one record per
// driver: the record with the greatest timestamp. Records sharing the maximum
// timestamp resolve to the one seen first. The result is ordered by position,
// then driver number, and is never nil.
func LatestPositions(records []models.PositionInput) []models.PositionInput {
	index := make(map[int]int, 32)
	latest := make([]models.PositionInput, 0, 32)

	for _, rec := range records {
		i, seen := index[rec.DriverNumber]
		if !seen {
			index[rec.DriverNumber] = len(latest)
			latest = append(latest, rec)
			continue
		}
		if rec.Date.After(latest[i].Date) {
			latest[i] = rec
		}
	}

	sort.SliceStable(latest, func(a, b int) bool {
		if latest[a].Position != latest[b].Position {
			return latest[a].Position < latest[b].Position
		}
		return latest[a].DriverNumber < latest[b].DriverNumber
	})

	return latest
}

// PositionByDriver indexes collapsed positions by driver number
func PositionByDriver(positions []models.PositionInput) map[int]int {
	out := make(map[int]int, len(positions))
	for _, p := range positions {
		out[p.DriverNumber] = p.Position
	}
	return out
}
