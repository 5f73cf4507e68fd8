package workflow

import (
	"math"

	"github.com/erazemk/oprema/internal/model"
)

// Summarize derives trip statistics from the statuses of its items.
// Not found items count as lost.
func Summarize(statuses []string) model.TripStatistics {
	var s model.TripStatistics
	s.TotalItems = len(statuses)
	for _, st := range statuses {
		switch st {
		case model.TripItemReturned:
			s.ReturnedItems++
		case model.TripItemLost, model.TripItemNotFound:
			s.LostItems++
		}
	}
	s.PendingItems = s.TotalItems - s.ReturnedItems - s.LostItems
	s.ReturnPercentage = ReturnPercentage(s.ReturnedItems, s.TotalItems)
	return s
}

// SummarizeItems is Summarize over trip items.
func SummarizeItems(items []model.TripItem) model.TripStatistics {
	statuses := make([]string, len(items))
	for i := range items {
		statuses[i] = items[i].Status
	}
	return Summarize(statuses)
}

// ReturnPercentage is returned/total as a rounded percentage, 0 for no items.
func ReturnPercentage(returned, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(returned) * 100 / float64(total)))
}
