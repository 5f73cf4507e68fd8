package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/oprema/internal/model"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     model.TripStatistics
	}{
		{"empty", nil, model.TripStatistics{}},
		{
			"two returned one lost",
			[]string{model.TripItemReturned, model.TripItemReturned, model.TripItemLost},
			model.TripStatistics{TotalItems: 3, ReturnedItems: 2, LostItems: 1, PendingItems: 0, ReturnPercentage: 67},
		},
		{
			"not found counts as lost",
			[]string{model.TripItemNotFound, model.TripItemTaken},
			model.TripStatistics{TotalItems: 2, LostItems: 1, PendingItems: 1, ReturnPercentage: 0},
		},
		{
			"one returned",
			[]string{model.TripItemReturned},
			model.TripStatistics{TotalItems: 1, ReturnedItems: 1, ReturnPercentage: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.statuses))
		})
	}
}

// Every multiset of up to five statuses keeps the counts consistent.
func TestSummarizePendingInvariant(t *testing.T) {
	var walk func(prefix []string, depth int)
	walk = func(prefix []string, depth int) {
		s := Summarize(prefix)
		assert.Equal(t, s.TotalItems-s.ReturnedItems-s.LostItems, s.PendingItems)
		assert.GreaterOrEqual(t, s.PendingItems, 0)
		assert.GreaterOrEqual(t, s.ReturnPercentage, 0)
		assert.LessOrEqual(t, s.ReturnPercentage, 100)
		if depth == 0 {
			return
		}
		for _, st := range allStatuses {
			walk(append(append([]string(nil), prefix...), st), depth-1)
		}
	}
	walk(nil, 5)
}

func TestReturnPercentage(t *testing.T) {
	assert.Equal(t, 0, ReturnPercentage(0, 0))
	assert.Equal(t, 33, ReturnPercentage(1, 3))
	assert.Equal(t, 50, ReturnPercentage(1, 2))
	assert.Equal(t, 67, ReturnPercentage(2, 3))
	assert.Equal(t, 100, ReturnPercentage(4, 4))
}

func TestSummarizeItems(t *testing.T) {
	items := []model.TripItem{{Status: model.TripItemReturned}, {Status: model.TripItemTaken}}
	s := SummarizeItems(items)
	assert.Equal(t, model.ItemCounts{Total: 2, Returned: 1, Pending: 1}, s.Counts())
	assert.Equal(t, 50, s.ReturnPercentage)
}
