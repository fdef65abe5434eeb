package hierarchy

import (
	"math"
	"time"

	"github.com/yungbote/learnmap-backend/internal/types"
)

// Progress holds the display metrics derived from a roadmap's flat node list.
// Recomputed on demand; the node list is the sole source of truth.
type Progress struct {
	ItemPercent      int `json:"item_percent"`
	TotalMinutes     int `json:"total_minutes"`
	CompletedMinutes int `json:"completed_minutes"`
	RemainingMinutes int `json:"remaining_minutes"`
	DaysRemaining    int `json:"days_remaining"`
}

// ComputeProgress derives progress metrics in one O(n) pass. A dailyFocusTime
// of zero (or less) yields DaysRemaining == 0 even when time remains, matching
// the roadmap editor's long-standing display behavior.
func ComputeProgress(nodes []*types.Node, dailyFocusTime int) Progress {
	var p Progress
	completedCount := 0
	for _, n := range nodes {
		estimate := n.TimeEstimate
		if estimate < 0 {
			estimate = 0
		}
		p.TotalMinutes += estimate
		if n.Status == types.NodeStatusCompleted {
			completedCount++
			p.CompletedMinutes += estimate
		}
	}
	if len(nodes) > 0 {
		p.ItemPercent = int(math.Round(100 * float64(completedCount) / float64(len(nodes))))
	}
	p.RemainingMinutes = p.TotalMinutes - p.CompletedMinutes
	if dailyFocusTime > 0 {
		p.DaysRemaining = int(math.Ceil(float64(p.RemainingMinutes) / float64(dailyFocusTime)))
	}
	return p
}

// ProjectedDate is the illustrative completion date: from plus DaysRemaining
// calendar days, no timezone normalization.
func (p Progress) ProjectedDate(from time.Time) time.Time {
	return from.AddDate(0, 0, p.DaysRemaining)
}
