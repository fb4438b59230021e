package funding

import (
	"time"

	"fundingarb/internal/domain"
)

// SnapshotView is the wire shape shared by the pull endpoint and the push
// channel.
type SnapshotView struct {
	Success                bool                          `json:"success"`
	Data                   []domain.Rate                 `json:"data"`
	ArbitrageOpportunities []domain.ArbitrageOpportunity `json:"arbitrageOpportunities"`
	LastUpdate             string                        `json:"lastUpdate"`
	Error                  string                        `json:"error,omitempty"`
}

func NewSnapshotView(snapshot domain.Snapshot) SnapshotView {
	rates := snapshot.Rates
	if rates == nil {
		rates = []domain.Rate{}
	}
	opportunities := snapshot.Opportunities
	if opportunities == nil {
		opportunities = []domain.ArbitrageOpportunity{}
	}
	return SnapshotView{
		Success:                true,
		Data:                   rates,
		ArbitrageOpportunities: opportunities,
		LastUpdate:             snapshot.FetchedAt.Format(time.RFC3339),
	}
}

func NewErrorView(err error) SnapshotView {
	return SnapshotView{
		Success:                false,
		Data:                   []domain.Rate{},
		ArbitrageOpportunities: []domain.ArbitrageOpportunity{},
		Error:                  err.Error(),
	}
}
