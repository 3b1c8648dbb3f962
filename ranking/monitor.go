package ranking

import "github.com/poiesic/resumatch/core"

// Monitor provides hooks to observe a ranking run.
// Document hooks are called from worker goroutines, so implementations must
// be safe for concurrent use.
type Monitor interface {
	BatchStarted(runID string, total int)
	DocumentStarted(id string)
	DocumentFinished(id string, result *core.MatchResult, err error)
	BatchFinished(result *core.BatchRankingResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) BatchStarted(_ string, _ int)                            {}
func (n *noopMonitor) DocumentStarted(_ string)                                {}
func (n *noopMonitor) DocumentFinished(_ string, _ *core.MatchResult, _ error) {}
func (n *noopMonitor) BatchFinished(_ *core.BatchRankingResult)                {}
