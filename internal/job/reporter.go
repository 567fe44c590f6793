package job

import "fmt"

// downloadCeiling is the highest progress reachable from byte counts alone.
// 90-99 belongs to post-processing, 100 to done.
const downloadCeiling = 89

// mergeProgress is the progress reported once the raw transfer finished
const mergeProgress = 90

// ProgressEvent is one progress notification from the fetch engine
type ProgressEvent struct {
	Downloaded int64
	Total      int64 // 0 when unknown
	Finished   bool  // raw transfer finished, merge pending
}

// ProgressSink receives progress events from the fetch engine
type ProgressSink interface {
	Report(ev ProgressEvent)
}

// Reporter maps fetch engine events onto one job record
type Reporter struct {
	registry *Registry
	jobID    string
}

// NewReporter creates a progress sink bound to jobID
func NewReporter(registry *Registry, jobID string) *Reporter {
	return &Reporter{registry: registry, jobID: jobID}
}

// Report applies ev to the job. It never sets a terminal status and never
// lowers progress.
func (p *Reporter) Report(ev ProgressEvent) {
	p.registry.update(p.jobID, func(j *Job) bool {
		if ev.Finished {
			j.Status = StatusFinalizing
			j.Progress = max(j.Progress, mergeProgress)
			j.Message = MessageMerging
			return true
		}

		// a second stream fetched before the merge does not reopen the download phase
		if j.Status == StatusFinalizing {
			return false
		}

		if ev.Total <= 0 {
			j.Message = MessageDownloading
			return true
		}

		pct := int(ev.Downloaded * 100 / ev.Total)
		pct = min(max(pct, 0), downloadCeiling)
		j.Progress = max(j.Progress, pct)
		j.Message = fmt.Sprintf("%s %d%%", MessageDownloading, pct)
		return true
	})
}
