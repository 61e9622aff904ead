package pipeline

import "sync"

// ReportStore keeps the run reports of recent pipeline runs in memory so
// they can be fetched over the API after an async run finishes.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]*RunReport
}

var reportStore = &ReportStore{reports: make(map[string]*RunReport)}

// Reports returns the package-level report store.
func Reports() *ReportStore {
	return reportStore
}

// Save stores a snapshot of the report. The runner mutates its report for
// the whole run, so readers get the state as of the last save rather than a
// pointer into a live run.
func (s *ReportStore) Save(report *RunReport) {
	snapshot := *report
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.RunId] = &snapshot
}

func (s *ReportStore) Get(runId string) (*RunReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[runId]
	return report, ok
}

func (s *ReportStore) List() []*RunReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*RunReport, 0, len(s.reports))
	for _, report := range s.reports {
		out = append(out, report)
	}
	return out
}
