package telemetry

import (
	"strings"
	"sync"
)

type Report struct {
	Id     string
	Params []any
}

// Recorder is an API that keeps every report in memory so tests can assert
// on what a component reported, it forwards everything to SlogAPI as well.
type Recorder struct {
	mu       sync.Mutex
	broken   []Report
	warnings []Report
	counts   map[string]int64
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.mu.Lock()
	r.broken = append(r.broken, Report{Id: id, Params: params})
	r.mu.Unlock()
	SlogAPI{}.ReportBroken(id, params...)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.mu.Lock()
	r.warnings = append(r.warnings, Report{Id: id, Params: params})
	r.mu.Unlock()
	SlogAPI{}.ReportWarning(id, params...)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	SlogAPI{}.ReportDebug(msg, params...)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mu.Lock()
	if r.counts == nil {
		r.counts = map[string]int64{}
	}
	r.counts[id] = count
	r.mu.Unlock()
}

func filterReports(reports []Report, suffix string) []Report {
	var out []Report
	for _, r := range reports {
		if strings.HasSuffix(r.Id, suffix) {
			out = append(out, r)
		}
	}
	return out
}

// Broken returns the broken reports whose id ends with suffix.
func (r *Recorder) Broken(suffix string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterReports(r.broken, suffix)
}

// Warnings returns the warnings whose id ends with suffix.
func (r *Recorder) Warnings(suffix string) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return filterReports(r.warnings, suffix)
}

func (r *Recorder) Count(suffix string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.counts {
		if strings.HasSuffix(id, suffix) {
			return n, true
		}
	}
	return 0, false
}
