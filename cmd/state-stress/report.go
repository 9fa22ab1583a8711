package main

import (
	"io"
	"runtime"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plus3/callstate/pass"
	"github.com/plus3/callstate/state"
)

type Report struct {
	// Configuration
	Duration time.Duration
	Items    int
	Depth    int
	Churn    float64

	// Results
	TotalTime      time.Duration
	UpdateTime     Stats
	Workers        []WorkerReport
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// WorkerReport holds the results of a single store.
type WorkerReport struct {
	Runner    pass.Stats
	Store     state.StoreStats
	Mounted   int64
	Unmounted int64
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Totals sums the per-worker results.
func (r *Report) Totals() WorkerReport {
	var total WorkerReport
	for _, w := range r.Workers {
		total.Runner.Passes += w.Runner.Passes
		total.Runner.TotalReclaimed += w.Runner.TotalReclaimed
		total.Store.LiveIdentities += w.Store.LiveIdentities
		total.Store.SlotCapacity += w.Store.SlotCapacity
		total.Store.FreeSlots += w.Store.FreeSlots
		total.Store.TotalValues += w.Store.TotalValues
		total.Mounted += w.Mounted
		total.Unmounted += w.Unmounted
	}
	return total
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# State Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Items per Pass:** {{.Items}}
- **Nesting Depth:** {{.Depth}}
- **Churn:** {{.Churn}}
- **Workers:** {{len .Workers}}

## Performance Results
{{- $total := .Totals}}
- **Total Passes:** {{$total.Runner.Passes}}
- **Total Test Time:** {{.TotalTime}}
- **Pass Time:**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Liveness
- **Live Identities:** {{$total.Store.LiveIdentities}}
- **Total Reclaimed:** {{$total.Runner.TotalReclaimed}}
- **Mounted / Unmounted:** {{$total.Mounted}} / {{$total.Unmounted}}
- **Slot Capacity:** {{$total.Store.SlotCapacity}} ({{$total.Store.FreeSlots}} free)
- **Stored Values:** {{$total.Store.TotalValues}}

## Workers
{{range $i, $w := .Workers}}
### Worker {{$i}}
- Passes: {{$w.Runner.Passes}} (avg {{$w.Runner.AvgDuration}}, max {{$w.Runner.MaxDuration}})
- Live / Reclaimed: {{$w.Store.LiveIdentities}} / {{$w.Runner.TotalReclaimed}}
{{- range $w.Store.Pools}}
- {{.Type}}: {{.Values}}
{{- end}}
{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}

type yamlReport struct {
	Duration     time.Duration `yaml:"duration"`
	Items        int           `yaml:"items"`
	Depth        int           `yaml:"depth"`
	Churn        float64       `yaml:"churn"`
	Workers      int           `yaml:"workers"`
	TotalTime    time.Duration `yaml:"total_time"`
	Passes       int64         `yaml:"passes"`
	PassAvg      time.Duration `yaml:"pass_avg"`
	PassMin      time.Duration `yaml:"pass_min"`
	PassMax      time.Duration `yaml:"pass_max"`
	Live         int           `yaml:"live_identities"`
	Reclaimed    int64         `yaml:"reclaimed"`
	Mounted      int64         `yaml:"mounted"`
	Unmounted    int64         `yaml:"unmounted"`
	HeapAlloc    int64         `yaml:"heap_alloc_delta"`
	TotalAlloc   int64         `yaml:"total_alloc_delta"`
	NumGC        uint32        `yaml:"num_gc"`
	GCPauseTotal time.Duration `yaml:"gc_pause_total,omitempty"`
}

// WriteYAML writes a flat summary of the report for machine consumption.
func (r *Report) WriteYAML(w io.Writer) error {
	total := r.Totals()
	out := yamlReport{
		Duration:   r.Duration,
		Items:      r.Items,
		Depth:      r.Depth,
		Churn:      r.Churn,
		Workers:    len(r.Workers),
		TotalTime:  r.TotalTime,
		Passes:     total.Runner.Passes,
		PassAvg:    r.UpdateTime.Avg,
		PassMin:    r.UpdateTime.Min,
		PassMax:    r.UpdateTime.Max,
		Live:       total.Store.LiveIdentities,
		Reclaimed:  total.Runner.TotalReclaimed,
		Mounted:    total.Mounted,
		Unmounted:  total.Unmounted,
		HeapAlloc:  int64(r.MemStatsEnd.HeapAlloc) - int64(r.MemStatsStart.HeapAlloc),
		TotalAlloc: int64(r.MemStatsEnd.TotalAlloc) - int64(r.MemStatsStart.TotalAlloc),
		NumGC:      r.MemStatsEnd.NumGC - r.MemStatsStart.NumGC,
	}
	if r.GCPauseMetrics {
		out.GCPauseTotal = time.Duration(r.MemStatsEnd.PauseTotalNs - r.MemStatsStart.PauseTotalNs)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}
