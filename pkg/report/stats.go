package report

import (
	"time"

	"github.com/montanaflynn/stats"
)

// Stats summarizes per-trial measurements of a run.
type Stats struct {
	InputLengthMean   float64       `json:"inputLengthMean" yaml:"inputLengthMean"`
	InputLengthMedian float64       `json:"inputLengthMedian" yaml:"inputLengthMedian"`
	InputLengthMax    int           `json:"inputLengthMax" yaml:"inputLengthMax"`
	TrialMean         time.Duration `json:"trialMeanNanos" yaml:"trialMeanNanos"`
	TrialP95          time.Duration `json:"trialP95Nanos" yaml:"trialP95Nanos"`
}

// ComputeStats summarizes the generated input lengths and per-trial
// latencies of a run. Returns nil when there is nothing to summarize.
func ComputeStats(lengths []int, latencies []time.Duration) *Stats {
	if len(lengths) == 0 || len(latencies) == 0 {
		return nil
	}

	lengthData := stats.LoadRawData(lengths)
	mean, err := stats.Mean(lengthData)
	if err != nil {
		return nil
	}
	median, err := stats.Median(lengthData)
	if err != nil {
		return nil
	}

	max := lengths[0]
	for _, l := range lengths[1:] {
		if l > max {
			max = l
		}
	}

	latencyData := make(stats.Float64Data, len(latencies))
	for i, d := range latencies {
		latencyData[i] = float64(d)
	}
	latencyMean, err := stats.Mean(latencyData)
	if err != nil {
		return nil
	}
	p95, err := stats.Percentile(latencyData, 95)
	if err != nil {
		return nil
	}

	return &Stats{
		InputLengthMean:   mean,
		InputLengthMedian: median,
		InputLengthMax:    max,
		TrialMean:         time.Duration(latencyMean),
		TrialP95:          time.Duration(p95),
	}
}
