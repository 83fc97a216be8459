package download

import (
	"os"
	"time"

	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Result is the outcome of a download. Exactly one of ByStrategy and ByTrader is populated,
// depending on Partitioned.
type Result struct {
	// RunID identifies the download in logs and in the summary.
	RunID string
	// Partitioned reports whether results are keyed by strategy.
	Partitioned bool
	// ByStrategy maps strategy id to trader id to log.
	ByStrategy map[string]map[string]*types.TraderPnlLog
	// ByTrader maps trader id to log across all strategies. A trader id present in several
	// strategies keeps the log of the strategy listed last.
	ByTrader map[string]*types.TraderPnlLog
	// Failed maps each failed strategy to its error. Failed strategies are absent from
	// ByStrategy and ByTrader.
	Failed map[string]error
	// Summary describes the run.
	Summary Summary
}

func newResult(runID string, partitioned bool) *Result {
	r := &Result{
		RunID:       runID,
		Partitioned: partitioned,
		Failed:      make(map[string]error),
		Summary:     Summary{RunID: runID},
	}

	if partitioned {
		r.ByStrategy = make(map[string]map[string]*types.TraderPnlLog)
	} else {
		r.ByTrader = make(map[string]*types.TraderPnlLog)
	}

	return r
}

func (r *Result) add(strategyID string, traders map[string]*types.TraderPnlLog) {
	if r.Partitioned {
		r.ByStrategy[strategyID] = traders

		return
	}

	for traderID, traderLog := range traders {
		r.ByTrader[traderID] = traderLog
	}
}

// Summary is a serializable description of a download run.
type Summary struct {
	RunID      string            `yaml:"run_id" json:"run_id"`
	StartDate  string            `yaml:"start_date" json:"start_date"`
	StartedAt  time.Time         `yaml:"started_at" json:"started_at"`
	FinishedAt time.Time         `yaml:"finished_at" json:"finished_at"`
	Strategies []StrategySummary `yaml:"strategies" json:"strategies"`
}

// StrategySummary describes one strategy of a run.
type StrategySummary struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Traders    int    `yaml:"traders" json:"traders"`
	Rows       int    `yaml:"rows" json:"rows"`
	Error      string `yaml:"error,omitempty" json:"error,omitempty"`
}

func newStrategySummary(strategyID string, outcome strategyOutcome) StrategySummary {
	s := StrategySummary{
		StrategyID: strategyID,
		Traders:    len(outcome.traders),
		Rows:       outcome.rows,
	}

	if outcome.err != nil {
		s.Error = outcome.err.Error()
	}

	return s
}

// WriteSummary writes a run summary to a YAML file.
func WriteSummary(path string, summary Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to marshal download summary to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to write download summary to file", err)
	}

	return nil
}

// ReadSummary reads a run summary from a YAML file.
func ReadSummary(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeDataNotFound, "failed to read download summary file", err)
	}

	var summary Summary
	if err := yaml.Unmarshal(data, &summary); err != nil {
		return Summary{}, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to unmarshal download summary", err)
	}

	return summary, nil
}
