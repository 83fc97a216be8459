package types

import (
	"fmt"

	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
)

// SingleTraderPnlRecord is one day of a trader's PnL log.
type SingleTraderPnlRecord struct {
	// Date is the trading date as returned by the row source, canonically YYYYMMDD.
	Date string
	// Pnl is the profit and loss of the day.
	Pnl float64
	// Commission paid on the day.
	Commission float64
	// Slippage incurred on the day.
	Slippage float64
	// Capital allocated to the trader on the day.
	Capital float64
}

// PnlRow is a row returned by the row source for a set of traders.
type PnlRow struct {
	Date       string
	TraderID   string
	Pnl        float64
	Commission float64
	Slippage   float64
	Capital    float64
}

// Record drops the trader id from the row.
func (r PnlRow) Record() SingleTraderPnlRecord {
	return SingleTraderPnlRecord{
		Date:       r.Date,
		Pnl:        r.Pnl,
		Commission: r.Commission,
		Slippage:   r.Slippage,
		Capital:    r.Capital,
	}
}

// TraderPnlLog is the ordered PnL log of exactly one trader.
type TraderPnlLog struct {
	name         string
	strategyName string
	records      []SingleTraderPnlRecord
}

// NewTraderPnlLog creates an empty log for the trader. strategyName may be empty.
func NewTraderPnlLog(name, strategyName string) *TraderPnlLog {
	return &TraderPnlLog{
		name:         name,
		strategyName: strategyName,
	}
}

// Name returns the trader name.
func (l *TraderPnlLog) Name() string {
	return l.name
}

// StrategyName returns the strategy the trader belongs to, or "" when unknown.
func (l *TraderPnlLog) StrategyName() string {
	return l.strategyName
}

// Len returns the number of records.
func (l *TraderPnlLog) Len() int {
	return len(l.records)
}

// Records returns a copy of the records in append order.
func (l *TraderPnlLog) Records() []SingleTraderPnlRecord {
	out := make([]SingleTraderPnlRecord, len(l.records))
	copy(out, l.records)

	return out
}

// Append adds a record. Only SingleTraderPnlRecord values (or non-nil pointers to one) are
// accepted.
func (l *TraderPnlLog) Append(item any) error {
	switch r := item.(type) {
	case SingleTraderPnlRecord:
		l.records = append(l.records, r)
	case *SingleTraderPnlRecord:
		if r == nil {
			return errors.New(errors.ErrCodeInvalidRecordType, "cannot append a nil record")
		}

		l.records = append(l.records, *r)
	default:
		return errors.Newf(errors.ErrCodeInvalidRecordType, "cannot append %T to trader pnl log", item)
	}

	return nil
}

// ToPnlSeries projects (date, pnl) from every record into a new series, in record order.
// Records sharing a date overwrite each other with a warning.
func (l *TraderPnlLog) ToPnlSeries(opts ...SeriesOption) (*PnlSeries, error) {
	pairs := make([][2]any, 0, len(l.records))
	for _, r := range l.records {
		pairs = append(pairs, [2]any{r.Date, r.Pnl})
	}

	series, err := NewPnlSeriesFromList(pairs, opts...)
	if err != nil {
		return nil, errors.Wrapf(errors.GetCode(err), err, "failed to build pnl series for trader %s", l.name)
	}

	return series, nil
}

func (l *TraderPnlLog) String() string {
	return fmt.Sprintf("TraderPnlLog{name: %s, strategy: %s, len: %d}", l.name, l.strategyName, len(l.records))
}
