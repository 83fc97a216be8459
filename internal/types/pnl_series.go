package types

import (
	"reflect"
	"sort"

	"github.com/rxtech-lab/pnl-downloader/internal/logger"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"go.uber.org/zap"
)

// Pair is one entry of a PnL series: a canonical YYYYMMDD date and its PnL value.
type Pair struct {
	Date  string
	Value float64
}

// PnlSeries is a date-keyed PnL series. Keys are always canonical YYYYMMDD strings and values
// are always finite; the only way in is through validated insertion.
type PnlSeries struct {
	entries map[string]float64
	logger  *logger.Logger
}

// SeriesOption configures a PnlSeries.
type SeriesOption func(*PnlSeries)

// WithLogger sets the logger used for duplicate-key diagnostics during bulk loads.
func WithLogger(l *logger.Logger) SeriesOption {
	return func(s *PnlSeries) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewPnlSeries creates an empty series.
func NewPnlSeries(opts ...SeriesOption) *PnlSeries {
	s := &PnlSeries{
		entries: make(map[string]float64),
		logger:  logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewPnlSeriesFromList creates a series from an ordered list of (date, value) pairs.
// See BulkLoad for the accepted shapes.
func NewPnlSeriesFromList(pairs any, opts ...SeriesOption) (*PnlSeries, error) {
	s := NewPnlSeries(opts...)
	if err := s.BulkLoad(pairs); err != nil {
		return nil, err
	}

	return s, nil
}

// Set validates and canonicalizes key and value, then inserts or overwrites the entry.
// Nothing is inserted when either fails.
func (s *PnlSeries) Set(key any, value any) error {
	dateKey, err := NormalizeDateKey(key)
	if err != nil {
		return err
	}

	v, err := CoercePnlValue(value)
	if err != nil {
		return err
	}

	s.entries[dateKey] = v

	return nil
}

// BulkLoad inserts an ordered list of pairs. pairs must be a slice or array whose elements are
// either Pair values or two-element slices/arrays holding (date, value). Duplicate dates are
// logged and the later pair wins. The load is all-or-nothing.
func (s *PnlSeries) BulkLoad(pairs any) error {
	rv := reflect.ValueOf(pairs)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return errors.Newf(errors.ErrCodeInvalidType, "bulk load expects a list of pairs, got %T", pairs)
	}

	staged := make(map[string]float64, rv.Len())
	order := make([]string, 0, rv.Len())

	for i := 0; i < rv.Len(); i++ {
		key, value, err := unpackPair(rv.Index(i))
		if err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "invalid pair at index %d", i)
		}

		dateKey, err := NormalizeDateKey(key)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidDateKey, err, "invalid pair at index %d", i)
		}

		v, err := CoercePnlValue(value)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidPnlValue, err, "invalid pair at index %d", i)
		}

		if _, ok := staged[dateKey]; ok {
			s.logger.Warn("Duplicate date in pnl list, later value wins",
				zap.String("date", dateKey),
				zap.Int("index", i))
		} else {
			order = append(order, dateKey)
		}

		staged[dateKey] = v
	}

	for _, dateKey := range order {
		s.entries[dateKey] = staged[dateKey]
	}

	return nil
}

func unpackPair(elem reflect.Value) (any, any, error) {
	for elem.Kind() == reflect.Interface || elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			return nil, nil, errors.New(errors.ErrCodeInvalidPairLength, "pair is nil")
		}

		elem = elem.Elem()
	}

	if p, ok := elem.Interface().(Pair); ok {
		return p.Date, p.Value, nil
	}

	if elem.Kind() != reflect.Slice && elem.Kind() != reflect.Array {
		return nil, nil, errors.Newf(errors.ErrCodeInvalidPairLength, "pair must have 2 elements, got %s", elem.Type())
	}

	if elem.Len() != 2 {
		return nil, nil, errors.Newf(errors.ErrCodeInvalidPairLength, "pair must have 2 elements, got %d", elem.Len())
	}

	return elem.Index(0).Interface(), elem.Index(1).Interface(), nil
}

// Get returns the value stored under key, which is normalized first.
func (s *PnlSeries) Get(key any) (float64, bool) {
	dateKey, err := NormalizeDateKey(key)
	if err != nil {
		return 0, false
	}

	v, ok := s.entries[dateKey]

	return v, ok
}

// Len returns the number of entries.
func (s *PnlSeries) Len() int {
	return len(s.entries)
}

// Keys returns the canonical date keys in ascending order.
func (s *PnlSeries) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}

	// YYYYMMDD sorts lexicographically in date order
	sort.Strings(keys)

	return keys
}

// ToSortedPairs returns the entries ordered ascending by date.
func (s *PnlSeries) ToSortedPairs() []Pair {
	keys := s.Keys()
	pairs := make([]Pair, 0, len(keys))

	for _, k := range keys {
		pairs = append(pairs, Pair{Date: k, Value: s.entries[k]})
	}

	return pairs
}
