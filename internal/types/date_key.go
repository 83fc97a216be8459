package types

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"github.com/shopspring/decimal"
)

// DateKeyLayout is the canonical layout of PnL series keys.
const DateKeyLayout = "20060102"

// NormalizeDateKey converts a date representation into the canonical YYYYMMDD key.
//
// Accepted inputs are time.Time, integers, floats with a zero fractional part and strings,
// all of which must denote a valid calendar date in YYYYMMDD form.
func NormalizeDateKey(key any) (string, error) {
	switch k := key.(type) {
	case time.Time:
		if k.IsZero() {
			return "", errors.New(errors.ErrCodeInvalidDateKey, "date key is the zero time")
		}

		return k.Format(DateKeyLayout), nil
	case *time.Time:
		if k == nil {
			return "", errors.New(errors.ErrCodeInvalidDateKey, "date key is a nil time")
		}

		return NormalizeDateKey(*k)
	case string:
		return parseDateKey(k)
	case int:
		return parseDateKey(strconv.FormatInt(int64(k), 10))
	case int8:
		return parseDateKey(strconv.FormatInt(int64(k), 10))
	case int16:
		return parseDateKey(strconv.FormatInt(int64(k), 10))
	case int32:
		return parseDateKey(strconv.FormatInt(int64(k), 10))
	case int64:
		return parseDateKey(strconv.FormatInt(k, 10))
	case uint:
		return parseDateKey(strconv.FormatUint(uint64(k), 10))
	case uint8:
		return parseDateKey(strconv.FormatUint(uint64(k), 10))
	case uint16:
		return parseDateKey(strconv.FormatUint(uint64(k), 10))
	case uint32:
		return parseDateKey(strconv.FormatUint(uint64(k), 10))
	case uint64:
		return parseDateKey(strconv.FormatUint(k, 10))
	case float32:
		return floatDateKey(float64(k))
	case float64:
		return floatDateKey(k)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidDateKey, "unsupported date key type %T", key)
	}
}

func floatDateKey(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return "", errors.Newf(errors.ErrCodeInvalidDateKey, "date key %v has a fractional part", f)
	}

	if f < 0 || f > math.MaxInt64 {
		return "", errors.Newf(errors.ErrCodeInvalidDateKey, "date key %v is out of range", f)
	}

	return parseDateKey(strconv.FormatInt(int64(f), 10))
}

func parseDateKey(s string) (string, error) {
	if len(s) != len(DateKeyLayout) {
		return "", errors.Newf(errors.ErrCodeInvalidDateKey, "date key %q is not in YYYYMMDD form", s)
	}

	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidDateKey, err, "date key %q is not a calendar date", s)
	}

	return t.Format(DateKeyLayout), nil
}

// CoercePnlValue converts a PnL value into a finite float64.
//
// Accepted inputs are integers, floats, decimal.Decimal and strings parseable as a float.
func CoercePnlValue(value any) (float64, error) {
	var f float64

	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case decimal.Decimal:
		f = v.InexactFloat64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Wrapf(errors.ErrCodeInvalidPnlValue, err, "pnl value %q is not a number", v)
		}

		f = parsed
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidPnlValue, "unsupported pnl value type %T", value)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidPnlValue, "pnl value %v is not finite", value)
	}

	return f, nil
}

// FormatPnlValue renders v with the shortest text that parses back to the same float64.
// Integral values keep a trailing ".0" and very large or very small magnitudes use
// exponent notation, so exported files read 2.0 rather than 2.
func FormatPnlValue(v float64) string {
	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}

	return s
}
