package seed

import (
	"testing"
	"time"

	"github.com/rxtech-lab/pnl-downloader/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42) // Fixed seed for reproducibility
	config := DefaultConfig()
	config.Days = 100

	rows := gen.Generate(config)

	if len(rows) != 100 {
		t.Errorf("expected 100 rows, got %d", len(rows))
	}

	// Verify rows are in chronological order with canonical dates
	for i := 1; i < len(rows); i++ {
		if rows[i].Date <= rows[i-1].Date {
			t.Errorf("rows not in chronological order at index %d", i)
		}
	}

	for i, r := range rows {
		if r.TraderID != config.TraderID {
			t.Errorf("expected trader %s at index %d, got %s", config.TraderID, i, r.TraderID)
		}

		key, err := types.NormalizeDateKey(r.Date)
		if err != nil || key != r.Date {
			t.Errorf("date %q at index %d is not canonical", r.Date, i)
		}

		day, _ := time.Parse(types.DateKeyLayout, r.Date)
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			t.Errorf("weekend date %s at index %d", r.Date, i)
		}

		if r.Capital <= 0 || r.Commission < 0 || r.Slippage < 0 {
			t.Errorf("invalid row at index %d: %+v", i, r)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	// Same seed should produce same results
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(42)

	config := DefaultConfig()
	config.Days = 10

	rows1 := gen1.Generate(config)
	rows2 := gen2.Generate(config)

	for i := range rows1 {
		if rows1[i] != rows2[i] {
			t.Errorf("rows not reproducible at index %d: got %+v and %+v", i, rows1[i], rows2[i])
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	gen1 := NewDataGenerator(42)
	gen2 := NewDataGenerator(123)

	config := DefaultConfig()
	config.Days = 10

	rows1 := gen1.Generate(config)
	rows2 := gen2.Generate(config)

	// Different seeds should produce different results
	sameCount := 0
	for i := range rows1 {
		if rows1[i].Pnl == rows2[i].Pnl {
			sameCount++
		}
	}

	if sameCount == len(rows1) {
		t.Error("different seeds produced identical rows")
	}
}

func TestGenerateMultiTrader(t *testing.T) {
	traders := []string{"T1", "T2", "T3"}
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Days = 20

	rows := gen.GenerateMultiTrader(traders, config)

	expectedTotal := len(traders) * config.Days
	if len(rows) != expectedTotal {
		t.Errorf("expected %d rows, got %d", expectedTotal, len(rows))
	}

	traderCounts := make(map[string]int)
	for _, r := range rows {
		traderCounts[r.TraderID]++
	}

	for _, trader := range traders {
		if traderCounts[trader] != config.Days {
			t.Errorf("expected %d rows for %s, got %d", config.Days, trader, traderCounts[trader])
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Days != 250 {
		t.Errorf("expected default days 250, got %d", config.Days)
	}

	if config.TraderID != "TEST" {
		t.Errorf("expected default trader TEST, got %s", config.TraderID)
	}

	if config.StartDate.Format(types.DateKeyLayout) != "20170102" {
		t.Errorf("expected default start date 20170102, got %s", config.StartDate)
	}
}
