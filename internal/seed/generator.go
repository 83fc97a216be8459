package seed

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/pnl-downloader/internal/types"
)

// DataGenerator generates realistic daily trader PnL rows for testing and seeding.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how PnL rows are generated.
type GeneratorConfig struct {
	// TraderID is the trader the rows belong to
	TraderID string
	// StartDate is the first trading day
	StartDate time.Time
	// Days is the number of trading days to generate; weekends are skipped
	Days int
	// Capital is the starting capital of the trader
	Capital float64
	// Volatility is the daily return volatility (0.01 = 1%)
	Volatility float64
	// Trend is the drift of daily returns over the whole period
	Trend float64
	// CommissionRate is the commission charged as a fraction of capital per day
	CommissionRate float64
	// SlippageRate is the slippage as a fraction of absolute PnL
	SlippageRate float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		TraderID:       "TEST",
		StartDate:      time.Date(2017, 1, 2, 0, 0, 0, 0, time.UTC),
		Days:           250,
		Capital:        1_000_000,
		Volatility:     0.01,
		Trend:          0.05,
		CommissionRate: 0.0001,
		SlippageRate:   0.02,
	}
}

// Generate creates one PnL row per trading day. Capital compounds with the net PnL.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.PnlRow {
	rows := make([]types.PnlRow, 0, config.Days)
	capital := config.Capital
	day := config.StartDate

	for len(rows) < config.Days {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)

			continue
		}

		// Box-Muller transform for a normally distributed return
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		ret := config.Volatility*z + config.Trend/float64(config.Days)
		pnl := capital * ret
		commission := capital * config.CommissionRate
		slippage := math.Abs(pnl) * config.SlippageRate

		rows = append(rows, types.PnlRow{
			Date:       day.Format(types.DateKeyLayout),
			TraderID:   config.TraderID,
			Pnl:        roundToDecimals(pnl, 2),
			Commission: roundToDecimals(commission, 2),
			Slippage:   roundToDecimals(slippage, 2),
			Capital:    roundToDecimals(capital, 2),
		})

		capital += pnl - commission - slippage
		if capital <= 0 {
			capital = config.Capital * 0.01
		}

		day = day.AddDate(0, 0, 1)
	}

	return rows
}

// GenerateMultiTrader generates rows for several traders, varying capital and volatility
// slightly per trader.
func (g *DataGenerator) GenerateMultiTrader(traderIDs []string, baseConfig GeneratorConfig) []types.PnlRow {
	var allRows []types.PnlRow

	for _, traderID := range traderIDs {
		config := baseConfig
		config.TraderID = traderID
		config.Capital = baseConfig.Capital * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		allRows = append(allRows, g.Generate(config)...)
	}

	return allRows
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
