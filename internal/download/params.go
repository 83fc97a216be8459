package download

import (
	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
)

const (
	// DefaultStartDate is the first date downloaded when none is given.
	DefaultStartDate = "20170101"
	// DefaultConcurrency is the number of strategies fetched at the same time.
	DefaultConcurrency = 10
	// TraderDirSuffix is appended to the trader id to name its output directory.
	// Downstream consumers read <trader>.csv/AggregatedPnlSeries.csv.
	TraderDirSuffix = ".csv"
)

// Params holds the parameters of a download request.
type Params struct {
	// StrategyIDs lists the strategies to download. Order is kept in the result.
	// Ids must be unique.
	StrategyIDs []string `validate:"required,min=1,unique,dive,required"`
	// StartDate is the first date (YYYYMMDD, inclusive) of the downloaded rows.
	StartDate string `validate:"required,datekey"`
	// Concurrency bounds the number of strategies processed at the same time.
	Concurrency int `validate:"min=1"`
	// OutputRoot is the directory CSV files are exported to. None disables export.
	OutputRoot optional.Option[string]
	// Flatten writes every trader directly under OutputRoot and keys the result by trader.
	// Traders sharing an id across strategies keep the strategy listed last, on disk and in
	// the result. The zero value partitions output and result by strategy.
	Flatten bool
	// SummaryPath, when set, receives a YAML summary of the run.
	SummaryPath optional.Option[string]
}

// DefaultParams returns the parameters of a partitioned download of the given strategies
// starting on DefaultStartDate, without file export.
func DefaultParams(strategyIDs ...string) Params {
	return Params{
		StrategyIDs: strategyIDs,
		StartDate:   DefaultStartDate,
		Concurrency: DefaultConcurrency,
		OutputRoot:  optional.None[string](),
		SummaryPath: optional.None[string](),
	}
}

// withDefaults fills the start date and concurrency when left at their zero values.
func (p Params) withDefaults() Params {
	if p.StartDate == "" {
		p.StartDate = DefaultStartDate
	}

	if p.Concurrency == 0 {
		p.Concurrency = DefaultConcurrency
	}

	return p
}

func newValidator() *validator.Validate {
	validate := validator.New()

	validate.RegisterValidation("datekey", func(fl validator.FieldLevel) bool {
		_, err := types.NormalizeDateKey(fl.Field().String())

		return err == nil
	})

	return validate
}

func (p Params) validate(validate *validator.Validate) error {
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if p.OutputRoot.IsSome() && p.OutputRoot.Unwrap() == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "output root must not be empty")
	}

	return nil
}
