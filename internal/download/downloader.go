package download

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/pnl-downloader/internal/logger"
	"github.com/rxtech-lab/pnl-downloader/internal/rowsource"
	"github.com/rxtech-lab/pnl-downloader/internal/tracing"
	"github.com/rxtech-lab/pnl-downloader/internal/types"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OnProgress is called once per strategy after its rows were fetched and, when output is
// partitioned, exported. Calls are serialized.
type OnProgress func(done, total int, strategyID string)

// Option configures a Downloader.
type Option func(*Downloader)

// WithProgress sets the progress callback.
func WithProgress(onProgress OnProgress) Option {
	return func(d *Downloader) {
		d.onProgress = onProgress
	}
}

// Downloader fans strategies out to bounded workers that resolve their traders, fetch PnL rows,
// group them per trader and optionally export one CSV per trader.
type Downloader struct {
	source     rowsource.RowSource
	logger     *logger.Logger
	validate   *validator.Validate
	onProgress OnProgress
}

// NewDownloader creates a downloader reading from source. The source must be safe for
// concurrent use; its lifetime is owned by the caller.
func NewDownloader(source rowsource.RowSource, log *logger.Logger, opts ...Option) *Downloader {
	if log == nil {
		log = logger.NewNopLogger()
	}

	d := &Downloader{
		source:   source,
		logger:   log,
		validate: newValidator(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

type strategyOutcome struct {
	traders map[string]*types.TraderPnlLog
	// order lists trader ids by first appearance in the fetched rows.
	order []string
	rows  int
	err   error
}

// Download processes every strategy in params and blocks until all of them finished.
//
// A failing strategy does not stop its siblings: the result holds every strategy that
// completed, failures are listed in Result.Failed, and the returned error combines them.
func (d *Downloader) Download(ctx context.Context, params Params) (*Result, error) {
	params = params.withDefaults()
	if err := params.validate(d.validate); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := &logger.Logger{Logger: d.logger.With(zap.String("run_id", runID))}
	startedAt := time.Now()

	log.Info("Starting pnl download",
		zap.Strings("strategies", params.StrategyIDs),
		zap.String("start_date", params.StartDate),
		zap.Int("concurrency", params.Concurrency),
		zap.Bool("flatten", params.Flatten))

	total := len(params.StrategyIDs)
	outcomes := make([]strategyOutcome, total)

	var (
		progressMu sync.Mutex
		done       int
		group      errgroup.Group
	)

	group.SetLimit(params.Concurrency)

	for i, strategyID := range params.StrategyIDs {
		group.Go(func() error {
			outcomes[i] = d.downloadStrategy(ctx, log, params, strategyID)

			progressMu.Lock()
			done++
			if d.onProgress != nil {
				d.onProgress(done, total, strategyID)
			}
			progressMu.Unlock()

			// failures are reported through the outcome so siblings keep running
			return nil
		})
	}

	group.Wait()

	if params.Flatten && params.OutputRoot.IsSome() {
		d.exportFlattened(ctx, log, params, outcomes)
	}

	result := newResult(runID, !params.Flatten)

	var errs error

	for i, strategyID := range params.StrategyIDs {
		outcome := outcomes[i]
		result.Summary.Strategies = append(result.Summary.Strategies, newStrategySummary(strategyID, outcome))

		if outcome.err != nil {
			result.Failed[strategyID] = outcome.err
			errs = multierr.Append(errs, outcome.err)

			continue
		}

		result.add(strategyID, outcome.traders)
	}

	result.Summary.StartDate = params.StartDate
	result.Summary.StartedAt = startedAt
	result.Summary.FinishedAt = time.Now()

	if params.SummaryPath.IsSome() {
		if err := WriteSummary(params.SummaryPath.Unwrap(), result.Summary); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	log.Info("Finished pnl download",
		zap.Int("strategies", total),
		zap.Int("failed", len(result.Failed)),
		zap.Duration("elapsed", result.Summary.FinishedAt.Sub(startedAt)))

	return result, errs
}

func (d *Downloader) downloadStrategy(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	strategyID string,
) strategyOutcome {
	ctx, span := tracing.StartSpan(ctx, "download.strategy",
		trace.WithAttributes(attribute.String("strategy_id", strategyID)))
	defer span.End()

	log = &logger.Logger{Logger: log.With(zap.String("strategy_id", strategyID))}

	outcome, err := d.fetchStrategy(ctx, log, params, strategyID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "strategy download failed")

		return failedOutcome(log, strategyID, outcome.rows, err)
	}

	span.SetAttributes(attribute.Int("traders", len(outcome.traders)), attribute.Int("rows", outcome.rows))

	return outcome
}

func (d *Downloader) fetchStrategy(
	ctx context.Context,
	log *logger.Logger,
	params Params,
	strategyID string,
) (strategyOutcome, error) {
	log.Info("Downloading strategy")

	traderIDs, err := d.source.TradersForStrategy(ctx, strategyID)
	if err != nil {
		return strategyOutcome{}, err
	}

	rows, err := d.source.PnlForTraders(ctx, traderIDs, params.StartDate)
	if err != nil {
		return strategyOutcome{}, err
	}

	traders, order, err := groupRows(strategyID, rows)
	if err != nil {
		return strategyOutcome{rows: len(rows)}, err
	}

	log.Info("Downloaded strategy",
		zap.Int("traders", len(traderIDs)),
		zap.Int("traders_with_rows", len(traders)),
		zap.Int("rows", len(rows)))

	outcome := strategyOutcome{traders: traders, order: order, rows: len(rows)}

	// flattened output is written after every strategy finished, see exportFlattened
	if params.OutputRoot.IsNone() || params.Flatten {
		return outcome, nil
	}

	if err := checkPathSegment(strategyID); err != nil {
		return outcome, err
	}

	dir := filepath.Join(params.OutputRoot.Unwrap(), strategyID)

	exports, err := prepareExports(log, dir, outcome)
	if err != nil {
		return outcome, err
	}

	if err := writeExports(exports); err != nil {
		return outcome, err
	}

	log.Info("Exported strategy", zap.String("path", dir), zap.Int("traders", len(exports)))

	return outcome, nil
}

// exportFlattened writes the traders of every successful strategy directly under the output
// root, one strategy at a time in input order. A trader shared by several strategies ends up
// holding the series of the strategy listed last, the same log Result.ByTrader keeps.
// A strategy whose export fails is turned into a failed outcome.
func (d *Downloader) exportFlattened(ctx context.Context, log *logger.Logger, params Params, outcomes []strategyOutcome) {
	dir := params.OutputRoot.Unwrap()
	owners := make(map[string]string)

	for i, strategyID := range params.StrategyIDs {
		if outcomes[i].err != nil {
			continue
		}

		_, span := tracing.StartSpan(ctx, "download.export",
			trace.WithAttributes(attribute.String("strategy_id", strategyID)))

		strategyLog := &logger.Logger{Logger: log.With(zap.String("strategy_id", strategyID))}

		exports, err := prepareExports(strategyLog, dir, outcomes[i])
		if err == nil {
			for _, export := range exports {
				if previous, ok := owners[export.dir]; ok && previous != strategyID {
					strategyLog.Warn("Trader output already written by another strategy, overwriting",
						zap.String("previous_strategy_id", previous),
						zap.String("path", export.dir))
				}

				owners[export.dir] = strategyID
			}

			err = writeExports(exports)
		}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "strategy export failed")
			outcomes[i] = failedOutcome(strategyLog, strategyID, outcomes[i].rows, err)
		} else {
			strategyLog.Info("Exported strategy", zap.String("path", dir), zap.Int("traders", len(exports)))
		}

		span.End()
	}
}

func failedOutcome(log *logger.Logger, strategyID string, rows int, err error) strategyOutcome {
	log.Error("Strategy download failed", zap.Error(err))

	return strategyOutcome{
		rows: rows,
		err:  errors.Wrapf(errors.ErrCodeStrategyDownloadFailed, err, "strategy %s", strategyID),
	}
}

// groupRows builds one log per trader, keeping the row order. order lists trader ids by
// first appearance.
func groupRows(strategyID string, rows []types.PnlRow) (map[string]*types.TraderPnlLog, []string, error) {
	traders := make(map[string]*types.TraderPnlLog)
	order := make([]string, 0)

	for _, row := range rows {
		traderLog, ok := traders[row.TraderID]
		if !ok {
			traderLog = types.NewTraderPnlLog(row.TraderID, strategyID)
			traders[row.TraderID] = traderLog
			order = append(order, row.TraderID)
		}

		if err := traderLog.Append(row.Record()); err != nil {
			return nil, nil, err
		}
	}

	return traders, order, nil
}

// traderExport is one trader series ready to be written into its own directory.
type traderExport struct {
	dir    string
	series *types.PnlSeries
}

// prepareExports builds the series of every trader of a strategy, so a bad trader fails the
// strategy before anything on disk is touched.
func prepareExports(log *logger.Logger, dir string, outcome strategyOutcome) ([]traderExport, error) {
	exports := make([]traderExport, 0, len(outcome.order))

	for _, traderID := range outcome.order {
		traderLog := outcome.traders[traderID]
		if err := checkPathSegment(traderLog.Name()); err != nil {
			return nil, err
		}

		series, err := traderLog.ToPnlSeries(types.WithLogger(log))
		if err != nil {
			return nil, err
		}

		exports = append(exports, traderExport{
			dir:    filepath.Join(dir, traderLog.Name()+TraderDirSuffix),
			series: series,
		})
	}

	return exports, nil
}

// writeExports replaces each <dir>/<trader>.csv/ with a directory holding only the trader's series.
func writeExports(exports []traderExport) error {
	for _, export := range exports {
		if err := os.RemoveAll(export.dir); err != nil {
			return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to remove %s", export.dir)
		}

		if err := os.MkdirAll(export.dir, 0755); err != nil {
			return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", export.dir)
		}

		if err := export.series.ExportCsv(filepath.Join(export.dir, types.AggregatedPnlSeriesFileName)); err != nil {
			return err
		}
	}

	return nil
}

// checkPathSegment rejects ids that would escape their parent directory.
func checkPathSegment(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || id != filepath.Clean(id) {
		return errors.Newf(errors.ErrCodeExportFailed, "id %q cannot be used as a directory name", id)
	}

	return nil
}
