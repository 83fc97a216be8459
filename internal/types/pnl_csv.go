package types

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
)

// AggregatedPnlSeriesFileName is the file name of an exported series inside a trader directory.
const AggregatedPnlSeriesFileName = "AggregatedPnlSeries.csv"

// WriteCsv writes one "<date>,<value>" line per entry in ascending date order, without a header.
func (s *PnlSeries) WriteCsv(w io.Writer) error {
	writer := csv.NewWriter(w)

	for _, p := range s.ToSortedPairs() {
		if err := writer.Write([]string{p.Date, FormatPnlValue(p.Value)}); err != nil {
			return errors.Wrap(errors.ErrCodeExportFailed, "failed to write csv line", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeExportFailed, "failed to flush csv", err)
	}

	return nil
}

// ExportCsv writes the series to path, replacing any existing file. The file is written to a
// temporary sibling first and renamed into place, so readers never see a partial file.
func (s *PnlSeries) ExportCsv(path string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create temporary file in %s", dir)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	buffered := bufio.NewWriter(tmp)
	if err := s.WriteCsv(buffered); err != nil {
		tmp.Close()

		return err
	}

	if err := buffered.Flush(); err != nil {
		tmp.Close()

		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write %s", path)
	}

	if err := tmp.Close(); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to close %s", tmpPath)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to set permissions on %s", tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to move csv into %s", path)
	}

	return nil
}

// ReadCsv parses the "<date>,<value>" format written by WriteCsv into a new series.
// Every line goes through the same validation as Set; a malformed line fails with an error
// naming its 1-based line number.
func ReadCsv(r io.Reader, opts ...SeriesOption) (*PnlSeries, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.ReuseRecord = true

	var pairs [][2]any

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to read pnl csv", err)
		}

		line, _ := reader.FieldPos(0)

		if _, err := NormalizeDateKey(record[0]); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid pnl csv line %d", line)
		}

		if _, err := CoercePnlValue(record[1]); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid pnl csv line %d", line)
		}

		pairs = append(pairs, [2]any{record[0], record[1]})
	}

	series, err := NewPnlSeriesFromList(pairs, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataParseFailed, "failed to parse pnl csv", err)
	}

	return series, nil
}

// ImportCsv reads a series previously written by ExportCsv.
func ImportCsv(path string, opts ...SeriesOption) (*PnlSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to open %s", path)
	}
	defer f.Close()

	return ReadCsv(f, opts...)
}
