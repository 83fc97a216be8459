package mocks

//go:generate mockgen -destination=./mock_row_source.go -package=mocks github.com/rxtech-lab/pnl-downloader/internal/rowsource RowSource
