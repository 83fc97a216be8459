package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110

	// PnL series errors (150-199)
	ErrCodeInvalidDateKey    ErrorCode = 150
	ErrCodeInvalidPnlValue   ErrorCode = 151
	ErrCodeInvalidPairLength ErrorCode = 152
	ErrCodeInvalidRecordType ErrorCode = 153

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Download errors (700-799)
	ErrCodeMarketDataParseFailed   ErrorCode = 702
	ErrCodeExportFailed            ErrorCode = 710
	ErrCodeStrategyDownloadFailed  ErrorCode = 711
	ErrCodeOutputDirectoryConflict ErrorCode = 712
)
