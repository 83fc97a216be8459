package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/pnl-downloader/internal/download"
	"github.com/rxtech-lab/pnl-downloader/internal/rowsource"
	"github.com/rxtech-lab/pnl-downloader/internal/version"
	"github.com/rxtech-lab/pnl-downloader/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables that override values from the config file.
const (
	EnvDBDriver = "PNL_DB_DRIVER"
	EnvDBDSN    = "PNL_DB_DSN"
	EnvLogLevel = "PNL_LOG_LEVEL"
)

// DefaultDotEnvFile is read by LoadDotEnv when no file is given.
const DefaultDotEnvFile = ".env"

// SchemaFileName is the name used for the generated JSON schema.
const SchemaFileName = "pnl-downloader-config.json"

type DatabaseConfig struct {
	Driver      string `yaml:"driver" json:"driver" validate:"required,oneof=duckdb sqlite3" jsonschema:"title=Driver,description=Database driver used to read PnL rows,enum=duckdb,enum=sqlite3"`
	DSN         string `yaml:"dsn" json:"dsn" validate:"required" jsonschema:"title=DSN,description=Data source name passed to the driver"`
	TraderTable string `yaml:"trader_table,omitempty" json:"trader_table,omitempty" jsonschema:"title=Trader Table,description=Table mapping traders to strategies,default=TraderDbo"`
	LogTable    string `yaml:"log_table,omitempty" json:"log_table,omitempty" jsonschema:"title=Log Table,description=Table holding daily trader PnL rows,default=TraderLogDbo"`
}

type DownloadConfig struct {
	StartDate           string   `yaml:"start_date,omitempty" json:"start_date,omitempty" validate:"omitempty,len=8,numeric" jsonschema:"title=Start Date,description=Earliest date to download as YYYYMMDD,pattern=^[0-9]{8}$,default=20170101"`
	Concurrency         int      `yaml:"concurrency,omitempty" json:"concurrency,omitempty" validate:"min=0" jsonschema:"title=Concurrency,description=Maximum number of strategies downloaded at once,minimum=1,default=10"`
	OutputRoot          string   `yaml:"output_root,omitempty" json:"output_root,omitempty" jsonschema:"title=Output Root,description=Directory receiving one CSV per trader. Empty disables export"`
	PartitionByStrategy *bool    `yaml:"partition_by_strategy,omitempty" json:"partition_by_strategy,omitempty" jsonschema:"title=Partition By Strategy,description=Write traders below a directory per strategy,default=true"`
	Strategies          []string `yaml:"strategies,omitempty" json:"strategies,omitempty" validate:"dive,required" jsonschema:"title=Strategies,description=Strategy ids to download"`
	SummaryPath         string   `yaml:"summary_path,omitempty" json:"summary_path,omitempty" jsonschema:"title=Summary Path,description=Optional YAML file receiving a run summary"`
}

type LogConfig struct {
	Level string `yaml:"level,omitempty" json:"level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"title=Level,description=Minimum log level,enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Print OpenTelemetry spans of each strategy download to stderr"`
}

// Config is the content of a pnl downloader config file.
type Config struct {
	Version  string         `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Version of the binary the file was written for"`
	Database DatabaseConfig `yaml:"database" json:"database" jsonschema:"title=Database"`
	Download DownloadConfig `yaml:"download" json:"download" jsonschema:"title=Download"`
	Log      LogConfig      `yaml:"log,omitempty" json:"log,omitempty" jsonschema:"title=Log"`
	Tracing  TracingConfig  `yaml:"tracing,omitempty" json:"tracing,omitempty" jsonschema:"title=Tracing"`
}

// Default returns a config with every optional value filled in.
func Default() Config {
	partition := true

	return Config{
		Version: version.Version,
		Database: DatabaseConfig{
			Driver:      string(rowsource.DriverDuckDB),
			DSN:         "pm.duckdb",
			TraderTable: rowsource.DefaultTraderTable,
			LogTable:    rowsource.DefaultLogTable,
		},
		Download: DownloadConfig{
			StartDate:           download.DefaultStartDate,
			Concurrency:         download.DefaultConcurrency,
			PartitionByStrategy: &partition,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of Default, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read config file %s", path)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config file %s", path)
		}
	}

	config.ApplyEnv(os.LookupEnv)

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadDotEnv loads variables from a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnvFile
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load %s", path)
	}

	return nil
}

// ApplyEnv overrides config values with the environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookup(EnvDBDriver); ok && value != "" {
		c.Database.Driver = value
	}

	if value, ok := lookup(EnvDBDSN); ok && value != "" {
		c.Database.DSN = value
	}

	if value, ok := lookup(EnvLogLevel); ok && value != "" {
		c.Log.Level = value
	}
}

// Validate checks field constraints and the config version.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	if err := version.CheckConfigCompatibility(version.Version, c.Version); err != nil {
		return err
	}

	return nil
}

// RowSourceConfig returns the settings used to open the row source.
func (c Config) RowSourceConfig() rowsource.Config {
	return rowsource.Config{
		Driver:      rowsource.Driver(c.Database.Driver),
		DSN:         c.Database.DSN,
		TraderTable: c.Database.TraderTable,
		LogTable:    c.Database.LogTable,
	}
}

// DownloadParams returns the download parameters described by the config.
func (c Config) DownloadParams() download.Params {
	params := download.DefaultParams(c.Download.Strategies...)
	params.StartDate = c.Download.StartDate
	params.Concurrency = c.Download.Concurrency

	if c.Download.PartitionByStrategy != nil {
		params.Flatten = !*c.Download.PartitionByStrategy
	}

	if c.Download.OutputRoot != "" {
		params.OutputRoot = optional.Some(c.Download.OutputRoot)
	}

	if c.Download.SummaryPath != "" {
		params.SummaryPath = optional.Some(c.Download.SummaryPath)
	}

	return params
}

// GenerateSchema generates a JSON schema for Config.
func GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "pnl-downloader-config"
	schema.Description = "Configuration schema for the pnl downloader"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates the JSON schema as an indented string.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(schemaBytes), nil
}

// SampleYAML renders the default config prefixed with a yaml-language-server schema comment.
func SampleYAML() ([]byte, error) {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal sample config", err)
	}

	return append([]byte("# yaml-language-server: $schema="+SchemaFileName+"\n"), data...), nil
}

// SampleFileName is the name used for the generated sample config.
const SampleFileName = "pnl-downloader-config.yaml"

// WriteSchemaFiles writes the JSON schema into dir and, unless one already exists, a sample
// config referencing it. It returns the paths of both files.
func WriteSchemaFiles(dir string) (string, string, error) {
	schemaPath := filepath.Join(dir, SchemaFileName)
	samplePath := filepath.Join(dir, SampleFileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", dir)
	}

	schemaJSON, err := GenerateSchemaJSON()
	if err != nil {
		return "", "", err
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return "", "", errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write %s", schemaPath)
	}

	if _, err := os.Stat(samplePath); os.IsNotExist(err) {
		sample, err := SampleYAML()
		if err != nil {
			return "", "", err
		}

		if err := os.WriteFile(samplePath, sample, 0644); err != nil {
			return "", "", errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to write %s", samplePath)
		}
	}

	return schemaPath, samplePath, nil
}
