// Package constants provides shared constants for the fincalc application.
package constants

// Financial constants
const (
	// LTVFallbackPeriods is the number of periods a customer is assumed to
	// stay when churn is zero.
	LTVFallbackPeriods = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the semicolon separated line-item report
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable projection dump
	OutputFormatJSON = "json"

	// OutputFormatHTML is the rendered markdown report
	OutputFormatHTML = "html"

	// OutputFormatPDF is the HTML report printed through headless Chromium
	OutputFormatPDF = "pdf"
)

// Display defaults
const (
	// DefaultCurrency is the ISO 4217 code used when none is configured
	DefaultCurrency = "BRL"

	// DefaultLocale is the BCP 47 tag used when none is configured
	DefaultLocale = "pt-BR"
)

// Sensitivity sweep defaults
const (
	// DefaultSensitivitySteps is the number of steps on each side of the current price
	DefaultSensitivitySteps = 5

	// DefaultSensitivityStepPercent is the price change per step, in percentage points
	DefaultSensitivityStepPercent = 5.0
)

// Goal seek defaults
const (
	DefaultGoalSeekTolerance     = 0.01
	DefaultGoalSeekMaxIterations = 100
	DefaultGoalSeekUpperBound    = 1e7
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix namespaces environment overrides (FINCALC_OUTPUT_FORMAT, ...)
	EnvPrefix = "FINCALC"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultHistoryLimit is the number of history entries returned when no limit is given
	DefaultHistoryLimit = 50

	// DefaultRateLimitCapacity is the number of API calls a client may burst
	DefaultRateLimitCapacity = 120

	// DefaultMetricsNamespace prefixes every exported Prometheus metric
	DefaultMetricsNamespace = "fincalc"
)
