package config

// Config holds all configuration for the CLI tools
type Config struct {
	Environment string          `mapstructure:"environment"`
	Logger      LoggerConfig    `mapstructure:"logger"`
	Converter   ConverterConfig `mapstructure:"converter"`
	Compare     CompareConfig   `mapstructure:"compare"`
}

// LoggerConfig contains logger settings
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ConverterConfig contains settings for the format converter
type ConverterConfig struct {
	// ExamplesDir is listed as a hint when the input file is missing
	ExamplesDir string `mapstructure:"examplesDir"`
}

// CompareConfig contains settings for the transaction comparer
type CompareConfig struct {
	// MaxReportedMismatches caps how many differing records are printed
	// in full before the summary line
	MaxReportedMismatches int `mapstructure:"maxReportedMismatches"`
}
