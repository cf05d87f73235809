package app

import "testing"

// TestDetermineLogLevel verifies log level precedence.
func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{name: "default", config: Config{}, want: "info"},
		{name: "verbose", config: Config{Verbose: true}, want: "debug"},
		{name: "quiet", config: Config{Quiet: true}, want: "warn"},
		{name: "quiet wins over verbose", config: Config{Verbose: true, Quiet: true}, want: "warn"},
		{name: "log level wins", config: Config{Verbose: true, LogLevel: "error"}, want: "error"},
		{name: "trace", config: Config{LogLevel: "trace"}, want: "trace"},
		{name: "invalid falls back to info", config: Config{Quiet: true, LogLevel: "loud"}, want: "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			if got := determineLogLevel(&config); got != tt.want {
				t.Errorf("determineLogLevel() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestValidateLogLevel verifies known and unknown levels.
func TestValidateLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		if got, ok := validateLogLevel(level); !ok || got != level {
			t.Errorf("validateLogLevel(%s) = %s, %v", level, got, ok)
		}
	}
	if got, ok := validateLogLevel("verbose"); ok || got != "info" {
		t.Errorf("validateLogLevel(verbose) = %s, %v; want info, false", got, ok)
	}
}

// TestNewLogger verifies the logger honors the configured level.
func TestNewLogger(t *testing.T) {
	logger := NewLogger(&Config{Quiet: true, LogFormat: "json", LogOutput: "stderr"})
	if got := logger.GetLevel().String(); got != "warn" {
		t.Errorf("logger level = %s, want warn", got)
	}
}
