// Package observability wires OpenTelemetry tracing, metrics and structured
// logging for pyscry runs.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

const (
	defaultServiceName     = "pyscry"
	defaultShutdownTimeout = 5

	envOTLPEndpoint      = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOTLPHeaders       = "OTEL_EXPORTER_OTLP_HEADERS"
	envOTLPInsecure      = "OTEL_EXPORTER_OTLP_INSECURE"
	envTracesSampler     = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg  = "OTEL_TRACES_SAMPLER_ARG"
	headerPairSeparator  = ","
	headerValueSeparator = "="
)

// Config holds the observability settings of one run.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the version of the running binary.
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC collector address. Empty disables
	// export and the providers become no-ops.
	OTLPEndpoint string

	// OTLPHeaders are extra gRPC metadata headers sent to the collector.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool

	// Sampler and SamplerArg follow OTEL_TRACES_SAMPLER and
	// OTEL_TRACES_SAMPLER_ARG. Empty samples every root span.
	Sampler    string
	SamplerArg string

	LogLevel slog.Level
	LogJSON  bool

	// LogWriter receives log records. Nil means stderr.
	LogWriter io.Writer

	// ShutdownTimeoutSec bounds the final flush.
	ShutdownTimeoutSec int
}

// DefaultConfig returns the zero-setup configuration: no export, info logs.
func DefaultConfig() Config {
	return Config{
		ServiceName:        defaultServiceName,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeout,
	}
}

// FromEnv fills exporter and sampler settings from the standard OTEL_*
// variables. Fields already set on cfg are kept.
func FromEnv(cfg Config) Config {
	if cfg.OTLPEndpoint == "" {
		cfg.OTLPEndpoint = os.Getenv(envOTLPEndpoint)
	}

	if cfg.OTLPHeaders == nil {
		cfg.OTLPHeaders = ParseOTLPHeaders(os.Getenv(envOTLPHeaders))
	}

	if insecure, err := strconv.ParseBool(os.Getenv(envOTLPInsecure)); err == nil && insecure {
		cfg.OTLPInsecure = true
	}

	if cfg.Sampler == "" {
		cfg.Sampler = os.Getenv(envTracesSampler)
		cfg.SamplerArg = os.Getenv(envTracesSamplerArg)
	}

	return cfg
}

// ParseOTLPHeaders parses "key=value,key=value". Pairs without "=" are
// dropped; nil is returned when nothing remains.
func ParseOTLPHeaders(raw string) map[string]string {
	var headers map[string]string

	for pair := range strings.SplitSeq(raw, headerPairSeparator) {
		k, v, ok := strings.Cut(pair, headerValueSeparator)
		if !ok {
			continue
		}

		if headers == nil {
			headers = make(map[string]string)
		}

		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return headers
}
