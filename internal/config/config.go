package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// RetryConfig bounds every backoff loop in the pipeline.
type RetryConfig struct {
	BackoffBase time.Duration
	BackoffCap  time.Duration
}

// EdgeConfig lists the tunable parameters for the edge agent.
type EdgeConfig struct {
	CompanyID string
	DeviceID  string
	ThingName string

	StreamURL      string
	Bucket         string
	BrokerURL      string
	ClientIDPrefix string
	HTTPPort       int

	CACertPath     string
	ClientCertPath string
	ClientKeyPath  string

	MaxCaptureRetries  int
	CaptureTimeout     time.Duration
	UploadRetries      int
	MQTTConnectRetries int
	Retry              RetryConfig
}

// AnalyzerConfig lists the tunable parameters for the analysis invoker.
type AnalyzerConfig struct {
	ModelBackend       string // "bedrock" or "gemini"
	ModelID            string
	MaxOutputTokens    int
	ModelTimeout       time.Duration
	ModelInvokeRetries int
	DispatcherFunction string
	ForwardRetries     int
	Retry              RetryConfig
}

// DispatcherConfig lists the tunable parameters for the result dispatcher.
type DispatcherConfig struct {
	PublishRetries      int
	EscalationThreshold int
	AuditTable          string
	Retry               RetryConfig
}

// IndicatorConfig lists the tunable parameters for the result listener.
type IndicatorConfig struct {
	CompanyID string
	DeviceID  string
	ThingName string

	BrokerURL          string
	ClientIDPrefix     string
	CACertPath         string
	ClientCertPath     string
	ClientKeyPath      string
	MQTTConnectRetries int
	Retry              RetryConfig
}

const (
	defaultHTTPPort           = 8080
	defaultMaxCaptureRetries  = 3
	defaultCaptureTimeout     = 10 * time.Second
	defaultUploadRetries      = 3
	defaultMQTTConnectRetries = 5
	defaultModelBackend       = "bedrock"
	defaultModelID            = "anthropic.claude-3-haiku-20240307-v1:0"
	defaultMaxOutputTokens    = 1024
	defaultModelTimeout       = 60 * time.Second
	defaultModelInvokeRetries = 2
	defaultForwardRetries     = 3
	defaultPublishRetries     = 3
	defaultEscalation         = 4
	defaultBackoffBase        = 500 * time.Millisecond
	defaultBackoffCap         = 10 * time.Second
	defaultClientIDPrefix     = "sitewatch"
)

// LoadEdge derives the edge agent configuration from environment variables,
// falling back to defaults. The stream URL and bucket are mandatory.
func LoadEdge() (EdgeConfig, error) {
	cfg := EdgeConfig{
		CompanyID:          os.Getenv("SITEWATCH_COMPANY_ID"),
		DeviceID:           os.Getenv("SITEWATCH_DEVICE_ID"),
		ThingName:          os.Getenv("AWS_IOT_THING_NAME"),
		StreamURL:          os.Getenv("SITEWATCH_STREAM_URL"),
		Bucket:             os.Getenv("SITEWATCH_BUCKET"),
		BrokerURL:          os.Getenv("SITEWATCH_MQTT_BROKER"),
		ClientIDPrefix:     defaultClientIDPrefix,
		HTTPPort:           defaultHTTPPort,
		CACertPath:         os.Getenv("SITEWATCH_CA_CERT"),
		ClientCertPath:     os.Getenv("SITEWATCH_CLIENT_CERT"),
		ClientKeyPath:      os.Getenv("SITEWATCH_CLIENT_KEY"),
		MaxCaptureRetries:  defaultMaxCaptureRetries,
		CaptureTimeout:     defaultCaptureTimeout,
		UploadRetries:      defaultUploadRetries,
		MQTTConnectRetries: defaultMQTTConnectRetries,
		Retry:              RetryConfig{BackoffBase: defaultBackoffBase, BackoffCap: defaultBackoffCap},
	}

	if cfg.StreamURL == "" {
		return EdgeConfig{}, fmt.Errorf("SITEWATCH_STREAM_URL is required")
	}
	if cfg.Bucket == "" {
		return EdgeConfig{}, fmt.Errorf("SITEWATCH_BUCKET is required")
	}
	if cfg.BrokerURL == "" {
		return EdgeConfig{}, fmt.Errorf("SITEWATCH_MQTT_BROKER is required")
	}

	if v := os.Getenv("SITEWATCH_CLIENT_ID_PREFIX"); v != "" {
		cfg.ClientIDPrefix = v
	}

	var err error
	if cfg.HTTPPort, err = intEnv("SITEWATCH_HTTP_PORT", cfg.HTTPPort); err != nil {
		return EdgeConfig{}, err
	}
	if cfg.MaxCaptureRetries, err = intEnv("SITEWATCH_MAX_CAPTURE_RETRIES", cfg.MaxCaptureRetries); err != nil {
		return EdgeConfig{}, err
	}
	if cfg.CaptureTimeout, err = msEnv("SITEWATCH_CAPTURE_TIMEOUT_MS", cfg.CaptureTimeout); err != nil {
		return EdgeConfig{}, err
	}
	if cfg.UploadRetries, err = intEnv("SITEWATCH_UPLOAD_RETRIES", cfg.UploadRetries); err != nil {
		return EdgeConfig{}, err
	}
	if cfg.MQTTConnectRetries, err = intEnv("SITEWATCH_MQTT_CONNECT_RETRIES", cfg.MQTTConnectRetries); err != nil {
		return EdgeConfig{}, err
	}
	if cfg.Retry, err = retryEnv(cfg.Retry); err != nil {
		return EdgeConfig{}, err
	}

	return cfg, nil
}

// LoadAnalyzer derives the analysis invoker configuration.
func LoadAnalyzer() (AnalyzerConfig, error) {
	cfg := AnalyzerConfig{
		ModelBackend:       defaultModelBackend,
		ModelID:            defaultModelID,
		MaxOutputTokens:    defaultMaxOutputTokens,
		ModelTimeout:       defaultModelTimeout,
		ModelInvokeRetries: defaultModelInvokeRetries,
		DispatcherFunction: os.Getenv("SITEWATCH_DISPATCHER_FUNCTION"),
		ForwardRetries:     defaultForwardRetries,
		Retry:              RetryConfig{BackoffBase: defaultBackoffBase, BackoffCap: defaultBackoffCap},
	}

	if cfg.DispatcherFunction == "" {
		return AnalyzerConfig{}, fmt.Errorf("SITEWATCH_DISPATCHER_FUNCTION is required")
	}

	if v := os.Getenv("SITEWATCH_MODEL_BACKEND"); v != "" {
		if v != "bedrock" && v != "gemini" {
			return AnalyzerConfig{}, fmt.Errorf("unsupported SITEWATCH_MODEL_BACKEND: %s", v)
		}
		cfg.ModelBackend = v
	}
	if v := os.Getenv("SITEWATCH_MODEL_ID"); v != "" {
		cfg.ModelID = v
	}

	var err error
	if cfg.MaxOutputTokens, err = intEnv("SITEWATCH_MAX_OUTPUT_TOKENS", cfg.MaxOutputTokens); err != nil {
		return AnalyzerConfig{}, err
	}
	if cfg.ModelTimeout, err = msEnv("SITEWATCH_MODEL_TIMEOUT_MS", cfg.ModelTimeout); err != nil {
		return AnalyzerConfig{}, err
	}
	if cfg.ModelInvokeRetries, err = intEnv("SITEWATCH_MODEL_INVOKE_RETRIES", cfg.ModelInvokeRetries); err != nil {
		return AnalyzerConfig{}, err
	}
	if cfg.ForwardRetries, err = intEnv("SITEWATCH_FORWARD_RETRIES", cfg.ForwardRetries); err != nil {
		return AnalyzerConfig{}, err
	}
	if cfg.Retry, err = retryEnv(cfg.Retry); err != nil {
		return AnalyzerConfig{}, err
	}

	return cfg, nil
}

// LoadDispatcher derives the result dispatcher configuration. The audit table
// is optional; when unset no audit records are written.
func LoadDispatcher() (DispatcherConfig, error) {
	cfg := DispatcherConfig{
		PublishRetries:      defaultPublishRetries,
		EscalationThreshold: defaultEscalation,
		AuditTable:          os.Getenv("SITEWATCH_AUDIT_TABLE"),
		Retry:               RetryConfig{BackoffBase: defaultBackoffBase, BackoffCap: defaultBackoffCap},
	}

	var err error
	if cfg.PublishRetries, err = intEnv("SITEWATCH_PUBLISH_RETRIES", cfg.PublishRetries); err != nil {
		return DispatcherConfig{}, err
	}
	if cfg.EscalationThreshold, err = intEnv("SITEWATCH_ESCALATION_THRESHOLD", cfg.EscalationThreshold); err != nil {
		return DispatcherConfig{}, err
	}
	if cfg.Retry, err = retryEnv(cfg.Retry); err != nil {
		return DispatcherConfig{}, err
	}

	return cfg, nil
}

// LoadIndicator derives the result listener configuration.
func LoadIndicator() (IndicatorConfig, error) {
	cfg := IndicatorConfig{
		CompanyID:          os.Getenv("SITEWATCH_COMPANY_ID"),
		DeviceID:           os.Getenv("SITEWATCH_DEVICE_ID"),
		ThingName:          os.Getenv("AWS_IOT_THING_NAME"),
		BrokerURL:          os.Getenv("SITEWATCH_MQTT_BROKER"),
		ClientIDPrefix:     defaultClientIDPrefix,
		CACertPath:         os.Getenv("SITEWATCH_CA_CERT"),
		ClientCertPath:     os.Getenv("SITEWATCH_CLIENT_CERT"),
		ClientKeyPath:      os.Getenv("SITEWATCH_CLIENT_KEY"),
		MQTTConnectRetries: defaultMQTTConnectRetries,
		Retry:              RetryConfig{BackoffBase: defaultBackoffBase, BackoffCap: defaultBackoffCap},
	}

	if cfg.BrokerURL == "" {
		return IndicatorConfig{}, fmt.Errorf("SITEWATCH_MQTT_BROKER is required")
	}
	if v := os.Getenv("SITEWATCH_CLIENT_ID_PREFIX"); v != "" {
		cfg.ClientIDPrefix = v
	}

	var err error
	if cfg.MQTTConnectRetries, err = intEnv("SITEWATCH_MQTT_CONNECT_RETRIES", cfg.MQTTConnectRetries); err != nil {
		return IndicatorConfig{}, err
	}
	if cfg.Retry, err = retryEnv(cfg.Retry); err != nil {
		return IndicatorConfig{}, err
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}

func msEnv(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func retryEnv(fallback RetryConfig) (RetryConfig, error) {
	cfg := fallback
	var err error
	if cfg.BackoffBase, err = msEnv("SITEWATCH_BACKOFF_BASE_MS", cfg.BackoffBase); err != nil {
		return RetryConfig{}, err
	}
	if cfg.BackoffCap, err = msEnv("SITEWATCH_BACKOFF_CAP_MS", cfg.BackoffCap); err != nil {
		return RetryConfig{}, err
	}
	return cfg, nil
}
