package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

type Config struct {
	Recognizer RecognizerConfig
	Database   DatabaseConfig
	SMS        SMSConfig
	Web        WebConfig
	Messages   MessagesConfig
}

type RecognizerConfig struct {
	CascadePath   string  // path to the pigo face cascade binary
	ModelPath     string  // path to the FaceNet ONNX model
	InputSize     int     // model input size in pixels (square, default 160)
	EmbeddingDim  int     // embedding vector length (default 128)
	Threshold     float64 // cosine similarity match threshold (default 0.5)
	OrtLibPath    string  // optional path to the onnxruntime shared library
	MinFaceSize   int     // minimum detectable face size in pixels (default 20)
	MaxFaceSize   int     // maximum detectable face size in pixels (default 1000)
	DetQThreshold float32 // minimum pigo detection quality score (default 5.0)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type SMSConfig struct {
	GatewayURL string // HTTP SMS gateway endpoint; empty disables notifications
	APIKey     string
	SchoolName string // school name used in guardian messages
}

type WebConfig struct {
	SaveTimeoutSec int // bound on the attendance save operation (default 30)
}

// MessagesConfig holds the guardian notification templates embedded in the binary.
type MessagesConfig struct {
	Templates map[string]string `yaml:"templates"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable, returning the default when unset.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var messages MessagesConfig
	if err := yaml.Unmarshal(messagesYAML, &messages); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded messages.yaml: " + err.Error())
	}

	return &Config{
		Recognizer: RecognizerConfig{
			CascadePath:   os.Getenv("FACE_CASCADE_PATH"),
			ModelPath:     os.Getenv("FACE_MODEL_PATH"),
			InputSize:     envInt("FACE_INPUT_SIZE", 160),
			EmbeddingDim:  envInt("FACE_EMBEDDING_DIM", 128),
			Threshold:     envFloat("FACE_MATCH_THRESHOLD", 0.5),
			OrtLibPath:    os.Getenv("ORT_SHARED_LIBRARY_PATH"),
			MinFaceSize:   envInt("FACE_MIN_SIZE", 20),
			MaxFaceSize:   envInt("FACE_MAX_SIZE", 1000),
			DetQThreshold: float32(envFloat("FACE_DET_QUALITY", 5.0)),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		SMS: SMSConfig{
			GatewayURL: os.Getenv("SMS_GATEWAY_URL"),
			APIKey:     os.Getenv("SMS_API_KEY"),
			SchoolName: envString("SMS_SCHOOL_NAME", "School Management System"),
		},
		Web: WebConfig{
			SaveTimeoutSec: envInt("WEB_SAVE_TIMEOUT_SEC", 30),
		},
		Messages: messages,
	}
}

// Template returns the named message template, or the empty string if missing.
func (c *Config) Template(name string) string {
	return c.Messages.Templates[name]
}
