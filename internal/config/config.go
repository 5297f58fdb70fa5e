package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            int
	CameraDevice    string // Device index ("0") or stream URL
	StaticDirectory string
	LogDirectory    string
	AllowedOrigins  []string

	ModelPath      string // .onnx (YOLOv8 export) or frozen graph used together with ConfigPath
	ConfigPath     string // Only for SSD-style models
	ClassNamesPath string // Optional, one label per line
	InputSize      int
	ModelThreshold float64 // Score below which the network output is dropped before NMS
	NMSThreshold   float64

	ConfidenceThreshold float64 // Detections below this are neither reported nor drawn
	FocalLength         float64
	ReferenceWidth      float64 // Meters, applied to every class
	StatusInterval      time.Duration
	JPEGQuality         int
}

// Load reads an optional .env file and builds the Config from environment
// variables, falling back to defaults for anything unset or malformed.
func Load() *Config {
	_ = godotenv.Load(getEnv("ENV_FILE", ".env"))

	return &Config{
		Port:            getEnvAsInt("PORT", 5000),
		CameraDevice:    getEnv("CAMERA_DEVICE", "0"),
		StaticDirectory: getEnv("STATIC_DIR", filepath.Join(".", "static")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),

		ModelPath:      getEnv("MODEL_PATH", filepath.Join(".", "models", "yolov8n.onnx")),
		ConfigPath:     getEnv("CONFIG_PATH", ""),
		ClassNamesPath: getEnv("CLASS_NAMES_PATH", ""),
		InputSize:      getEnvAsInt("INPUT_SIZE", 640),
		ModelThreshold: getEnvAsFloat("MODEL_THRESHOLD", 0.25),
		NMSThreshold:   getEnvAsFloat("NMS_THRESHOLD", 0.45),

		ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.6),
		FocalLength:         getEnvAsFloat("FOCAL_LENGTH", 700),
		ReferenceWidth:      getEnvAsFloat("REFERENCE_WIDTH", 0.5),
		StatusInterval:      getEnvAsDuration("STATUS_INTERVAL", 1500*time.Millisecond),
		JPEGQuality:         getEnvAsInt("JPEG_QUALITY", 80),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1500ms") as well as plain seconds ("1.5").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
