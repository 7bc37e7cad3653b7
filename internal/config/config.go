package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	Fetch     FetchConfig
	Storage   StorageConfig
	Warehouse WarehouseConfig
}

// FetchConfig holds the complaint source endpoints
type FetchConfig struct {
	APIEndpoint string
	BulkFileURL string
	Timeout     time.Duration
	PageSize    int
}

// StorageConfig holds the S3 staging configuration
type StorageConfig struct {
	Region   string
	Bucket   string
	Endpoint string // Custom endpoint for local testing
}

// WarehouseConfig holds warehouse-related configuration
type WarehouseConfig struct {
	Type            string // "redshift", "mongodb"
	Table           string
	Region          string
	RedshiftURI     string
	MongoDBURI      string
	MongoDBDatabase string
	AccessKeyID     string
	SecretAccessKey string
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	cfg := &Config{
		Fetch: FetchConfig{
			APIEndpoint: getEnv("API_ENDPOINT", "https://www.consumerfinance.gov/data-research/consumer-complaints/search/api/v1/"),
			BulkFileURL: getEnv("BULK_FILE_URL", "https://files.consumerfinance.gov/ccdb/complaints.csv.zip"),
			Timeout:     getEnvDuration("API_TIMEOUT", 60*time.Second),
			PageSize:    getEnvInt("API_PAGE_SIZE", 1000),
		},
		Storage: StorageConfig{
			Region:   getEnv("AWS_REGION", "us-west-2"),
			Bucket:   getEnv("S3_BUCKET_NAME", ""),
			Endpoint: getEnv("S3_ENDPOINT", ""), // For localstack/minio
		},
		Warehouse: WarehouseConfig{
			Type:            getEnv("WAREHOUSE_TYPE", "redshift"),
			Table:           getEnv("TABLE_NAME", "consumer_complaints"),
			Region:          getEnv("AWS_REGION", "us-west-2"),
			RedshiftURI:     getEnv("REDSHIFT_URI", ""),
			MongoDBURI:      getEnv("MONGODB_URI", ""),
			MongoDBDatabase: getEnv("MONGODB_DATABASE", "cfpb"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
