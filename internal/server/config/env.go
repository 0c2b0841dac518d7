package config

import (
	"fmt"
	"os"
	"strconv"
)

// parseEnv overlays values from the process environment. PORT only carries
// the port number; the server listens on all interfaces.
func parseEnv(config *Config) error {
	if v, ok := os.LookupEnv("PORT"); ok && v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		config.HTTPAddress = ":" + v
	}

	lookup := map[string]*string{
		"DATABASE_DSN":  &config.DatabaseDSN,
		"FOLDER_PATH":   &config.BlobRoot,
		"SESSION_DIR":   &config.SessionDir,
		"BLOB_BACKEND":  &config.BlobBackend,
		"QUEUE_BACKEND": &config.QueueBackend,
		"S3_USER":       &config.S3User,
		"S3_PASSWORD":   &config.S3Password,
		"S3_BUCKET":     &config.S3Bucket,
		"S3_REGION":     &config.S3Region,
		"S3_ENDPOINT":   &config.S3Endpoint,
	}
	for name, dst := range lookup {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORKERS: %w", err)
		}
		config.Workers = n
	}

	if v, ok := os.LookupEnv("MAX_BODY_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_BODY_BYTES: %w", err)
		}
		config.MaxBodyBytes = n
	}
	return nil
}
