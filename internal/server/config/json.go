package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filevault/internal/flagx"
	"github.com/dmitrijs2005/filevault/internal/timex"
)

// JsonConfig is the on-disk form of Config. Duration fields accept either
// strings such as "24h" or integer nanoseconds. Fields left out of the file
// keep their current values.
type JsonConfig struct {
	HTTPAddress     *string         `json:"http_address"`
	DatabaseDSN     *string         `json:"database_dsn"`
	SessionDir      *string         `json:"session_dir"`
	SessionTTL      *timex.Duration `json:"session_ttl"`
	BlobBackend     *string         `json:"blob_backend"`
	BlobRoot        *string         `json:"blob_root"`
	S3User          *string         `json:"s3_user"`
	S3Password      *string         `json:"s3_password"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3Endpoint      *string         `json:"s3_endpoint"`
	QueueBackend    *string         `json:"queue_backend"`
	Workers         *int            `json:"workers"`
	JobMaxAttempts  *int            `json:"job_max_attempts"`
	JobBackoffUnit  *timex.Duration `json:"job_backoff_unit"`
	JobPollInterval *timex.Duration `json:"job_poll_interval"`
	JobLease        *timex.Duration `json:"job_lease"`
	ConnectRate     *float64        `json:"connect_rate"`
	ConnectBurst    *int            `json:"connect_burst"`
	MaxBodyBytes    *int64          `json:"max_body_bytes"`
}

// parseJson loads the file named by -c or -config, if any, into config.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SessionDir, c.SessionDir)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.BlobRoot, c.BlobRoot)
	setString(&config.S3User, c.S3User)
	setString(&config.S3Password, c.S3Password)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.QueueBackend, c.QueueBackend)
	if c.Workers != nil {
		config.Workers = *c.Workers
	}
	if c.JobMaxAttempts != nil {
		config.JobMaxAttempts = *c.JobMaxAttempts
	}
	if c.JobBackoffUnit != nil {
		config.JobBackoffUnit = c.JobBackoffUnit.Duration
	}
	if c.JobPollInterval != nil {
		config.JobPollInterval = c.JobPollInterval.Duration
	}
	if c.JobLease != nil {
		config.JobLease = c.JobLease.Duration
	}
	if c.ConnectRate != nil {
		config.ConnectRate = *c.ConnectRate
	}
	if c.ConnectBurst != nil {
		config.ConnectBurst = *c.ConnectBurst
	}
	if c.MaxBodyBytes != nil {
		config.MaxBodyBytes = *c.MaxBodyBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
