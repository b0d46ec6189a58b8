package storage

import (
	"time"

	"github.com/spk-docs/doctracker/internal/config"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	URLExpiry time.Duration
}

// ConfigFrom converts the loaded application config. It returns nil when no
// endpoint is set, which disables snapshot uploads.
func ConfigFrom(c config.StorageConfig) *MinIOConfig {
	if c.Endpoint == "" {
		return nil
	}
	expiry := c.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &MinIOConfig{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		UseSSL:    c.UseSSL,
		Bucket:    c.Bucket,
		URLExpiry: expiry,
	}
}
