package config

import (
	"errors"
	"fmt"

	"seekeradv/pkg/storage"
)

// Validate rejects settings the server cannot run with. Gateways without
// credentials are allowed; they are simply not offered.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URI == "" {
		errs = append(errs, errors.New("MONGO_URL is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid APP_PORT %d", c.App.Port))
	}
	switch c.Storage.Provider {
	case storage.ProviderLocal, storage.ProviderS3:
	default:
		errs = append(errs, fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider))
	}
	if c.Storage.Provider == storage.ProviderS3 && c.Storage.S3.Bucket == "" {
		errs = append(errs, errors.New("AWS_S3_BUCKET is required for aws storage"))
	}

	return errors.Join(errs...)
}
