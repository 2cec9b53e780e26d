package config

import "seekeradv/pkg/storage"

// StorageConfig selects where bank transfer proofs are kept.
type StorageConfig struct {
	Provider  string           `yaml:"provider"`
	LocalPath string           `yaml:"local_path"`
	LocalURL  string           `yaml:"local_url"`
	MaxSize   int64            `yaml:"max_size"`
	S3        *S3StorageConfig `yaml:"s3"`
}

type S3StorageConfig struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	PublicURL       string `yaml:"public_url"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Provider:  getEnv("STORAGE_PROVIDER", storage.ProviderLocal),
		LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		LocalURL:  getEnv("STORAGE_LOCAL_URL", "http://localhost:8001/uploads"),
		MaxSize:   int64(getEnvAsInt("PROOF_MAX_SIZE", 10<<20)),
		S3: &S3StorageConfig{
			Region:          getEnv("AWS_S3_REGION", "ap-southeast-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("AWS_S3_ENDPOINT", ""),
			PublicURL:       getEnv("AWS_S3_PUBLIC_URL", ""),
		},
	}
}

func (c *StorageConfig) IsLocal() bool {
	return c.Provider == storage.ProviderLocal
}

func (c *StorageConfig) StoreConfig() storage.Config {
	return storage.Config{
		Provider:  c.Provider,
		LocalPath: c.LocalPath,
		LocalURL:  c.LocalURL,
		MaxSize:   c.MaxSize,
		S3: storage.S3Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			PublicURL:       c.S3.PublicURL,
		},
	}
}
