package config

import "time"

type DatabaseConfig struct {
	URI            string        `yaml:"uri"`
	Database       string        `yaml:"database"`
	MaxPoolSize    uint64        `yaml:"max_pool_size"`
	MinPoolSize    uint64        `yaml:"min_pool_size"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SocketTimeout  time.Duration `yaml:"socket_timeout"`
	WriteMajority  bool          `yaml:"write_majority"`
	RunMigrations  bool          `yaml:"run_migrations"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URI:            getEnv("MONGO_URL", "mongodb://localhost:27017"),
		Database:       getEnv("DB_NAME", "seeker_adventure"),
		MaxPoolSize:    uint64(getEnvAsInt("MONGODB_MAX_POOL_SIZE", 50)),
		MinPoolSize:    uint64(getEnvAsInt("MONGODB_MIN_POOL_SIZE", 2)),
		ConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		SocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
		WriteMajority:  getEnvAsBool("MONGODB_WRITE_MAJORITY", false),
		RunMigrations:  getEnvAsBool("MONGODB_RUN_MIGRATIONS", true),
	}
}
