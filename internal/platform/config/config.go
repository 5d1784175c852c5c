package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JudgeBaseURL         string
	JudgeAPIKey          string
	JudgeAPIHost         string
	JudgePollInterval    time.Duration
	JudgeMaxWait         time.Duration
	JudgeMaxPollAttempts int
	JudgeRequestTimeout  time.Duration

	UserLockTTL  time.Duration
	UserLockWait time.Duration

	OrphanQueueName     string
	ReconcileInterval   time.Duration
	ReconcileStaleAfter time.Duration

	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "algoarena"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JudgeBaseURL:         getEnv("JUDGE_BASE_URL", "http://localhost:2358"),
		JudgeAPIKey:          getEnv("JUDGE_API_KEY", ""),
		JudgeAPIHost:         getEnv("JUDGE_API_HOST", ""),
		JudgePollInterval:    getEnvAsDuration("JUDGE_POLL_INTERVAL", time.Second),
		JudgeMaxWait:         getEnvAsDuration("JUDGE_MAX_WAIT", 60*time.Second),
		JudgeMaxPollAttempts: getEnvAsInt("JUDGE_MAX_POLL_ATTEMPTS", 60),
		JudgeRequestTimeout:  getEnvAsDuration("JUDGE_REQUEST_TIMEOUT", 10*time.Second),

		UserLockTTL:  getEnvAsDuration("USER_LOCK_TTL", 10*time.Second),
		UserLockWait: getEnvAsDuration("USER_LOCK_WAIT", 3*time.Second),

		OrphanQueueName:     getEnv("ORPHAN_QUEUE_NAME", "orphaned_submissions"),
		ReconcileInterval:   getEnvAsDuration("RECONCILE_INTERVAL", time.Minute),
		ReconcileStaleAfter: getEnvAsDuration("RECONCILE_STALE_AFTER", 10*time.Minute),

		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if floor := AppConfig.MinReconcileStaleAfter(); AppConfig.ReconcileStaleAfter < floor {
		log.Printf("RECONCILE_STALE_AFTER %s would sweep submissions still being judged, using %s", AppConfig.ReconcileStaleAfter, floor)
		AppConfig.ReconcileStaleAfter = floor
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// HTTPRequestTimeout bounds an authenticated request. It leaves room for the
// judge poll plus the database work around it.
func (c *Config) HTTPRequestTimeout() time.Duration {
	return c.JudgeMaxWait + 30*time.Second
}

// MinReconcileStaleAfter is the smallest stale age at which a pending
// submission can no longer belong to an in-flight request.
func (c *Config) MinReconcileStaleAfter() time.Duration {
	return c.HTTPRequestTimeout() + time.Minute
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("1s", "250ms").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}
