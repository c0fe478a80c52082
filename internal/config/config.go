package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Storage    StorageConfig
	Separation SeparationConfig
	Audio      AudioConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig configures the optional HMAC bearer auth. An empty secret
// disables auth entirely.
type JWTConfig struct {
	Secret string
}

type RateLimitConfig struct {
	AnalyzePerHour int
	PlanPerMin     int
	RenderPerHour  int
}

// StorageConfig selects the object storage backend. Kind is "s3" or
// "local"; Endpoint makes the S3 client work against MinIO or R2.
type StorageConfig struct {
	Kind            string
	LocalPath       string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

// SeparationConfig points at the external stem-separation service.
type SeparationConfig struct {
	ServiceURL string
	Model      string
	Timeout    int // seconds
}

// AudioConfig holds the engine constants. These are configuration, not
// hidden literals: the crossfade curve and the chorus-repetition energy
// threshold are deliberate tuning knobs.
type AudioConfig struct {
	TargetLUFS            float64
	HeadroomDB            float64
	MinDurationSeconds    float64
	ChorusEnergyThreshold float64
	CrossfadeCurve        string
}

func Load() (*Config, error) {
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("STORAGE_ACCESS_KEY_ID")
	readSecret("STORAGE_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("storage.kind", "STORAGE_KIND")
	_ = viper.BindEnv("storage.local_path", "STORAGE_LOCAL_PATH")
	_ = viper.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	_ = viper.BindEnv("storage.region", "STORAGE_REGION")
	_ = viper.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.bucket", "STORAGE_BUCKET")
	_ = viper.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	_ = viper.BindEnv("separation.service_url", "SEPARATION_SERVICE_URL")
	_ = viper.BindEnv("separation.model", "SEPARATION_MODEL")
	_ = viper.BindEnv("separation.timeout", "SEPARATION_TIMEOUT")
	_ = viper.BindEnv("audio.target_lufs", "AUDIO_TARGET_LUFS")
	_ = viper.BindEnv("audio.headroom_db", "AUDIO_HEADROOM_DB")
	_ = viper.BindEnv("audio.crossfade_curve", "AUDIO_CROSSFADE_CURVE")

	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("ratelimit.analyze_per_hour", 30)
	viper.SetDefault("ratelimit.plan_per_min", 60)
	viper.SetDefault("ratelimit.render_per_hour", 10)
	viper.SetDefault("storage.kind", "local")
	viper.SetDefault("storage.local_path", "./storage")
	viper.SetDefault("storage.region", "auto")
	viper.SetDefault("separation.service_url", "http://localhost:8084")
	viper.SetDefault("separation.model", "htdemucs")
	viper.SetDefault("separation.timeout", 600)
	viper.SetDefault("audio.target_lufs", -14.0)
	viper.SetDefault("audio.headroom_db", 1.0)
	viper.SetDefault("audio.min_duration_seconds", 10.0)
	viper.SetDefault("audio.chorus_energy_threshold", 1.1)
	viper.SetDefault("audio.crossfade_curve", "equal_power")

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		RateLimit: RateLimitConfig{
			AnalyzePerHour: viper.GetInt("ratelimit.analyze_per_hour"),
			PlanPerMin:     viper.GetInt("ratelimit.plan_per_min"),
			RenderPerHour:  viper.GetInt("ratelimit.render_per_hour"),
		},
		Storage: StorageConfig{
			Kind:            viper.GetString("storage.kind"),
			LocalPath:       viper.GetString("storage.local_path"),
			Endpoint:        viper.GetString("storage.endpoint"),
			Region:          viper.GetString("storage.region"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			Bucket:          viper.GetString("storage.bucket"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
		Separation: SeparationConfig{
			ServiceURL: viper.GetString("separation.service_url"),
			Model:      viper.GetString("separation.model"),
			Timeout:    viper.GetInt("separation.timeout"),
		},
		Audio: AudioConfig{
			TargetLUFS:            viper.GetFloat64("audio.target_lufs"),
			HeadroomDB:            viper.GetFloat64("audio.headroom_db"),
			MinDurationSeconds:    viper.GetFloat64("audio.min_duration_seconds"),
			ChorusEnergyThreshold: viper.GetFloat64("audio.chorus_energy_threshold"),
			CrossfadeCurve:        viper.GetString("audio.crossfade_curve"),
		},
	}

	return cfg, nil
}
