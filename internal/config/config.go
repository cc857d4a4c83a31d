package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	AIURL           string        `mapstructure:"AI_URL"`
	AIModel         string        `mapstructure:"AI_MODEL"`
	AIAPIKey        string        `mapstructure:"AI_API_KEY"`
	AIMaxTokens     int           `mapstructure:"AI_MAX_TOKENS"`
	WeatherURL      string        `mapstructure:"WEATHER_URL"`
	WeatherLat      float64       `mapstructure:"WEATHER_LAT"`
	WeatherLon      float64       `mapstructure:"WEATHER_LON"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`
	DailyTargetKg   float64       `mapstructure:"DAILY_TARGET_KG"`
	ForecastJitter  float64       `mapstructure:"FORECAST_JITTER"`
	ForecastSeed    uint64        `mapstructure:"FORECAST_SEED"`
	Timezone        string        `mapstructure:"TIMEZONE"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("AI_URL", "")
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_MAX_TOKENS", 600)
	v.SetDefault("WEATHER_URL", "")
	v.SetDefault("WEATHER_LAT", 0.5071)
	v.SetDefault("WEATHER_LON", 101.4478)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("DAILY_TARGET_KG", 40000)
	v.SetDefault("FORECAST_JITTER", 0.1)
	v.SetDefault("FORECAST_SEED", 0)
	v.SetDefault("TIMEZONE", "Asia/Jakarta")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves the plant's timezone used for "today" and week windows.
// An unknown zone falls back to the process local time.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
