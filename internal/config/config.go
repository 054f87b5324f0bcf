package config

import (
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. LETTERSBOT_TELEGRAM_TOKEN
const EnvPrefix = "LETTERSBOT"

// Config is the application configuration
type Config struct {
	Database struct {
		Type    string `mapstructure:"type"`
		DataDir string `mapstructure:"data_dir"`
		URL     string `mapstructure:"url"`
	} `mapstructure:"database"`
	Telegram struct {
		Token          string  `mapstructure:"token"`
		LearnerChatID  int64   `mapstructure:"learner_chat_id"`
		SendRatePerSec float64 `mapstructure:"send_rate_per_sec"`
	} `mapstructure:"telegram"`
	Practice struct {
		QuestionsPerSession int           `mapstructure:"questions_per_session"`
		ReminderHour        int           `mapstructure:"reminder_hour"`
		Timezone            string        `mapstructure:"timezone"`
		SaveDebounce        time.Duration `mapstructure:"save_debounce"`
	} `mapstructure:"practice"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.data_dir", "data")
	v.SetDefault("database.url", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.learner_chat_id", 0)
	v.SetDefault("telegram.send_rate_per_sec", 20)
	v.SetDefault("practice.questions_per_session", 10)
	v.SetDefault("practice.reminder_hour", 18)
	v.SetDefault("practice.timezone", "UTC")
	v.SetDefault("practice.save_debounce", "2s")
	v.SetDefault("log.level", "info")
}

// Load reads .env (if present), the optional config file and the environment.
// An empty configFile looks for lettersbot.yaml in the working directory.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "failed to read .env")
	}

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("lettersbot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Names used by earlier deployments
	_ = v.BindEnv("telegram.token", EnvPrefix+"_TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("database.type", EnvPrefix+"_DATABASE_TYPE", "DB_TYPE")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	return &cfg, nil
}

// Validate checks settings every command needs.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("config: database.url is required for postgres")
		}
	default:
		return errors.Errorf("config: unsupported database.type %q", c.Database.Type)
	}
	if c.Practice.QuestionsPerSession <= 0 {
		return errors.New("config: practice.questions_per_session must be positive")
	}
	if c.Practice.ReminderHour < 0 || c.Practice.ReminderHour > 23 {
		return errors.Errorf("config: practice.reminder_hour %d out of range", c.Practice.ReminderHour)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// ValidateBot checks the settings the Telegram bot needs on top of Validate.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.Token == "" {
		return errors.New("config: telegram.token is not set")
	}
	if c.Telegram.LearnerChatID == 0 {
		return errors.New("config: telegram.learner_chat_id is not set")
	}
	if c.Telegram.SendRatePerSec <= 0 {
		return errors.New("config: telegram.send_rate_per_sec must be positive")
	}
	return nil
}

// Location is the learner's time zone; calendar days are counted in it.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Practice.Timezone)
	if err != nil {
		return nil, errors.Wrapf(err, "config: invalid practice.timezone %q", c.Practice.Timezone)
	}
	return loc, nil
}

// LogLevel parses log.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "config: invalid log.level %q", c.Log.Level)
	}
	return level, nil
}
