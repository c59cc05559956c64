package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Google   GoogleConfig   `yaml:"google"`
	LLM      LLMConfig      `yaml:"llm"`
	Email    EmailConfig    `yaml:"email"`
	Booking  BookingConfig  `yaml:"booking"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	Impersonate     string `yaml:"impersonated_user"`
	SendUpdates     string `yaml:"send_updates"`
}

type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

type BookingConfig struct {
	WorkStart              int    `yaml:"work_start"`
	WorkEnd                int    `yaml:"work_end"`
	SlotMinutes            int    `yaml:"slot_minutes"`
	DefaultCalendarID      string `yaml:"default_calendar_id"`
	CallTimeoutSeconds     int    `yaml:"call_timeout_seconds"`
	SlotsCacheTTLSeconds   int    `yaml:"slots_cache_ttl_seconds"`
	SummaryCacheTTLSeconds int    `yaml:"summary_cache_ttl_seconds"`
	ReminderLeadHours      int    `yaml:"reminder_lead_hours"`
}

type WorkerConfig struct {
	ReminderSweepMinutes int `yaml:"reminder_sweep_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Booking.WorkStart == 0 && c.Booking.WorkEnd == 0 {
		c.Booking.WorkStart = 9
		c.Booking.WorkEnd = 17
	}
	if c.Booking.SlotMinutes == 0 {
		c.Booking.SlotMinutes = 30
	}
	if c.Booking.CallTimeoutSeconds == 0 {
		c.Booking.CallTimeoutSeconds = 15
	}
	if c.Booking.SlotsCacheTTLSeconds == 0 {
		c.Booking.SlotsCacheTTLSeconds = 60
	}
	if c.Booking.SummaryCacheTTLSeconds == 0 {
		c.Booking.SummaryCacheTTLSeconds = 3600
	}
	if c.Booking.ReminderLeadHours == 0 {
		c.Booking.ReminderLeadHours = 24
	}
	if c.Worker.ReminderSweepMinutes == 0 {
		c.Worker.ReminderSweepMinutes = 10
	}
	if c.Google.SendUpdates == "" {
		c.Google.SendUpdates = "all"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "models/gemini-1.5-flash"
	}
}
