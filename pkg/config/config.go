package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`
	Server      struct {
		Host           string        `yaml:"host" default:"0.0.0.0"`
		Port           int           `yaml:"port" default:"8000" validate:"gt=0,lte=65535"`
		MaxMessageSize int           `yaml:"max_message_size" default:"4096" validate:"gt=0"`
		AcceptBacklog  int           `yaml:"accept_backlog" default:"10"`
		WriteTimeout   time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"server"`
	Admin struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		ReportCacheTTL  time.Duration `yaml:"report_cache_ttl" default:"30s"`
	} `yaml:"admin"`
	Market struct {
		Tickers         []string `yaml:"tickers" default:"[\"AAPL\",\"MSFT\",\"TOST\"]" validate:"required,min=1,dive,alphanum"`
		SamplingMinutes int      `yaml:"sampling_minutes" default:"5" validate:"oneof=5 15 30 60"`
	} `yaml:"market"`
	AlphaVantage struct {
		BaseURL string        `yaml:"base_url" default:"https://www.alphavantage.co"`
		APIKey  string        `yaml:"api_key" validate:"required"`
		Timeout time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"alphavantage"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key" validate:"required"`
		BaseURL        string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		Timeout        time.Duration `yaml:"timeout" default:"10s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"finnhub"`
	Providers struct {
		// Realtime quote source: "rest" polls the Finnhub quote endpoint,
		// "stream" serves quotes from the Finnhub trade websocket.
		Realtime string `yaml:"realtime" default:"rest" validate:"oneof=rest stream"`
	} `yaml:"providers"`
	Report struct {
		Path string `yaml:"path" default:"report.csv" validate:"required"`
	} `yaml:"report"`
	Archive struct {
		// Backend for the tick export stream: none, kafka, or clickhouse.
		Backend string `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
		Kafka   struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"quantdesk.ticks"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"gzip"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"kafka"`
		ClickHouse struct {
			Host             string        `yaml:"host"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"quantdesk"`
			Table            string        `yaml:"table" default:"quantdesk.ticks"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			UseHTTP          bool          `yaml:"use_http"`
			AsyncInsert      bool          `yaml:"async_insert"`
			WaitForAsync     bool          `yaml:"wait_for_async_insert"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		} `yaml:"clickhouse"`
	} `yaml:"archive"`
	Cache struct {
		// Backend for the admin report cache: memory or redis.
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
}

// Load reads and parses a YAML configuration file, applying defaults and
// validating the result. A missing file is not an error; defaults plus
// environment overrides still apply.
func Load(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
// Validation happens after overrides so env-provided keys count.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Market.Tickers = splitAndTrim(v)
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.Port = n
		}
	}
	if v := os.Getenv("SAMPLING_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Market.SamplingMinutes = n
		}
	}
	if v := os.Getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Archive.Kafka.Brokers = splitAndTrim(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Backend = "redis"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration against struct tags plus a few rules
// tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	for i, t := range c.Market.Tickers {
		u := strings.ToUpper(strings.TrimSpace(t))
		if u == "" {
			return fmt.Errorf("market.tickers[%d] is empty", i)
		}
		c.Market.Tickers[i] = u
	}
	if c.Archive.Backend == "kafka" && len(c.Archive.Kafka.Brokers) == 0 {
		return fmt.Errorf("archive.kafka.brokers required when archive.backend is kafka")
	}
	if c.Archive.Backend == "clickhouse" && c.Archive.ClickHouse.Host == "" {
		return fmt.Errorf("archive.clickhouse.host required when archive.backend is clickhouse")
	}
	return nil
}

// SamplingPeriod returns the sampling period as a duration.
func (c *Config) SamplingPeriod() time.Duration {
	return time.Duration(c.Market.SamplingMinutes) * time.Minute
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
