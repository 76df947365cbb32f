package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const defaultConfigFile = "src/internal/config/cfg.yml"

type Configuration struct {
	Logs       LogsSettings     `mapstructure:"logs"`
	App        Application      `mapstructure:"app"`
	Database   Database         `mapstructure:"database"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Redis      Redis            `mapstructure:"redis"`
	Security   SecuritySettings `mapstructure:"security"`
	Server     ServerSettings   `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Activity   ActivityConfig   `mapstructure:"activity"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics"`
	Chain      ChainConfig      `mapstructure:"chain"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url         string      `mapstructure:"url"`
	DbName      string      `mapstructure:"dbname"`
	Collections Collections `mapstructure:"collections"`
	Timeout     int         `mapstructure:"timeout"`
}

type Collections struct {
	Activities  string `mapstructure:"activities"`
	Memberships string `mapstructure:"memberships"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url                  string `mapstructure:"url"`
	Exchange             string `mapstructure:"exchange"`
	ExchangeType         string `mapstructure:"exchange-type"`
	ActivityRoutingKey   string `mapstructure:"activity-routing-key"`
	EngagementRoutingKey string `mapstructure:"engagement-routing-key"`
	Durable              bool   `mapstructure:"durable"`
	AutoDelete           bool   `mapstructure:"auto-delete"`
	Internal             bool   `mapstructure:"internal"`
	NoWait               bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	Db       int    `mapstructure:"db"`
}

type SecuritySettings struct {
	JwtKey string `mapstructure:"jwt-key"`
}

type ServerSettings struct {
	Port            string `mapstructure:"port"`
	Mode            string `mapstructure:"mode"`
	ReadTimeout     int    `mapstructure:"read-timeout"`
	WriteTimeout    int    `mapstructure:"write-timeout"`
	IdleTimeout     int    `mapstructure:"idle-timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown-timeout"`
}

type CacheConfig struct {
	StatsExpirationMinutes      int `mapstructure:"stats-expiration-minutes"`
	MembershipExpirationMinutes int `mapstructure:"membership-expiration-minutes"`
}

type ActivityConfig struct {
	MaxRecords   int `mapstructure:"max-records"`
	DefaultLimit int `mapstructure:"default-limit"`
	MaxLimit     int `mapstructure:"max-limit"`
}

type EngagementConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxBuckets int  `mapstructure:"max-buckets"`
	WindowDays int  `mapstructure:"window-days"`
}

type AnalyticsConfig struct {
	Url                     string   `mapstructure:"url"`
	Timeout                 int      `mapstructure:"timeout"`
	LivePollSeconds         int      `mapstructure:"live-poll-seconds"`
	DashboardRefreshMinutes int      `mapstructure:"dashboard-refresh-minutes"`
	WatchedGroups           []string `mapstructure:"watched-groups"`
}

type ChainConfig struct {
	RpcUrl       string `mapstructure:"rpc-url"`
	ProbeTimeout int    `mapstructure:"probe-timeout"`
}

func Load() *Configuration {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigFile
	}

	cfg := read(path)
	logrus.Info("Configuration loaded")

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	return cfg
}

func applyEnvOverrides(cfg *Configuration) {
	if mongoUri := os.Getenv("MONGODB_URL"); mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.DbName = dbName
	}

	if redisUrl := os.Getenv("REDIS_URL"); redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	if rabbitmqUrl := os.Getenv("RABBITMQ_URL"); rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	if jwtKey := os.Getenv("JWT_KEY"); jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	if analyticsUrl := os.Getenv("ANALYTICS_URL"); analyticsUrl != "" {
		cfg.Analytics.Url = analyticsUrl
	}

	if rpcUrl := os.Getenv("RPC_URL"); rpcUrl != "" {
		cfg.Chain.RpcUrl = rpcUrl
	}
}

// applyDefaults fills values the rest of the service relies on being positive.
func applyDefaults(cfg *Configuration) {
	if cfg.Activity.MaxRecords <= 0 {
		cfg.Activity.MaxRecords = 1000
	}
	if cfg.Activity.DefaultLimit <= 0 {
		cfg.Activity.DefaultLimit = 50
	}
	if cfg.Activity.MaxLimit <= 0 {
		cfg.Activity.MaxLimit = 200
	}
	if cfg.Engagement.MaxBuckets <= 0 {
		cfg.Engagement.MaxBuckets = 10000
	}
	if cfg.Engagement.WindowDays <= 0 {
		cfg.Engagement.WindowDays = 30
	}
	if cfg.Analytics.Timeout <= 0 {
		cfg.Analytics.Timeout = 10
	}
	if cfg.Analytics.LivePollSeconds <= 0 {
		cfg.Analytics.LivePollSeconds = 30
	}
	if cfg.Analytics.DashboardRefreshMinutes <= 0 {
		cfg.Analytics.DashboardRefreshMinutes = 5
	}
	if cfg.Chain.ProbeTimeout <= 0 {
		cfg.Chain.ProbeTimeout = 3
	}
	if cfg.Cache.StatsExpirationMinutes <= 0 {
		cfg.Cache.StatsExpirationMinutes = 1
	}
	if cfg.Cache.MembershipExpirationMinutes <= 0 {
		cfg.Cache.MembershipExpirationMinutes = 10
	}
	if cfg.App.Timeout <= 0 {
		cfg.App.Timeout = 10
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10
	}
}

func read(path string) *Configuration {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetConfigType("yml")

	var config Configuration

	err := v.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = v.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
