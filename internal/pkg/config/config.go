package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Duration 让 time.Duration 可以直接写成 "10s" 这种形式。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", raw)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config 是进程唯一的配置入口:启动时构造一次,按引用传给各个组件,
// 不允许任何组件绕开它做环境变量或配置中心的全局查找。
type Config struct {
	App      AppConfig      `yaml:"app"`
	Services ServicesConfig `yaml:"services"`
	Retry    RetryConfig    `yaml:"retry"`
	Auth     AuthConfig     `yaml:"auth"`
	Infra    InfraConfig    `yaml:"infra"`
}

type AppConfig struct {
	ServiceName string `yaml:"service_name"`
	Port        int    `yaml:"port"`
}

// ServicesConfig 描述两个远端协作方的地址与单次调用超时。
type ServicesConfig struct {
	UserBaseURL      string   `yaml:"user_base_url"`
	InventoryBaseURL string   `yaml:"inventory_base_url"`
	RequestTimeout   Duration `yaml:"request_timeout"`
}

type RetryConfig struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
	Jitter         bool     `yaml:"jitter"`
}

type AuthConfig struct {
	Secret    string `yaml:"secret"`
	Algorithm string `yaml:"algorithm"`
}

type InfraConfig struct {
	MysqlDSN       string   `yaml:"mysql_dsn"`
	KafkaBrokers   []string `yaml:"kafka_brokers"`
	ReconTopic     string   `yaml:"recon_topic"`
	RedisAddr      string   `yaml:"redis_addr"`
	JaegerEndpoint string   `yaml:"jaeger_endpoint"`
}

// Default 给出一套本地可跑的默认值,远端地址与原部署拓扑一致。
func Default() *Config {
	return &Config{
		App: AppConfig{
			ServiceName: "order-service",
			Port:        8002,
		},
		Services: ServicesConfig{
			UserBaseURL:      "http://localhost:8000",
			InventoryBaseURL: "http://localhost:8001",
			RequestTimeout:   Duration(10 * time.Second),
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: Duration(2 * time.Second),
			MaxBackoff:     Duration(10 * time.Second),
			Jitter:         true,
		},
		Auth: AuthConfig{
			Algorithm: "HS256",
		},
		Infra: InfraConfig{
			MysqlDSN:       "root:root@tcp(localhost:3306)/orders?charset=utf8mb4&parseTime=True&loc=Local",
			ReconTopic:     "order-reconciliation",
			JaegerEndpoint: "http://localhost:14268/api/traces",
		},
	}
}

// Load 先读可选的 YAML 文件,再用环境变量逐项覆盖。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	l := &envLoader{}
	l.str("SERVICE_NAME", &cfg.App.ServiceName)
	l.num("PORT", &cfg.App.Port)
	l.str("USER_SERVICE_URL", &cfg.Services.UserBaseURL)
	l.str("INVENTORY_SERVICE_URL", &cfg.Services.InventoryBaseURL)
	l.dur("REQUEST_TIMEOUT", &cfg.Services.RequestTimeout)
	l.num("RETRY_MAX_ATTEMPTS", &cfg.Retry.MaxAttempts)
	l.dur("RETRY_INITIAL_BACKOFF", &cfg.Retry.InitialBackoff)
	l.dur("RETRY_MAX_BACKOFF", &cfg.Retry.MaxBackoff)
	l.str("SECRET_KEY", &cfg.Auth.Secret)
	l.str("ALGORITHM", &cfg.Auth.Algorithm)
	l.str("MYSQL_DSN", &cfg.Infra.MysqlDSN)
	l.csv("KAFKA_BROKERS", &cfg.Infra.KafkaBrokers)
	l.str("RECON_TOPIC", &cfg.Infra.ReconTopic)
	l.str("REDIS_ADDR", &cfg.Infra.RedisAddr)
	l.str("JAEGER_ENDPOINT", &cfg.Infra.JaegerEndpoint)
	if l.err != nil {
		return nil, l.err
	}

	if cfg.Services.RequestTimeout <= 0 {
		return nil, errors.New("request timeout must be positive")
	}
	if cfg.Retry.MaxAttempts < 1 {
		return nil, errors.New("retry max attempts must be at least 1")
	}
	return cfg, nil
}

// envLoader 把环境变量覆盖的解析错误收敛到一处。
type envLoader struct {
	err error
}

func (l *envLoader) str(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func (l *envLoader) num(key string, dst *int) {
	v, ok := os.LookupEnv(key)
	if !ok || l.err != nil {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		l.err = errors.Wrapf(err, "env %s", key)
		return
	}
	*dst = n
}

func (l *envLoader) dur(key string, dst *Duration) {
	v, ok := os.LookupEnv(key)
	if !ok || l.err != nil {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		l.err = errors.Wrapf(err, "env %s", key)
		return
	}
	*dst = Duration(d)
}

func (l *envLoader) csv(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	*dst = out
}
