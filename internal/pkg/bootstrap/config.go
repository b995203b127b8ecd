// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 来源优先级：配置文件 < 环境变量。
type Config struct {
	Infra struct {
		MysqlDSN       string `yaml:"mysql_dsn"`
		RedisAddrs     string `yaml:"redis_addrs"`
		KafkaBrokers   string `yaml:"kafka_brokers"`
		JaegerEndpoint string `yaml:"jaeger_endpoint"`
		ZookeeperAddrs string `yaml:"zookeeper_addrs"` // 为空时库存服务退化为单副本本地串行
		Nacos          struct {
			ServerAddrs string `yaml:"server_addrs"`
			Namespace   string `yaml:"namespace"`
			Group       string `yaml:"group"`
		} `yaml:"nacos"`
	} `yaml:"infra"`

	App struct {
		OrderProcessingTimeout time.Duration `yaml:"order_processing_timeout"`
		OutboxPollInterval     time.Duration `yaml:"outbox_poll_interval"`
		OutboxBatchSize        int           `yaml:"outbox_batch_size"`
		ReconcileInterval      time.Duration `yaml:"reconcile_interval"`
		ReconcileAfter         time.Duration `yaml:"reconcile_after"` // CREATED 超过该时长未预占库存则进入对账
		CartServiceURL         string        `yaml:"cart_service_url"`
		CatalogServiceURL      string        `yaml:"catalog_service_url"`
		InventoryServiceURL    string        `yaml:"inventory_service_url"`
	} `yaml:"app"`
}

// KafkaBrokerList 把逗号分隔的 broker 地址拆成切片。
func (c *Config) KafkaBrokerList() []string {
	return strings.Split(c.Infra.KafkaBrokers, ",")
}

var currentConfig atomic.Value

// LoadConfig 读取 CONFIG_FILE 指向的 yaml（可缺省），再叠加环境变量覆盖。
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回最近一次加载的配置；从未加载时返回默认值。
func GetCurrentConfig() *Config {
	if cfg, ok := currentConfig.Load().(*Config); ok {
		return cfg
	}
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Infra.MysqlDSN = "root:root@tcp(localhost:3306)/commerce?parseTime=true"
	cfg.Infra.RedisAddrs = "localhost:6379"
	cfg.Infra.KafkaBrokers = "localhost:9092"
	cfg.Infra.JaegerEndpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.App.OrderProcessingTimeout = 30 * time.Second
	cfg.App.OutboxPollInterval = time.Second
	cfg.App.OutboxBatchSize = 64
	cfg.App.ReconcileInterval = time.Minute
	cfg.App.ReconcileAfter = 5 * time.Minute
	cfg.App.CartServiceURL = "http://localhost:8084"
	cfg.App.CatalogServiceURL = "http://localhost:8085"
	cfg.App.InventoryServiceURL = "http://localhost:8082"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	setIfPresent := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setIfPresent("MYSQL_DSN", &cfg.Infra.MysqlDSN)
	setIfPresent("REDIS_ADDRS", &cfg.Infra.RedisAddrs)
	setIfPresent("KAFKA_BROKERS", &cfg.Infra.KafkaBrokers)
	setIfPresent("JAEGER_ENDPOINT", &cfg.Infra.JaegerEndpoint)
	setIfPresent("ZOOKEEPER_ADDRS", &cfg.Infra.ZookeeperAddrs)
	setIfPresent("NACOS_SERVER_ADDRS", &cfg.Infra.Nacos.ServerAddrs)
	setIfPresent("NACOS_NAMESPACE", &cfg.Infra.Nacos.Namespace)
	setIfPresent("NACOS_GROUP", &cfg.Infra.Nacos.Group)
	setIfPresent("CART_SERVICE_URL", &cfg.App.CartServiceURL)
	setIfPresent("CATALOG_SERVICE_URL", &cfg.App.CatalogServiceURL)
	setIfPresent("INVENTORY_SERVICE_URL", &cfg.App.InventoryServiceURL)
}
