package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-blood-ledger/pkg/database"
	"github.com/JoeShih716/go-blood-ledger/pkg/logger"
)

const (
	StoreMySQL  = "mysql"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config 服務的完整設定 (config/config.yaml)
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Log      logger.Config   `yaml:"log"`
	Store    StoreConfig     `yaml:"store"`
	Database database.Config `yaml:"database"`
	Redis    RedisConfig     `yaml:"redis"`
	Admins   []AdminConfig   `yaml:"admins"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig 選擇儲存實作
type StoreConfig struct {
	Driver  string `yaml:"driver"`   // mysql | sqlite | memory
	WALPath string `yaml:"wal_path"` // 僅 memory 使用，空字串代表不落地
}

// RedisConfig ref_id 併發保護，未啟用時只靠資料庫 unique index
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	KeyTTL   time.Duration `yaml:"key_ttl"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Load 讀取設定檔並補上預設值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// applyEnv 環境變數覆寫設定檔 (部署時放密碼與位址)
func (c *Config) applyEnv() {
	c.Server.Addr = getenv("BLOODBANK_GRPC_ADDR", c.Server.Addr)
	c.Store.Driver = getenv("BLOODBANK_STORE_DRIVER", c.Store.Driver)
	c.Database.Host = getenv("BLOODBANK_DB_HOST", c.Database.Host)
	c.Database.User = getenv("BLOODBANK_DB_USER", c.Database.User)
	c.Database.Password = getenv("BLOODBANK_DB_PASSWORD", c.Database.Password)
	c.Database.DBName = getenv("BLOODBANK_DB_NAME", c.Database.DBName)
	c.Database.Path = getenv("BLOODBANK_DB_PATH", c.Database.Path)
	c.Redis.Addr = getenv("BLOODBANK_REDIS_ADDR", c.Redis.Addr)
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":50051"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMySQL
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	// 補全資料庫預設配置 (如果 yaml 沒寫)
	if c.Database.Driver == "" {
		c.Database.Driver = c.Store.Driver
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 30 * time.Minute
	}
	if c.Database.MaxRetries == 0 {
		c.Database.MaxRetries = 10
	}
	if c.Database.RetryInterval == 0 {
		c.Database.RetryInterval = 2 * time.Second
	}
	if c.Database.Driver == database.DriverSQLite {
		// sqlite 單一寫入者
		c.Database.MaxOpenConns = 1
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.KeyTTL == 0 {
		c.Redis.KeyTTL = 30 * time.Second
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case StoreMySQL, StoreSQLite:
		if c.Database.Driver != c.Store.Driver {
			return fmt.Errorf("database.driver %q does not match store.driver %q", c.Database.Driver, c.Store.Driver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported store.driver %q", c.Store.Driver)
	}
	for i, admin := range c.Admins {
		if admin.Username == "" || admin.Password == "" {
			return fmt.Errorf("admins[%d]: username and password are required", i)
		}
	}
	return nil
}
