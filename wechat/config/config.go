package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"wxadapter/wechat/pkg/adapter"
)

// Config 应用配置结构
type Config struct {
	// 公众号配置
	WechatAppID                string `yaml:"wechat_app_id"`
	WechatAppSecret            string `yaml:"wechat_app_secret"`
	WechatToken                string `yaml:"wechat_token"`
	WechatEncodingAESKey       string `yaml:"wechat_encoding_aes_key"`
	WechatUploadTemporaryMedia bool   `yaml:"wechat_upload_temporary_media"`
	WechatPassiveResponse      bool   `yaml:"wechat_passive_response"`
	WechatAPIBaseURL           string `yaml:"wechat_api_base_url"`
	WechatWebhookPath          string `yaml:"wechat_webhook_path"`

	// 服务器配置
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// 日志配置
	LogLevel string `yaml:"log_level"`

	// 性能配置
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`

	// 去重与缓存：REDIS_ADDR 为空时使用进程内存储，MEDIA_CACHE=mysql 时素材缓存落库
	RedisAddr  string        `yaml:"redis_addr"`
	DedupTTL   time.Duration `yaml:"dedup_ttl"`
	MediaCache string        `yaml:"media_cache"`

	// mysql 配置
	MysqlHost     string `yaml:"mysql_host"`
	MysqlPort     int    `yaml:"mysql_port"`
	MysqlUser     string `yaml:"mysql_user"`
	MysqlPassword string `yaml:"mysql_password"`
	MysqlDatabase string `yaml:"mysql_database"`
	Debug         bool   `yaml:"debug"`

	db          *gorm.DB
	redis       *redis.Client
	lock        sync.Mutex
	Application *application `yaml:"-"`
}

// 应用服务

type application struct {
	server *gin.Engine
	lock   sync.Mutex
	root   gin.IRouter
}

var (
	cfg  *Config
	once sync.Once
)

// LoadConfig 加载配置：先读 CONFIG_FILE 指向的 YAML，再用环境变量覆盖
func LoadConfig() (*Config, error) {
	var err error
	once.Do(func() {
		cfg, err = Load(os.Getenv("CONFIG_FILE"))
	})
	return cfg, err
}

// Load 不走单例，测试和 sign 命令直接使用
func Load(file string) (*Config, error) {
	c := defaults()
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	c.overrideFromEnv()

	// 验证必需的配置
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

func defaults() *Config {
	return &Config{
		WechatAPIBaseURL:  "https://api.weixin.qq.com",
		WechatWebhookPath: "/wechat",
		Port:              "8080",
		LogLevel:          "info",

		// 超时配置
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,

		// 连接池配置
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,

		DedupTTL:   5 * time.Minute,
		MediaCache: "memory",

		MysqlHost:     "localhost",
		MysqlPort:     3306,
		MysqlUser:     "root",
		MysqlDatabase: "wechat",

		Application: &application{},
	}
}

func (c *Config) overrideFromEnv() {
	c.WechatAppID = getEnv("WECHAT_APP_ID", c.WechatAppID)
	c.WechatAppSecret = getEnv("WECHAT_APP_SECRET", c.WechatAppSecret)
	c.WechatToken = getEnv("WECHAT_TOKEN", c.WechatToken)
	c.WechatEncodingAESKey = getEnv("WECHAT_ENCODING_AES_KEY", c.WechatEncodingAESKey)
	c.WechatUploadTemporaryMedia = getBoolEnv("WECHAT_UPLOAD_TEMPORARY_MEDIA", c.WechatUploadTemporaryMedia)
	c.WechatPassiveResponse = getBoolEnv("WECHAT_PASSIVE_RESPONSE", c.WechatPassiveResponse)
	c.WechatAPIBaseURL = getEnv("WECHAT_API_BASE_URL", c.WechatAPIBaseURL)
	c.WechatWebhookPath = getEnv("WECHAT_WEBHOOK_PATH", c.WechatWebhookPath)

	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.ReadTimeout = getDurationEnv("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getDurationEnv("WRITE_TIMEOUT", c.WriteTimeout)
	c.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.MaxIdleConns = getIntEnv("MAX_IDLE_CONNS", c.MaxIdleConns)
	c.MaxIdleConnsPerHost = getIntEnv("MAX_IDLE_CONNS_PER_HOST", c.MaxIdleConnsPerHost)
	c.IdleConnTimeout = getDurationEnv("IDLE_CONN_TIMEOUT", c.IdleConnTimeout)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.DedupTTL = getDurationEnv("DEDUP_TTL", c.DedupTTL)
	c.MediaCache = getEnv("MEDIA_CACHE", c.MediaCache)

	c.MysqlHost = getEnv("MYSQL_HOST", c.MysqlHost)
	c.MysqlPort = getIntEnv("MYSQL_PORT", c.MysqlPort)
	c.MysqlUser = getEnv("MYSQL_USER", c.MysqlUser)
	c.MysqlPassword = getEnv("MYSQL_PASSWORD", c.MysqlPassword)
	c.MysqlDatabase = getEnv("MYSQL_DATABASE", c.MysqlDatabase)
	c.Debug = getBoolEnv("DEBUG", c.Debug)

	if c.Application == nil {
		c.Application = &application{}
	}
}

func (a *application) GinServer() *gin.Engine {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.server == nil {
		a.server = gin.Default()
		// 加载全局CORS中间件
		a.server.Use(cors.Default())
	}

	return a.server
}

func (a *application) GinRootRouter() gin.IRouter {
	r := a.GinServer()

	a.lock.Lock()
	defer a.lock.Unlock()
	if a.root == nil {
		a.root = r.Group("app").Group("api").Group("v1")
	}

	return a.root
}

// Validate 验证配置
func (c *Config) Validate() error {
	s := c.Settings()
	if err := s.Validate(); err != nil {
		return err
	}
	switch c.MediaCache {
	case "memory", "mysql":
	default:
		return fmt.Errorf("MEDIA_CACHE must be memory or mysql, got %q", c.MediaCache)
	}
	return nil
}

// Settings 适配器配置
func (c *Config) Settings() adapter.Settings {
	return adapter.Settings{
		AppID:                c.WechatAppID,
		AppSecret:            c.WechatAppSecret,
		Token:                c.WechatToken,
		EncodingAESKey:       c.WechatEncodingAESKey,
		UploadTemporaryMedia: c.WechatUploadTemporaryMedia,
		PassiveResponse:      c.WechatPassiveResponse,
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv 获取整数类型的环境变量
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv 获取时间间隔类型的环境变量：纯数字按秒，也接受 "1m30s" 形式
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return time.Duration(intValue) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

// DSN 数据库连接字符串
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.MysqlUser, c.MysqlPassword, c.MysqlHost, c.MysqlPort, c.MysqlDatabase)
}

// GetDB 获取DB
func (c *Config) GetDB() (*gorm.DB, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.db == nil {
		db, err := gorm.Open(mysql.Open(c.DSN()), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		c.db = db

		if c.Debug {
			c.db = c.db.Debug()
		}
	}

	return c.db, nil
}

// GetRedis 获取 Redis 客户端，未配置 REDIS_ADDR 时返回 nil
func (c *Config) GetRedis() *redis.Client {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.RedisAddr == "" {
		return nil
	}
	if c.redis == nil {
		c.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	}
	return c.redis
}
