package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// 数据源模式
const (
	SourcePostgres = "postgres"
	SourceREST     = "rest"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RecordsConfig 医生记录来源
type RecordsConfig struct {
	Source      string        // postgres | rest
	Table       string        // Postgres 表或视图
	RESTBaseURL string        // 数据服务地址
	RESTPath    string        // 列表接口路径
	RESTTimeout time.Duration // 单次请求超时
}

// CatalogConfig 专科目录
type CatalogConfig struct {
	Source          string
	Table           string
	RESTPath        string
	RefreshInterval time.Duration // 0 表示只在启动和手动触发时加载
	SnapshotKey     string
	SnapshotTTL     time.Duration
	AwaitTimeout    time.Duration // 导出请求等待目录就绪的上限
}

// MQTTConfig MQTT 配置（用于触发专科目录重新加载）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// ReportConfig 报表页眉
type ReportConfig struct {
	Title       string
	Subtitle    string
	LogoURL     string
	LogoTimeout time.Duration
}

// Config cmc-padron 配置（全部来自环境变量）
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Records   RecordsConfig
	Catalog   CatalogConfig
	MQTT      MQTTConfig
	Report    ReportConfig
	AliasFile string
	TimeZone  string
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "padron")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Enabled = parseBool(getEnv("REDIS_ENABLED", "true"), true)
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Records.Source = parseSource(getEnv("RECORDS_SOURCE", SourcePostgres))
	cfg.Records.Table = getEnv("RECORDS_TABLE", "medicos")
	cfg.Records.RESTBaseURL = getEnv("RECORDS_REST_URL", "http://localhost:8000")
	cfg.Records.RESTPath = getEnv("RECORDS_REST_PATH", "/api/medicos")
	cfg.Records.RESTTimeout = parseDuration(getEnv("RECORDS_REST_TIMEOUT", "30s"), 30*time.Second)

	// 目录来源默认与记录来源一致
	cfg.Catalog.Source = parseSource(getEnv("CATALOG_SOURCE", cfg.Records.Source))
	cfg.Catalog.Table = getEnv("CATALOG_TABLE", "especialidades")
	cfg.Catalog.RESTPath = getEnv("CATALOG_REST_PATH", "/api/especialidades")
	cfg.Catalog.RefreshInterval = parseDuration(getEnv("CATALOG_REFRESH_INTERVAL", "0"), 0)
	cfg.Catalog.SnapshotKey = getEnv("CATALOG_SNAPSHOT_KEY", "padron:especialidades")
	cfg.Catalog.SnapshotTTL = parseDuration(getEnv("CATALOG_SNAPSHOT_TTL", "24h"), 24*time.Hour)
	cfg.Catalog.AwaitTimeout = parseDuration(getEnv("CATALOG_AWAIT_TIMEOUT", "5s"), 5*time.Second)

	// MQTT（默认禁用）
	cfg.MQTT.Enabled = parseBool(getEnv("MQTT_ENABLED", "false"), false)
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "cmc-padron")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "padron/especialidades/reload")

	cfg.Report.Title = getEnv("REPORT_TITLE", "Padrón de Médicos")
	cfg.Report.Subtitle = getEnv("REPORT_SUBTITLE", "")
	cfg.Report.LogoURL = getEnv("REPORT_LOGO_URL", "")
	cfg.Report.LogoTimeout = parseDuration(getEnv("REPORT_LOGO_TIMEOUT", "5s"), 5*time.Second)

	cfg.AliasFile = getEnv("ALIAS_FILE", "")
	cfg.TimeZone = getEnv("TIME_ZONE", "America/Argentina/Buenos_Aires")

	return cfg
}

// Location 解析 TimeZone；失败时回退到 UTC 并返回错误
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC, fmt.Errorf("failed to load time zone %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func parseSource(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), SourceREST) {
		return SourceREST
	}
	return SourcePostgres
}
