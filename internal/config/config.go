package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Acceptor  AcceptorConfig  `mapstructure:"acceptor"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AcceptorConfig 纸币器配置
// 各时间间隔是硬件时序要求，数值可调但相对次序必须保持:
// 写后等待 < 读前等待 < 轮询间隔 < 复位稳定时间
type AcceptorConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	MockMode bool   `mapstructure:"mock_mode"` // 无硬件调试模式（使用模拟传输层）
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`

	ReadTimeout   time.Duration `mapstructure:"read_timeout"`    // 串口读超时
	WriteSettle   time.Duration `mapstructure:"write_settle"`    // 写命令后的等待
	ReadDelay     time.Duration `mapstructure:"read_delay"`      // 读响应前的等待
	ResetSettle   time.Duration `mapstructure:"reset_settle"`    // 复位后设备重新初始化的时间
	InitSettle    time.Duration `mapstructure:"init_settle"`     // 启动阶段两次轮询之间的间隔
	ReEnableDelay time.Duration `mapstructure:"re_enable_delay"` // 钞箱放回后重新使能前的延迟
	PollInterval  time.Duration `mapstructure:"poll_interval"`   // 轮询节拍
	ErrorBackoff  time.Duration `mapstructure:"error_backoff"`   // I/O错误后的退避时间

	EventBuffer   int `mapstructure:"event_buffer"`   // 事件通道缓冲
	CommandBuffer int `mapstructure:"command_buffer"` // 命令通道缓冲
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	Path            string        `mapstructure:"path"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		v = viper.New()

		// 设置配置文件路径
		if configPath != "" {
			v.SetConfigFile(configPath)
		} else {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath("./config")
			v.AddConfigPath(".")
		}

		// 设置环境变量前缀
		v.SetEnvPrefix("CASH_ACCEPTOR")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		// 设置默认值
		setDefaults(v)

		// 读取配置文件
		if err = v.ReadInConfig(); err != nil {
			// 如果配置文件不存在，使用默认配置
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return
			}
			err = nil
		}

		// 解析配置到结构体
		cfg = &Config{}
		if err = v.Unmarshal(cfg); err != nil {
			return
		}
	})

	return err
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 服务器默认配置
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/cash-acceptor.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	// 纸币器默认配置
	// 时序默认值来自实际硬件调试结果，改小会导致设备响应读不全
	v.SetDefault("acceptor.enabled", true)
	v.SetDefault("acceptor.mock_mode", false)
	v.SetDefault("acceptor.port", "/dev/ttyUSB0")
	v.SetDefault("acceptor.baud_rate", 19200)
	v.SetDefault("acceptor.read_timeout", "100ms")
	v.SetDefault("acceptor.write_settle", "20ms")
	v.SetDefault("acceptor.read_delay", "20ms")
	v.SetDefault("acceptor.reset_settle", "5s")
	v.SetDefault("acceptor.init_settle", "200ms")
	v.SetDefault("acceptor.re_enable_delay", "500ms")
	v.SetDefault("acceptor.poll_interval", "400ms")
	v.SetDefault("acceptor.error_backoff", "1s")
	v.SetDefault("acceptor.event_buffer", 64)
	v.SetDefault("acceptor.command_buffer", 16)

	// WebSocket默认配置
	v.SetDefault("websocket.path", "/ws")
	v.SetDefault("websocket.read_buffer_size", 1024)
	v.SetDefault("websocket.write_buffer_size", 1024)
	v.SetDefault("websocket.write_timeout", "10s")
	v.SetDefault("websocket.ping_interval", "30s")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "both")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "cash-acceptor.log")
	v.SetDefault("log.file.max_size", 100)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 7)
	v.SetDefault("log.file.compress", true)
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}

		cfg = newCfg

		if callback != nil {
			callback(cfg)
		}
	})
}
