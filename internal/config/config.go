package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	Leaderboard LeaderboardConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: Альтернативный адрес для режима 'single'.
	// Используется, если Mode="single" и Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`
}

// Enabled сообщает, сконфигурирован ли Redis вообще.
// Без Redis приложение работает: отключаются снапшот-кеш и rate limiting.
func (r *RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// CORSConfig содержит список разрешенных origin (HTTP и WebSocket)
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig содержит настройки глобального rate limiting
type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// LeaderboardConfig содержит настройки лидерборда
type LeaderboardConfig struct {
	// PageSize — размер страницы GET /leaderboard
	PageSize int `mapstructure:"page_size"`

	// Store — система записи результатов: "memory" или "postgres"
	Store string `mapstructure:"store"`

	// DedupByIdentity — оставлять одну запись на идентичность игрока при ранжировании
	DedupByIdentity bool `mapstructure:"dedup_by_identity"`

	// StarScheme — таблица порогов звёзд: "percentage" или "questions"
	StarScheme string `mapstructure:"star_scheme"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Новый экземпляр Viper, чтобы избежать глобального состояния

	// 1. Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	vip.SetDefault("ratelimit.max_requests", 100)
	vip.SetDefault("ratelimit.window_minutes", 15)
	vip.SetDefault("leaderboard.page_size", 10)
	vip.SetDefault("leaderboard.store", "memory")
	vip.SetDefault("leaderboard.star_scheme", "percentage")

	// 2. Привязываем переменные окружения ЯВНО
	// Привязка для секции Database
	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	// Привязка для секции Redis
	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	// Привязка для Server
	vip.BindEnv("server.port", "SERVER_PORT")

	// Привязка для Leaderboard
	vip.BindEnv("leaderboard.page_size", "LEADERBOARD_PAGE_SIZE")
	vip.BindEnv("leaderboard.store", "LEADERBOARD_STORE")
	vip.BindEnv("leaderboard.dedup_by_identity", "LEADERBOARD_DEDUP_BY_IDENTITY")
	vip.BindEnv("leaderboard.star_scheme", "LEADERBOARD_STAR_SCHEME")

	// Привязка для CORS и RateLimit
	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")
	vip.BindEnv("ratelimit.max_requests", "RATELIMIT_MAX_REQUESTS")
	vip.BindEnv("ratelimit.window_minutes", "RATELIMIT_WINDOW_MINUTES")

	// 3. Путь к файлу конфигурации
	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Не страшно, если файла нет — есть BindEnv и умолчания
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	// 4. Анмаршалим конфигурацию (файл + привязанные env vars)
	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Логирование конфигурации (только в debug режиме)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Leaderboard Store: %s", cfg.Leaderboard.Store)
		log.Printf("Leaderboard Page Size: %d", cfg.Leaderboard.PageSize)
		log.Printf("Leaderboard Star Scheme: %s", cfg.Leaderboard.StarScheme)
		log.Printf("Redis Enabled: %t", cfg.Redis.Enabled())
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("CORS Origins: %v", cfg.CORS.AllowedOrigins)
		log.Printf("-----------------------------------------")
	}

	// 6. Проверка обязательных параметров
	switch cfg.Leaderboard.Store {
	case "", "memory":
		cfg.Leaderboard.Store = "memory"
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
			return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete for store=postgres (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
		}
	default:
		return nil, fmt.Errorf("unknown leaderboard store %q (expected \"memory\" or \"postgres\")", cfg.Leaderboard.Store)
	}

	switch cfg.Leaderboard.StarScheme {
	case "", "percentage", "questions":
	default:
		return nil, fmt.Errorf("unknown star scheme %q (expected \"percentage\" or \"questions\")", cfg.Leaderboard.StarScheme)
	}

	return &cfg, nil
}
