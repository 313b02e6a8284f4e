package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DB        DBConfig
	Server    ServerConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Ingestion IngestionConfig
	Tagging   TaggingConfig
	Search    SearchConfig
	Logger    LoggerConfig
	Admin     AdminConfig
}

type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	SearchTTL time.Duration
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LLMConfig selects the language model backend used for quiz synthesis and grading.
type LLMConfig struct {
	Provider    string // "ollama" or "openai"
	ServerURL   string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
}

// IngestionConfig points at the scraped HTML sources.
type IngestionConfig struct {
	SectionListFile string
	TableBlockDir   string
	Workers         int
	RunOnStartup    bool
}

type TaggingConfig struct {
	DictionaryPath string
}

type SearchConfig struct {
	ContextSize int
}

type LoggerConfig struct {
	Level string
	Env   string
}

type AdminConfig struct {
	Token string
}

func setDefaults() {
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("server.read_timeout", 20)
	viper.SetDefault("server.write_timeout", 90)
	viper.SetDefault("db.port", 1521)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.search_ttl", 600)
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.server", "http://localhost:11434")
	viper.SetDefault("llm.model", "qwen3:8b")
	viper.SetDefault("llm.timeout", 60)
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("ingestion.workers", 4)
	viper.SetDefault("ingestion.run_on_startup", false)
	viper.SetDefault("search.context_size", 10)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "development")
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables still win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Add config paths based on environment
	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Log the config file being used
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Printf("Using config file: %s\n", absPath)
	}

	config := &Config{
		DB: DBConfig{
			Host:     viper.GetString("db.host"),
			Port:     viper.GetInt("db.port"),
			User:     viper.GetString("db.user"),
			Password: viper.GetString("db.password"),
			DBName:   viper.GetString("db.name"),
		},
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  time.Duration(viper.GetInt("server.read_timeout")) * time.Second,
			WriteTimeout: time.Duration(viper.GetInt("server.write_timeout")) * time.Second,
		},
		Redis: RedisConfig{
			Address:   viper.GetString("redis.address"),
			Password:  viper.GetString("redis.password"),
			DB:        viper.GetInt("redis.db"),
			SearchTTL: time.Duration(viper.GetInt("redis.search_ttl")) * time.Second,
		},
		LLM: LLMConfig{
			Provider:    viper.GetString("llm.provider"),
			ServerURL:   viper.GetString("llm.server"),
			Model:       viper.GetString("llm.model"),
			APIKey:      viper.GetString("llm.api_key"),
			Timeout:     time.Duration(viper.GetInt("llm.timeout")) * time.Second,
			Temperature: viper.GetFloat64("llm.temperature"),
		},
		Ingestion: IngestionConfig{
			SectionListFile: viper.GetString("ingestion.section_list_file"),
			TableBlockDir:   viper.GetString("ingestion.table_block_dir"),
			Workers:         viper.GetInt("ingestion.workers"),
			RunOnStartup:    viper.GetBool("ingestion.run_on_startup"),
		},
		Tagging: TaggingConfig{
			DictionaryPath: viper.GetString("tagging.dictionary_path"),
		},
		Search: SearchConfig{
			ContextSize: viper.GetInt("search.context_size"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
		Admin: AdminConfig{
			Token: viper.GetString("admin.token"),
		},
	}

	// Override with environment variables if set
	if host := os.Getenv("DB_HOST"); host != "" {
		config.DB.Host = host
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.DB.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.DB.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		config.DB.DBName = dbname
	}
	if llmServer := os.Getenv("LLM_SERVER"); llmServer != "" {
		config.LLM.ServerURL = llmServer
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" && config.LLM.APIKey == "" {
		config.LLM.APIKey = apiKey
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if token := os.Getenv("ADMIN_TOKEN"); token != "" {
		config.Admin.Token = token
	}

	if config.Search.ContextSize <= 0 {
		config.Search.ContextSize = 10
	}
	if config.Ingestion.Workers <= 0 {
		config.Ingestion.Workers = 1
	}

	return config, nil
}

func (c *Config) GetDSN() string {
	// Oracle DSN format: user/password@host:port/service
	return fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		c.DB.User,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.DBName,
	)
}
