package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Queue  QueueConfig
	Judge  JudgeConfig
	Gemini GeminiConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     int
}

// QueueConfig 事件佇列的設定
type QueueConfig struct {
	Dir string // BadgerDB 資料目錄
}

// JudgeConfig 外部評測服務 (Judge0) 的設定
type JudgeConfig struct {
	URL    string
	APIKey string
	Host   string
}

// GeminiConfig 生成式 AI 賽評的設定
type GeminiConfig struct {
	APIKey string
	Model  string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("queue.dir", "./data/eventqueue")
	viper.SetDefault("gemini.model", "gemini-1.5-flash-latest")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
