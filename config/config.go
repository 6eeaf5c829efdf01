package config

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Storage      Storage
	GeminiApiKey string
	VisionApiKey string
	AuthSecret   string
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Storage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base URL of the bucket, used to
	// build the public image URLs stored on essays.
	PublicURL string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Storage.Endpoint = viper.GetString("MINIO_ENDPOINT")
	config.Storage.AccessKey = viper.GetString("MINIO_ACCESS_KEY")
	config.Storage.SecretKey = viper.GetString("MINIO_SECRET_KEY")
	config.Storage.Bucket = viper.GetString("MINIO_BUCKET")
	config.Storage.UseSSL = viper.GetBool("MINIO_USE_SSL")
	config.Storage.PublicURL = viper.GetString("MINIO_PUBLIC_URL")
	if config.Storage.Bucket == "" {
		config.Storage.Bucket = "essay-images"
	}

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.VisionApiKey = viper.GetString("VISION_API_KEY")
	config.AuthSecret = viper.GetString("AUTH_SECRET")

	// Both AI backends are mandatory collaborators; refusing to boot without
	// their credentials beats failing on the first pipeline request.
	if config.GeminiApiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}
	if config.VisionApiKey == "" {
		return nil, fmt.Errorf("VISION_API_KEY is not configured")
	}

	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	log.Info().Str("port", config.Server.Port).Str("database", config.Database.Name).Msg("Config loaded")
	return &config, nil
}
