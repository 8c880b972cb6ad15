package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv подгружает переменные окружения из .env, если файл есть
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
}

// GetEnv возвращает переменную окружения или значение по умолчанию
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
