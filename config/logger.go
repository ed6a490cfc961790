package config

import (
	"go.uber.org/zap"
)

// NewLogger returns a console logger for development and a JSON logger
// everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
