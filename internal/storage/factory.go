package storage

import (
	"github.com/yourname/habitcoach/internal"
	"github.com/yourname/habitcoach/internal/config"
)

// NewBackend picks the storage engine from config.
func NewBackend(cfg *config.Config, logger internal.Logger) (Backend, error) {
	if cfg.DBType == "postgres" {
		return NewPostgresStorage(cfg.DBDSN, logger)
	}
	return NewFileStorage(cfg.UsersFile, cfg.HabitsFile, cfg.LogsFile, logger)
}
