// Package storage holds the gate snapshot backends. Every driver implements
// the same whole-snapshot contract: Load returns all persisted gates sorted
// by creation time (best-effort, empty on a corrupt or missing source), Save
// overwrites the complete snapshot.
package storage

import (
	"fmt"
	"log/slog"
	"sort"

	"subgate/entity"
	"subgate/internal/config"
)

const (
	driverFile  = "file"
	driverMongo = "mongo"
	driverMySQL = "mysql"
)

type Store interface {
	Load() ([]*entity.Gate, error)
	Save(gates []*entity.Gate) error
}

func New(conf *config.Config, log *slog.Logger) (Store, error) {
	switch conf.Storage.Driver {
	case driverFile, "":
		return NewFileStore(conf.Storage.File.Path, log), nil
	case driverMongo:
		return NewMongoStore(conf, log), nil
	case driverMySQL:
		return NewMySQLStore(conf, log)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", conf.Storage.Driver)
	}
}

// sortGates orders a loaded snapshot by creation time, then id. A snapshot
// has no inherent order; the registry keeps insertion order from here on.
func sortGates(gates []*entity.Gate) {
	sort.Slice(gates, func(i, j int) bool {
		if gates[i].CreatedAt.Equal(gates[j].CreatedAt) {
			return gates[i].ID < gates[j].ID
		}
		return gates[i].CreatedAt.Before(gates[j].CreatedAt)
	})
}
