package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"subgate/entity"
	"subgate/lib/sl"
)

// gateRecord is the on-disk form of a gate. Field names keep the legacy
// layout of the original kanallar.json file, so an existing file loads as-is.
type gateRecord struct {
	URL       string  `json:"url"`
	KanalId   string  `json:"kanal_id"`
	Vaqt      int     `json:"vaqt"`
	Limit     int     `json:"limit"`
	CreatedAt float64 `json:"created_at"`
	EndTime   float64 `json:"end_time"`
	Members   []any   `json:"members"`
}

// FileStore persists the gate snapshot as a single JSON object keyed by gate
// id. Load is best-effort: a missing or malformed file yields an empty
// snapshot and a warning, never an error.
type FileStore struct {
	path string
	log  *slog.Logger
}

func NewFileStore(path string, log *slog.Logger) *FileStore {
	return &FileStore{
		path: path,
		log:  log.With(sl.Module("storage.file")),
	}
}

func (f *FileStore) Load() ([]*entity.Gate, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.log.Warn("reading gates file", slog.String("path", f.path), sl.Err(err))
		}
		return nil, nil
	}

	records := make(map[string]gateRecord)
	if err = json.Unmarshal(data, &records); err != nil {
		f.log.Warn("gates file is corrupt, starting empty", slog.String("path", f.path), sl.Err(err))
		return nil, nil
	}

	gates := make([]*entity.Gate, 0, len(records))
	for id, rec := range records {
		if rec.KanalId == "" {
			rec.KanalId = id
		}
		gates = append(gates, recordToGate(rec))
	}
	sortGates(gates)
	return gates, nil
}

func (f *FileStore) Save(gates []*entity.Gate) error {
	records := make(map[string]gateRecord, len(gates))
	for _, g := range gates {
		records[g.ID] = gateToRecord(g)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding gates: %w", err)
	}

	// Write-then-rename keeps the previous snapshot intact if the process
	// dies mid-write.
	tmp := f.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing gates file: %w", err)
	}
	if err = os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing gates file: %w", err)
	}
	return nil
}

func recordToGate(rec gateRecord) *entity.Gate {
	g := &entity.Gate{
		ID:              rec.KanalId,
		URL:             rec.URL,
		DurationMinutes: rec.Vaqt,
		Limit:           rec.Limit,
		CreatedAt:       epochToTime(rec.CreatedAt),
		EndTime:         epochToTime(rec.EndTime),
	}
	for _, m := range rec.Members {
		// Older files stored user ids as strings, newer ones as numbers.
		switch v := m.(type) {
		case float64:
			g.AddMember(int64(v))
		case string:
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				g.AddMember(id)
			}
		}
	}
	return g
}

func gateToRecord(g *entity.Gate) gateRecord {
	members := make([]any, 0, len(g.Members))
	for _, m := range g.Members {
		members = append(members, m)
	}
	return gateRecord{
		URL:       g.URL,
		KanalId:   g.ID,
		Vaqt:      g.DurationMinutes,
		Limit:     g.Limit,
		CreatedAt: timeToEpoch(g.CreatedAt),
		EndTime:   timeToEpoch(g.EndTime),
		Members:   members,
	}
}

func epochToTime(sec float64) time.Time {
	return time.UnixMilli(int64(sec * 1000))
}

func timeToEpoch(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
