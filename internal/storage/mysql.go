package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"subgate/entity"
	"subgate/internal/config"
	"subgate/lib/sl"
)

const createGatesTable = `CREATE TABLE IF NOT EXISTS gates (
	kanal_id VARCHAR(128) NOT NULL PRIMARY KEY,
	url TEXT NOT NULL,
	vaqt INT NOT NULL,
	limit_count INT NOT NULL,
	created_at DOUBLE NOT NULL,
	end_time DOUBLE NOT NULL,
	members TEXT NOT NULL
)`

// MySQLStore keeps the gate snapshot in one table; the member set is stored
// as a JSON column. Save replaces all rows inside a transaction.
type MySQLStore struct {
	db  *sql.DB
	log *slog.Logger
}

func NewMySQLStore(conf *config.Config, log *slog.Logger) (*MySQLStore, error) {
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		conf.Storage.MySQL.UserName, conf.Storage.MySQL.Password,
		conf.Storage.MySQL.HostName, conf.Storage.MySQL.Port, conf.Storage.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err = db.Exec(createGatesTable); err != nil {
		return nil, fmt.Errorf("creating gates table: %w", err)
	}

	return &MySQLStore{
		db:  db,
		log: log.With(sl.Module("storage.mysql")),
	}, nil
}

func (s *MySQLStore) Load() ([]*entity.Gate, error) {
	rows, err := s.db.Query(
		`SELECT kanal_id, url, vaqt, limit_count, created_at, end_time, members
		 FROM gates ORDER BY created_at, kanal_id`)
	if err != nil {
		return nil, fmt.Errorf("loading gates: %w", err)
	}
	defer rows.Close()

	var gates []*entity.Gate
	for rows.Next() {
		var (
			g                  entity.Gate
			createdAt, endTime float64
			members            []byte
		)
		err = rows.Scan(&g.ID, &g.URL, &g.DurationMinutes, &g.Limit, &createdAt, &endTime, &members)
		if err != nil {
			return nil, fmt.Errorf("scanning gate row: %w", err)
		}
		g.CreatedAt = epochToTime(createdAt)
		g.EndTime = epochToTime(endTime)
		if err = json.Unmarshal(members, &g.Members); err != nil {
			s.log.Warn("gate has corrupt member list", slog.String("id", g.ID), sl.Err(err))
			g.Members = nil
		}
		gates = append(gates, &g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("reading gate rows: %w", err)
	}
	return gates, nil
}

func (s *MySQLStore) Save(gates []*entity.Gate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.Exec(`DELETE FROM gates`); err != nil {
		return fmt.Errorf("clearing gates: %w", err)
	}
	for _, g := range gates {
		members := g.Members
		if members == nil {
			members = []int64{}
		}
		encoded, err := json.Marshal(members)
		if err != nil {
			return fmt.Errorf("encoding members of %s: %w", g.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO gates (kanal_id, url, vaqt, limit_count, created_at, end_time, members)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.URL, g.DurationMinutes, g.Limit,
			timeToEpoch(g.CreatedAt), timeToEpoch(g.EndTime), encoded)
		if err != nil {
			return fmt.Errorf("inserting gate %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}
