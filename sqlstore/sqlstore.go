// Package sqlstore persists budget stores in a SQL database, using gorm.
//
// Every kind shares two tables:
//
//	budget_records(kind, seq, line)  one row per record, seq is the position in the store
//	budget_counters(kind, next_id)   the id counter of each kind
//
// A line holds the same JSON object as the files of budget.FileBackend, so that
// migrating between both is lossless.
package sqlstore

import (
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"
)

// recordRow is a line of a store.
type recordRow struct {
	Kind string `gorm:"primaryKey;size:64"`
	Seq  int    `gorm:"primaryKey;autoIncrement:false"`
	Line string `gorm:"type:text;not null"`
}

func (recordRow) TableName() string { return "budget_records" }

// counterRow is the id counter of a store.
type counterRow struct {
	Kind   string `gorm:"primaryKey;size:64"`
	NextID int64  `gorm:"not null"`
}

func (counterRow) TableName() string { return "budget_counters" }

// Backend is a budget.Backend over a SQL database.
type Backend struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Dialector returns the gorm dialector for dsn.
//
// "postgres://…", "postgresql://…" and key/value DSNs ("host=… dbname=…") open postgres,
// anything else is a sqlite file name, with an optional "sqlite://" or "sqlite:" prefix.
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		return postgres.Open(dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	default:
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	}
}

// Open connects to the database at dsn and creates the tables if needed.
func Open(dsn string, log *zap.SugaredLogger) (*Backend, error) {
	db, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, log)
}

// New returns a Backend using db, and creates the tables if needed.
func New(db *gorm.DB, log *zap.SugaredLogger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := db.AutoMigrate(&recordRow{}, &counterRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Backend{db: db, log: log.With("backend", db.Dialector.Name())}, nil
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB { return b.db }

// Read implements budget.Backend.
func (b *Backend) Read(kind string) (int64, [][]byte, error) {
	var counters []counterRow
	if err := b.db.Where("kind = ?", kind).Limit(1).Find(&counters).Error; err != nil {
		return 0, nil, fmt.Errorf("cannot read counter of %q: %w", kind, err)
	}
	if len(counters) == 0 {
		return 0, nil, fmt.Errorf("no %q in database: %w", kind, fs.ErrNotExist)
	}

	var rows []recordRow
	if err := b.db.Where("kind = ?", kind).Order("seq").Find(&rows).Error; err != nil {
		return 0, nil, fmt.Errorf("cannot read records of %q: %w", kind, err)
	}
	lines := make([][]byte, len(rows))
	for i, r := range rows {
		lines[i] = []byte(r.Line)
	}
	return counters[0].NextID, lines, nil
}

// Write implements budget.Backend. The kind is replaced in a single transaction.
func (b *Backend) Write(kind string, nextID int64, lines [][]byte) error {
	rows := make([]recordRow, len(lines))
	for i, l := range lines {
		rows[i] = recordRow{Kind: kind, Seq: i + 1, Line: string(l)}
	}
	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", kind).Delete(&recordRow{}).Error; err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"next_id"}),
		}).Create(&counterRow{Kind: kind, NextID: nextID}).Error
	})
	if err != nil {
		return fmt.Errorf("persist error: cannot write %q: %w", kind, err)
	}
	b.log.Debugw("write-store-rows", "kind", kind, "records", len(rows), "next_id", nextID)
	return nil
}

// Close closes the connection.
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
