// Package database implements the embedded entry store: SQLite tables for
// catalog entries, their normalized side tables (references, flags, display
// order) and review metadata, with transactional mutation paths and a
// synchronous change-notification hook.
package database

import (
	"fmt"
	"reflect"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/potool/potool/internal/entities"
)

const entriesTable = "entries"

type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// Change describes one row-level mutation of the entries table. Key is
// populated when the mutated row is available to the store; a zero RowID with
// an empty Key means "unknown rows changed" (mass deletes).
type Change struct {
	Op    ChangeOp
	Table string
	RowID int64
	Key   string
}

// ChangeHook receives every entries-table mutation, synchronously, inside the
// mutating call. The store knows nothing about what the hook does.
type ChangeHook func(Change)

// Store owns the SQLite handle. All mutating operations run inside a single
// transaction that rolls back completely on error.
type Store struct {
	db   *gorm.DB
	hook ChangeHook
}

// Open opens (or creates) the store at dbPath and migrates the schema.
// Pass ":memory:" for a purely in-memory store.
func Open(dbPath string) (*Store, error) {
	dsn := dbPath + "?_fk=1&_journal=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?cache=shared&_fk=1"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection keeps SQLITE_BUSY away and makes session-level
	// PRAGMA statements (reorder relaxes FK enforcement) reliable.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return New(db)
}

// New wraps an existing gorm handle, migrating the schema and installing the
// change-notification callbacks. Intended for tests and custom wiring.
func New(db *gorm.DB) (*Store, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.registerCallbacks(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates all catalog tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Entry{},
		&entities.EntryReference{},
		&entities.EntryFlag{},
		&entities.DisplayOrder{},
		&entities.ReviewComment{},
		&entities.QualityScore{},
		&entities.CategoryScore{},
		&entities.CheckResult{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SetChangeHook registers the single change-notification callback. Call once
// at composition time, before any mutation.
func (s *Store) SetChangeHook(hook ChangeHook) {
	s.hook = hook
}

func (s *Store) registerCallbacks() error {
	cb := s.db.Callback()
	if err := cb.Create().After("gorm:create").Register("potool:notify_create", s.notify(ChangeInsert)); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("potool:notify_update", s.notify(ChangeUpdate)); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("potool:notify_delete", s.notify(ChangeDelete)); err != nil {
		return err
	}
	return nil
}

// notify fires the change hook for every entries row touched by a statement.
// Side-table writes pass through without notification.
func (s *Store) notify(op ChangeOp) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		if s.hook == nil || tx.Error != nil || tx.Statement.Table != entriesTable {
			return
		}

		rv := tx.Statement.ReflectValue
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				s.emit(op, rv.Index(i))
			}
		case reflect.Struct:
			s.emit(op, rv)
		default:
			s.hook(Change{Op: op, Table: entriesTable})
		}
	}
}

func (s *Store) emit(op ChangeOp, rv reflect.Value) {
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	ch := Change{Op: op, Table: entriesTable}
	if rv.Kind() == reflect.Struct {
		if f := rv.FieldByName("ID"); f.IsValid() && f.CanInt() {
			ch.RowID = f.Int()
		}
		if f := rv.FieldByName("Key"); f.IsValid() && f.Kind() == reflect.String {
			ch.Key = f.String()
		}
	}
	s.hook(ch)
}

// Clear deletes every row from every table. Side tables go first so the
// entries delete never trips a constraint.
func (s *Store) Clear() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{
			"category_scores", "quality_scores", "review_comments",
			"check_results", "entry_references", "entry_flags", "display_order",
		} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		// Routed through the delete callback so the change hook observes it.
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Entry{}).Error; err != nil {
			return fmt.Errorf("failed to clear entries: %w", err)
		}
		return nil
	})
}
