package database

import (
	"database/sql"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGorm opens a GORM session on top of an existing pool so sqlx and GORM
// repositories share connections.
func NewGorm(sqlDB *sql.DB, log gormlogger.Interface) (*gorm.DB, error) {
	if log == nil {
		log = gormlogger.Discard
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
	})
}

const startKey = "observer:start"

// QueryObserver receives the duration of every GORM statement, labelled
// "<table>.<operation>".
type QueryObserver func(label string, d time.Duration)

// RegisterQueryObserver wires observe around the create, query, update,
// delete and raw callback chains.
func RegisterQueryObserver(db *gorm.DB, observe QueryObserver) error {
	if observe == nil {
		return nil
	}
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(startKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			observe(table+"."+op, time.Since(start))
		}
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("observer:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("observer:after_create", after("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("observer:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("observer:after_query", after("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("observer:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("observer:after_update", after("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("observer:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("observer:after_delete", after("delete")); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("observer:before_raw", before); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("observer:after_raw", after("raw"))
}
