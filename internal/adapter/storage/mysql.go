package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

//go:embed schema/mysql.sql
var mysqlSchema string

const (
	mysqlErrDuplicateEntry   = 1062
	mysqlErrNoReferencedRow2 = 1452
)

var mysqlDialect = dialect{
	name:   "mysql",
	schema: mysqlSchema,
	isDuplicate: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
	},
	isForeignKeyMiss: func(err error) bool {
		var me *mysql.MySQLError
		return errors.As(err, &me) && me.Number == mysqlErrNoReferencedRow2
	},
}

func NewMySQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, dialect: mysqlDialect}
}

// OpenMySQL connects with time parsing forced on and UTC as the session
// location, since requests and logs are ordered by their timestamps.
func OpenMySQL(dsn string, maxOpenConns int) (*SQLAdapter, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return NewMySQLAdapter(db), nil
}
