package postgres

import (
	"database/sql"

	"github.com/jackc/pgx/v5/stdlib"
)

// OpenStdlib 以 database/sql 打开连接，供迁移使用；迁移串行执行，单连接即可
func OpenStdlib(dsn string) (*sql.DB, error) {
	cfg, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db := stdlib.OpenDB(*cfg)
	db.SetMaxOpenConns(1)
	return db, nil
}
