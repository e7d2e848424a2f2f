package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLOpener 基于 database/sql 的网关（SQLite 与 pgx stdlib 驱动均可）
type SQLOpener struct {
	DB *sql.DB
	// Placeholder 设置查询的占位符，SQLite 为 "?"，PostgreSQL 为 "$1"
	Placeholder string
}

// NewSQLOpener 创建 database/sql 网关
func NewSQLOpener(db *sql.DB, placeholder string) *SQLOpener {
	if placeholder == "" {
		placeholder = "?"
	}
	return &SQLOpener{DB: db, Placeholder: placeholder}
}

// Open 从连接池独占一个连接
func (o *SQLOpener) Open(ctx context.Context) (Handle, error) {
	conn, err := o.DB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &sqlHandle{conn: conn, placeholder: o.Placeholder}, nil
}

type sqlHandle struct {
	conn        *sql.Conn
	placeholder string
}

func (h *sqlHandle) Query(ctx context.Context, query string) ([]Row, error) {
	rows, err := h.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = vals[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (h *sqlHandle) QueryOneRow(ctx context.Context, query string) (Row, bool, error) {
	rows, err := h.Query(ctx, query)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

func (h *sqlHandle) GetSetting(ctx context.Context, name string) (string, error) {
	var v sql.NullString
	err := h.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE setting = "+h.placeholder, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", name, err)
	}
	return v.String, nil
}

func (h *sqlHandle) Close() error {
	return h.conn.Close()
}
