package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxOpener 基于 pgxpool 的 PostgreSQL 网关
type PgxOpener struct {
	Pool *pgxpool.Pool
}

// NewPgxOpener 创建 PostgreSQL 网关
func NewPgxOpener(pool *pgxpool.Pool) *PgxOpener {
	return &PgxOpener{Pool: pool}
}

// Open 从 pgxpool 获取一个连接
func (o *PgxOpener) Open(ctx context.Context) (Handle, error) {
	conn, err := o.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &pgxHandle{conn: conn}, nil
}

type pgxHandle struct {
	conn *pgxpool.Conn
}

func (h *pgxHandle) Query(ctx context.Context, query string) ([]Row, error) {
	rows, err := h.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0, len(maps))
	for _, m := range maps {
		out = append(out, Row(m))
	}
	return out, nil
}

func (h *pgxHandle) QueryOneRow(ctx context.Context, query string) (Row, bool, error) {
	rows, err := h.conn.Query(ctx, query)
	if err != nil {
		return nil, false, err
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return Row(m), true, nil
}

func (h *pgxHandle) GetSetting(ctx context.Context, name string) (string, error) {
	var v *string
	err := h.conn.QueryRow(ctx, `select value from settings where setting = $1`, name).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", name, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (h *pgxHandle) Close() error {
	h.conn.Release()
	return nil
}
