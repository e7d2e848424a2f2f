// Package gateway 提供调度阶段使用的设置/查询网关。
//
// 网关句柄只在选择工作的阶段持有，启动进程池之前必须 Close 归还连接。
package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Row 一行查询结果（列名 -> 值），只读快照
type Row map[string]any

// Gateway 只读查询与设置读取
type Gateway interface {
	// Query 执行查询并返回全部结果
	Query(ctx context.Context, query string) ([]Row, error)

	// QueryOneRow 返回第一行；没有结果时 ok=false
	QueryOneRow(ctx context.Context, query string) (row Row, ok bool, err error)

	// GetSetting 读取 settings 表中的配置值，不存在时返回空字符串
	GetSetting(ctx context.Context, name string) (string, error)
}

// Handle 已获取的网关句柄
type Handle interface {
	Gateway
	Close() error
}

// Opener 获取网关句柄
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}

// Has 判断列是否存在且非 NULL
func (r Row) Has(col string) bool {
	v, ok := r[col]
	return ok && v != nil
}

// String 以字符串形式读取列值
func (r Row) String(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// Int 以整数形式读取列值，无法转换时 ok=false
func (r Row) Int(col string) (int64, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	default:
		return parseInt(fmt.Sprint(x))
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
