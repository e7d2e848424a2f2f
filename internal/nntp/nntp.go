// Package nntp 建立到 usenet 服务器的最小连接，仅用于共享阶段的可达性确认。
package nntp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"time"
)

// ErrNoServer 未配置服务器地址
var ErrNoServer = errors.New("nntp server address not configured")

// Conn 一个已完成问候的 NNTP 连接
type Conn interface {
	Addr() string
	Close() error
}

// Dialer 建立 NNTP 连接，alternate 为 true 时使用备用服务器
type Dialer interface {
	Dial(ctx context.Context, alternate bool) (Conn, error)
}

// Client 基于 TCP 的 NNTP 拨号器
type Client struct {
	Addr          string
	AlternateAddr string
	Timeout       time.Duration
}

// NewClient 创建 NNTP 拨号器
func NewClient(addr, alternateAddr string, timeout time.Duration) *Client {
	return &Client{Addr: addr, AlternateAddr: alternateAddr, Timeout: timeout}
}

// Dial 连接服务器并校验 200/201 问候
func (c *Client) Dial(ctx context.Context, alternate bool) (Conn, error) {
	addr := c.Addr
	if alternate {
		addr = c.AlternateAddr
	}
	if addr == "" {
		return nil, ErrNoServer
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	dialer := net.Dialer{Timeout: timeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial nntp %s: %w", addr, err)
	}
	_ = raw.SetDeadline(time.Now().Add(timeout))

	tc := textproto.NewConn(raw)
	// 200 允许发帖，201 只读，两者都可用于共享
	if _, _, err := tc.ReadCodeLine(20); err != nil {
		_ = tc.Close()
		return nil, fmt.Errorf("nntp greeting from %s: %w", addr, err)
	}
	_ = raw.SetDeadline(time.Time{})

	return &conn{addr: addr, tc: tc}, nil
}

type conn struct {
	addr string
	tc   *textproto.Conn
}

func (c *conn) Addr() string { return c.addr }

// Close 发送 QUIT 后关闭连接
func (c *conn) Close() error {
	id, err := c.tc.Cmd("QUIT")
	if err == nil {
		c.tc.StartResponse(id)
		_, _, _ = c.tc.ReadCodeLine(205)
		c.tc.EndResponse(id)
	}
	return c.tc.Close()
}
