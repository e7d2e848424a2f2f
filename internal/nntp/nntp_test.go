package nntp

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve 启动一个只回复问候与 QUIT 的假服务器
func serve(t *testing.T, greeting string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	cmds := make(chan string, 4)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		_, _ = c.Write([]byte(greeting + "\r\n"))
		line, err := bufio.NewReader(c).ReadString('\n')
		if err != nil {
			return
		}
		cmds <- strings.TrimSpace(line)
		_, _ = c.Write([]byte("205 bye\r\n"))
	}()
	return ln.Addr().String(), cmds
}

func TestDial_PrimaryAndAlternate(t *testing.T) {
	primary, primaryCmds := serve(t, "200 news.example ready")
	alternate, altCmds := serve(t, "201 alt.example ready, no posting")

	client := NewClient(primary, alternate, time.Second)

	conn, err := client.Dial(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, primary, conn.Addr())
	require.NoError(t, conn.Close())
	assert.Equal(t, "QUIT", <-primaryCmds)

	conn, err = client.Dial(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, alternate, conn.Addr())
	require.NoError(t, conn.Close())
	assert.Equal(t, "QUIT", <-altCmds)
}

func TestDial_BadGreeting(t *testing.T) {
	addr, _ := serve(t, "502 access denied")
	_, err := NewClient(addr, "", time.Second).Dial(context.Background(), false)
	assert.Error(t, err)
}

func TestDial_NoServer(t *testing.T) {
	_, err := NewClient("127.0.0.1:119", "", time.Second).Dial(context.Background(), true)
	assert.ErrorIs(t, err, ErrNoServer)
}
