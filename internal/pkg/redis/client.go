// internal/pkg/redis/client.go
package redis

import (
	"context"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client 封装 go-redis 的 UniversalClient，
// 同一套代码可以连单机，也可以连集群。
type Client struct {
	rdb goredis.UniversalClient
}

// NewClient 按 "addr1,addr2" 格式的地址列表创建客户端并探活。
func NewClient(addrs string) (*Client, error) {
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        strings.Split(addrs, ","),
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Info().Str("addrs", addrs).Msg("Connected to redis")
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要 pipeline / 高级命令的调用方。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.rdb
}

// Close 关闭连接池。
func (c *Client) Close() error {
	return c.rdb.Close()
}
