// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/rs/zerolog/log"
)

// Conn 是对 zk.Conn 的薄封装，集中管理连接的创建和关闭。
type Conn struct {
	*zk.Conn
}

// Connect 按 "host1:2181,host2:2181" 格式连接 ZooKeeper 集群。
func Connect(addrs string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(addrs, ","), sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		return nil, err
	}
	log.Info().Str("addrs", addrs).Msg("Connected to zookeeper")
	return &Conn{Conn: conn}, nil
}

// Close 关闭连接，所有临时节点（包括持有的锁）随之失效。
func (c *Conn) Close() {
	c.Conn.Close()
}
