// Package redisconn builds go-redis clients from configuration values.
package redisconn

import (
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// New accepts either a redis:// URL or a bare host:port.
func New(addr string) (*redis.Client, error) {
	if opts, err := redis.ParseURL(addr); err == nil {
		return redis.NewClient(opts), nil
	}
	if addr == "" {
		return nil, errors.New("redis address is empty")
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}
