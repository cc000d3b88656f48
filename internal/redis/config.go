package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/krancour/guestflow/internal/retries"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

const envconfigPrefix = "REDIS"

// Config represents the options for the Redis connection that backs
// dashboard sessions
type Config struct {
	Host       string `envconfig:"HOST" required:"true"`
	Port       int    `envconfig:"PORT" default:"6379"`
	Password   string `envconfig:"PASSWORD"`
	DB         int    `envconfig:"DB"`
	EnableTLS  bool   `envconfig:"ENABLE_TLS"`
	Prefix     string `envconfig:"PREFIX" default:"guestflow:"`
	MaxRetries int    `envconfig:"MAX_RETRIES" default:"5"`
	// ConnectAttempts bounds how many times Client pings Redis before giving
	// up. Redis frequently starts after the dashboard in compose setups.
	ConnectAttempts uint8         `envconfig:"CONNECT_ATTEMPTS" default:"5"`
	ConnectBackoff  time.Duration `envconfig:"CONNECT_BACKOFF" default:"10s"`
}

// GetConfig reads Redis connection options from REDIS_* environment
// variables.
func GetConfig() (Config, error) {
	c := Config{}
	err := envconfig.Process(envconfigPrefix, &c)
	return c, errors.Wrap(
		err,
		"error getting redis configuration from environment",
	)
}

// Options translates the Config into options for the redis client.
func (c Config) Options() *redis.Options {
	redisOpts := &redis.Options{
		Addr:       fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password:   c.Password,
		DB:         c.DB,
		MaxRetries: c.MaxRetries,
	}
	if c.EnableTLS {
		redisOpts.TLSConfig = &tls.Config{
			ServerName: c.Host,
		}
	}
	return redisOpts
}

// Client returns a connection to the Redis database described by the Config
// once it has answered a ping.
func (c Config) Client(ctx context.Context) (*redis.Client, error) {
	client := redis.NewClient(c.Options())
	if err := retries.ManageRetries(
		ctx,
		fmt.Sprintf("connect to redis at %s", c.Host),
		c.ConnectAttempts,
		c.ConnectBackoff,
		func() (bool, error) {
			if err := client.Ping().Err(); err != nil {
				return true, err
			}
			return false, nil
		},
	); err != nil {
		client.Close()
		return nil, errors.Wrapf(err, "error connecting to redis at %s", c.Host)
	}
	return client, nil
}
