package main

import (
	"context"

	"github.com/golang/glog"
	"github.com/krancour/guestflow/dashboard/internal/web"
	"github.com/krancour/guestflow/internal/credentials"
	"github.com/krancour/guestflow/internal/redis"
	"github.com/krancour/guestflow/sdk"
)

func getServerFromEnvironment(ctx context.Context) (web.Server, error) {
	config, err := web.GetConfigFromEnvironment()
	if err != nil {
		return nil, err
	}

	var storeFactory credentials.StoreFactory
	switch config.SessionStore() {
	case web.SessionStoreRedis:
		redisConfig, err := redis.GetConfig()
		if err != nil {
			return nil, err
		}
		redisClient, err := redisConfig.Client(ctx)
		if err != nil {
			return nil, err
		}
		storeFactory = credentials.NewRedisStoreFactory(
			redisClient,
			redisConfig.Prefix,
			config.CredentialsTTL(),
		)
		glog.Infof("Keeping browser sessions in redis at %s", redisConfig.Host)
	default:
		storeFactory = credentials.NewMemoryStoreFactory()
		glog.Info("Keeping browser sessions in memory")
	}

	glog.Infof("Using GuestFlow API at %s", config.APIAddress())
	return web.NewServer(
		config,
		sdk.NewAPIClient(config.APIAddress(), config.APIAllowInsecure()),
		storeFactory,
	)
}
