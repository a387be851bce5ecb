package main

import (
	"context"

	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/redis"
)

// Readiness-probe adapters for HealthHandler.

type postgresChecker struct {
	pool *postgres.Pool
}

func (c postgresChecker) Name() string { return "postgres" }

func (c postgresChecker) Check(ctx context.Context) error {
	return c.pool.HealthCheck(ctx)
}

type redisChecker struct {
	client *redis.Client
}

func (c redisChecker) Name() string { return "redis" }

func (c redisChecker) Check(ctx context.Context) error {
	return c.client.Ping(ctx)
}
