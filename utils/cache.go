package utils

import (
	"context"
	"log"
	"time"

	"ibook/config"

	"github.com/go-redis/redis/v8"
)

// QueueClient is the Redis client backing the asynq queue and health checks.
var QueueClient *redis.Client

// InitRedis initializes the Redis client used by the background queue.
func InitRedis() {
	QueueClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := QueueClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Queue): %v", err)
	}
}

// GetQueueClient returns the queue Redis client.
func GetQueueClient() *redis.Client {
	if QueueClient == nil {
		InitRedis()
	}
	return QueueClient
}
