package database

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"

	"github.com/kithmonite/engine/internal/models"
)

// InitRedis initializes Redis client with config
func InitRedis() *redis.Client {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	addr := viper.GetString("redis.host") + ":" + viper.GetString("redis.port")
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection failed, continuing without Redis: %v", err)
		return nil
	}

	log.Println("Redis connection established")
	return rdb
}

// RejectedQueueKey is the list rejected records are pushed to.
const RejectedQueueKey = "rejected_transactions"

type rejectedRecord struct {
	Record models.TransactionRecord `json:"record"`
	Reason string                   `json:"reason"`
}

// RejectionQueue pushes rejected records to a Redis list so downstream
// consumers can inspect them without parsing logs.
type RejectionQueue struct {
	redis *redis.Client
}

func NewRejectionQueue(rdb *redis.Client) *RejectionQueue {
	return &RejectionQueue{redis: rdb}
}

// Push appends one rejected record to the queue.
func (q *RejectionQueue) Push(ctx context.Context, rec models.TransactionRecord, reason string) error {
	data, err := json.Marshal(rejectedRecord{Record: rec, Reason: reason})
	if err != nil {
		return err
	}

	return q.redis.RPush(ctx, RejectedQueueKey, data).Err()
}
