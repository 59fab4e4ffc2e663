package lib

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// CacheReference remembers which transaction a checkout reference maps
// to so the post-redirect page can resolve it without a table scan.
func CacheReference(ctx context.Context, reference string, txnId string) {
	rd := GetRedisClient()
	if rd == nil {
		return
	}
	if _, err := rd.SetEx(ctx, reference, txnId, 10*time.Minute).Result(); err != nil {
		log.Printf("Error caching value [%s]: %s\n", txnId, err.Error())
	}
}
