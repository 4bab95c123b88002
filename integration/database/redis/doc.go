// Package redis connects to Redis and stores sessions in it.
//
// Connect parses the URL, retries the first ping and returns a ready
// client. SessionStore implements session.Store on top of it, so sessions
// survive restarts and are shared between instances:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sessions := session.NewManager(redis.NewSessionStore(client, redis.WithKeyPrefix(cfg.SessionPrefix)))
//	r := router.New(router.WithSessionStore(sessions))
//
// Keys expire with their sessions, so DeleteExpired only removes entries
// that can no longer be decoded.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		ScanBatchSize  int64         `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
//		SessionPrefix  string        `env:"REDIS_SESSION_PREFIX" envDefault:"session:"`
//	}
//
// Both redis:// and rediss:// (TLS) URLs are accepted.
package redis
