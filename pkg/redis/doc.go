// Package redis wraps github.com/redis/go-redis/v9 with connection retry,
// health checks and a lease lock used to elect a single dispatching beat
// process.
//
// Redis is optional for beat. When REDIS_URL is empty the beat daemon runs
// without a lock and must be deployed as a single replica.
//
//	var cfg redis.Config
//	if err := env.Parse(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	lock, err := redis.NewLock(client, "beat:leader")
//	if err != nil {
//		return err
//	}
//	loop, err := scheduler.NewLoop(sched, enq.Dispatch, scheduler.WithLocker(lock))
//
// # Lock
//
// Lock.Acquire is meant to be called on every loop iteration: it takes the
// lease when free and extends it when already held by the same owner. A
// crashed holder loses the lease after its TTL and another replica takes
// over. Release only deletes the key when it still belongs to the caller.
//
// # Health checks
//
// Healthcheck returns a function compatible with health.CheckFunc.
package redis
