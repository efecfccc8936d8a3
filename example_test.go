package cookieauth_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/cookieauth"
	"github.com/MrEthical07/cookieauth/internal/memdir"
	"github.com/redis/go-redis/v9"
)

// ExampleNew builds an engine over a Redis client and a credential directory.
func ExampleNew() {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})

	cfg := cookieauth.DefaultConfig()
	cfg.JWT.Secret = []byte("replace-with-32-bytes-of-entropy!")

	engine, err := cookieauth.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(memdir.New()).
		Build()
	if err != nil {
		return
	}
	defer engine.Close()
}

// ExampleEngine_Login shows how callers branch on the stable error kinds.
func ExampleEngine_Login() {
	var engine *cookieauth.Engine
	_, _, err := engine.Login(context.Background(), "alice", "password")
	switch {
	case errors.Is(err, cookieauth.ErrAccountLocked):
		fmt.Println("try again later")
	case err != nil:
		fmt.Println(cookieauth.KindOf(err).Code())
	}
}

// ExampleEngine_MetricsSnapshot reads in-process counters.
func ExampleEngine_MetricsSnapshot() {
	var engine *cookieauth.Engine
	snapshot := engine.MetricsSnapshot()
	_ = snapshot.Counters[cookieauth.MetricLoginSuccess]
}
