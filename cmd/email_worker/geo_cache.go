package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/admin-user-profile/pkg/helpers"
	mailtpl "github.com/oksasatya/admin-user-profile/pkg/mailer/templates"
)

// cachedResolver remembers lookups in Redis so repeated edits from one
// admin's address cost a single call to the geo API.
type cachedResolver struct {
	next mailtpl.GeoResolver
	rdb  redis.Cmdable
	ttl  time.Duration
}

func geoKey(ip string) string { return "geo:ip:" + ip }

func (r cachedResolver) Lookup(ctx context.Context, ip string) (mailtpl.Geo, error) {
	var g mailtpl.Geo
	if found, err := helpers.RedisGetJSON(ctx, r.rdb, geoKey(ip), &g); err == nil && found {
		return g, nil
	}
	g, err := r.next.Lookup(ctx, ip)
	if err != nil {
		return g, err
	}
	// a cache write failure only costs a repeat lookup
	_ = helpers.RedisSetJSON(ctx, r.rdb, geoKey(ip), g, r.ttl)
	return g, nil
}

// withCache wraps next when Redis answers; otherwise next is used directly.
func withCache(ctx context.Context, next mailtpl.GeoResolver, rdb *redis.Client, ttl time.Duration) (mailtpl.GeoResolver, error) {
	if rdb == nil {
		return next, errors.New("no redis client")
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return next, err
	}
	return cachedResolver{next: next, rdb: rdb, ttl: ttl}, nil
}
