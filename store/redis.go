package store

import (
	"context"
	"encoding/json"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

var logger = xlog.NewPackageLogger("github.com/smartroute/envmcp", "store")

// The redis store implements the Reports interface using Redis as the
// backend. Reports are kept per city in a Redis list, newest at the tail.
// The keys namespace is organized as follows:
// - `/<prefix>/healthreports/<city>` for the report list of a city

type redisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) Reports {
	return &redisStore{
		client: client,
		prefix: prefix,
	}
}

func (m *redisStore) getReportsKey(city string) string {
	return path.Join(m.prefix, "healthreports", city)
}

func (m *redisStore) Save(ctx context.Context, report *HealthReport) error {
	bs, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "failed to marshal report")
	}

	key := m.getReportsKey(report.City)
	if err := m.client.RPush(ctx, key, bs).Err(); err != nil {
		return errors.Wrap(err, "failed to save report")
	}
	return nil
}

func (m *redisStore) List(ctx context.Context, city string) ([]*HealthReport, error) {
	key := m.getReportsKey(city)
	data, err := m.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}

	var reports []*HealthReport
	for _, item := range data {
		var report HealthReport
		if err := json.Unmarshal([]byte(item), &report); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal report", "err", err.Error())
			continue
		}
		reports = append(reports, &report)
	}
	return reports, nil
}
