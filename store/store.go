package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/orochaa/access-logger/model"
)

// accessLogKey is the sorted set holding every access record, scored by the
// record timestamp in nanoseconds so time-range scans are a ZRANGEBYSCORE.
const accessLogKey = "access_log"

// AccessStore is the gateway to the persisted access records. It owns the
// self-test traffic filter: records produced against localhost never reach
// the aggregation core.
type AccessStore struct {
	redis *redis.Client
}

func NewAccessStore(redisClient *redis.Client) *AccessStore {
	return &AccessStore{redis: redisClient}
}

// Put persists one access record.
func (s *AccessStore) Put(ctx context.Context, record model.AccessRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal access record: %w", err)
	}

	err = s.redis.ZAdd(ctx, accessLogKey, &redis.Z{
		Score:  float64(record.Timestamp.UnixNano()),
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("store access record: %w", err)
	}

	return nil
}

// FetchRange returns every record whose timestamp falls inside [start, end],
// both bounds inclusive, with self-test traffic filtered out. The order of
// the returned slice is not part of the contract; callers impose their own.
func (s *AccessStore) FetchRange(ctx context.Context, start, end time.Time) ([]model.AccessRecord, error) {
	members, err := s.redis.ZRangeByScore(ctx, accessLogKey, &redis.ZRangeBy{
		Min: strconv.FormatInt(start.UnixNano(), 10),
		Max: strconv.FormatInt(end.UnixNano(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch access records: %w", err)
	}

	records := make([]model.AccessRecord, 0, len(members))
	for _, member := range members {
		var record model.AccessRecord
		if err := json.Unmarshal([]byte(member), &record); err != nil {
			// One corrupt entry must not abort the whole report.
			log.Warn().Err(err).Msg("Skipping malformed access record")
			continue
		}
		if isSelfTestTraffic(record) {
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// isSelfTestTraffic reports whether the record was produced by a local
// development session rather than a real client.
func isSelfTestTraffic(record model.AccessRecord) bool {
	if record.Meta == nil {
		return false
	}
	pageURL := record.Meta.PageURL
	return strings.Contains(pageURL, "localhost") || strings.Contains(pageURL, "127.0.0.1")
}
