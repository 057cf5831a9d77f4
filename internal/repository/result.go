package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taoreta-ed/redes2-25-2/internal/entity"
)

var ErrResultNotFound = errors.New("result not found")

const (
	resultKeyPrefix      = "result:"
	recentResultsKey     = "results:recent"
	leaderboardKeyPrefix = "leaderboard:"
	statsKeyPrefix       = "stats:"

	recentResultsLimit = 100
	leaderboardLimit   = 100
)

type ResultRepository interface {
	Save(ctx context.Context, record *entity.GameRecord) error
	GetByID(ctx context.Context, id string) (*entity.GameRecord, error)
	Recent(ctx context.Context, limit int) ([]*entity.GameRecord, error)
	Fastest(ctx context.Context, difficulty entity.Difficulty, limit int) ([]*entity.GameRecord, error)
	Stats(ctx context.Context, difficulty entity.Difficulty) (Stats, error)
}

// Stats - finished games of one difficulty.
type Stats struct {
	Difficulty entity.Difficulty `json:"difficulty"`
	Wins       int64             `json:"wins"`
	Losses     int64             `json:"losses"`
}

type dbResult struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultRepository - ttl of zero keeps results forever.
func NewResultRepository(client *redis.Client, ttl time.Duration) ResultRepository {
	return &dbResult{
		client: client,
		ttl:    ttl,
	}
}

func resultKey(id string) string {
	return resultKeyPrefix + id
}

func leaderboardKey(difficulty entity.Difficulty) string {
	return leaderboardKeyPrefix + string(difficulty)
}

func statsKey(difficulty entity.Difficulty) string {
	return statsKeyPrefix + string(difficulty)
}

// Save - stores the record, pushes it on the recent list and, for a win,
// ranks it by duration. Only the fastest leaderboardLimit wins are kept.
func (that *dbResult) Save(ctx context.Context, record *entity.GameRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, resultKey(record.SessionID), recordJSON, that.ttl)
		pipe.LPush(ctx, recentResultsKey, record.SessionID)
		pipe.LTrim(ctx, recentResultsKey, 0, recentResultsLimit-1)
		pipe.HIncrBy(ctx, statsKey(record.Difficulty), string(record.Outcome), 1)

		if record.IsWin() {
			pipe.ZAdd(ctx, leaderboardKey(record.Difficulty), redis.Z{
				Score:  float64(record.Duration),
				Member: record.SessionID,
			})
			pipe.ZRemRangeByRank(ctx, leaderboardKey(record.Difficulty), leaderboardLimit, -1)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	return nil
}

func (that *dbResult) GetByID(ctx context.Context, id string) (*entity.GameRecord, error) {
	response, err := that.client.Get(ctx, resultKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get result by id: %w", err)
	}

	var record entity.GameRecord
	if err = json.Unmarshal([]byte(response), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &record, nil
}

// Recent - newest first. Expired results are skipped.
func (that *dbResult) Recent(ctx context.Context, limit int) ([]*entity.GameRecord, error) {
	if limit <= 0 || limit > recentResultsLimit {
		limit = recentResultsLimit
	}

	ids, err := that.client.LRange(ctx, recentResultsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list recent results: %w", err)
	}

	return that.loadAll(ctx, ids)
}

// Fastest - quickest wins of a difficulty, fastest first.
func (that *dbResult) Fastest(ctx context.Context, difficulty entity.Difficulty, limit int) ([]*entity.GameRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	ids, err := that.client.ZRange(ctx, leaderboardKey(difficulty), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	return that.loadAll(ctx, ids)
}

func (that *dbResult) Stats(ctx context.Context, difficulty entity.Difficulty) (Stats, error) {
	counters, err := that.client.HGetAll(ctx, statsKey(difficulty)).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}

	stats := Stats{Difficulty: difficulty}

	if stats.Wins, err = parseCounter(counters, entity.OutcomeWin); err != nil {
		return Stats{}, err
	}

	if stats.Losses, err = parseCounter(counters, entity.OutcomeLoss); err != nil {
		return Stats{}, err
	}

	return stats, nil
}

func parseCounter(counters map[string]string, outcome entity.Outcome) (int64, error) {
	value, ok := counters[string(outcome)]
	if !ok {
		return 0, nil
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s counter: %w", outcome, err)
	}

	return count, nil
}

func (that *dbResult) loadAll(ctx context.Context, ids []string) ([]*entity.GameRecord, error) {
	records := make([]*entity.GameRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = resultKey(id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		var record entity.GameRecord
		if err = json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		records = append(records, &record)
	}

	return records, nil
}
