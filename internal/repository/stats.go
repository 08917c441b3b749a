package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

var ErrStatsNotFound = errors.New("stats not found")

// PlayerStats holds the aggregate counters per display name. Only
// totals are kept, never individual games.
type PlayerStats struct {
	Name   string `json:"name"`
	Wins   int64  `json:"wins"`
	Losses int64  `json:"losses"`
	Draws  int64  `json:"draws"`
}

type StatsRepository interface {
	RecordResult(ctx context.Context, name, result string) error
	GetByName(ctx context.Context, name string) (*PlayerStats, error)
}

type dbStats struct {
	client *redis.Client
}

func NewStatsRepository(client *redis.Client) StatsRepository {
	return &dbStats{
		client: client,
	}
}

func (that *dbStats) RecordResult(ctx context.Context, name, result string) error {
	statsKey := "stats:" + name

	if err := that.client.HIncrBy(ctx, statsKey, result, 1).Err(); err != nil {
		return fmt.Errorf("failed to increment %s for %s: %w", result, name, err)
	}

	return nil
}

func (that *dbStats) GetByName(ctx context.Context, name string) (*PlayerStats, error) {
	statsKey := "stats:" + name

	fields, err := that.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get stats by name: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrStatsNotFound
	}

	stats := &PlayerStats{Name: name}
	stats.Wins = parseCounter(fields["wins"])
	stats.Losses = parseCounter(fields["losses"])
	stats.Draws = parseCounter(fields["draws"])

	return stats, nil
}

func parseCounter(raw string) int64 {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return value
}
