package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/pricing-rl/types"
	"go.uber.org/zap"
)

// RedisPublisher is an Analyzer that pushes a json summary of every episode
// onto the list <prefix>:<experiment>:<run>.
// Failing pushes are logged and counted, they never stop a run.
type RedisPublisher struct {
	ctx    context.Context
	client *redis.Client
	prefix string
	logger *zap.Logger

	published int
	failed    int
}

var _ types.Analyzer = &RedisPublisher{}

func NewRedisPublisher(ctx context.Context, client *redis.Client, prefix string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{
		ctx:    ctx,
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Key is the list the episodes of the experiment and run are pushed to
func (r *RedisPublisher) Key(experiment string, run int) string {
	return fmt.Sprintf("%s:%s:%d", r.prefix, experiment, run)
}

func (r *RedisPublisher) Analyze(run, episode int, experiment string, trace *types.Trace) {
	bs, err := json.Marshal(EpisodeRecord{
		ID:          episode,
		Run:         run,
		Episode:     episode,
		Experiment:  experiment,
		TotalReward: trace.TotalReward(),
		Prices:      trace.Prices(),
	})
	if err != nil {
		r.failed++
		r.logger.Error("failed to marshal episode", zap.Error(err))
		return
	}
	key := r.Key(experiment, run)
	if err := r.client.RPush(r.ctx, key, bs).Err(); err != nil {
		r.failed++
		r.logger.Warn("failed to publish episode",
			zap.String("key", key),
			zap.Int("episode", episode),
			zap.Error(err),
		)
		return
	}
	r.published++
}

// DataSet is the [2]int of published and failed pushes since the last Reset
func (r *RedisPublisher) DataSet() types.DataSet {
	return [2]int{r.published, r.failed}
}

func (r *RedisPublisher) Reset() {
	r.published = 0
	r.failed = 0
}
