package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event announces a finished publish.
type Event struct {
	RunID       string    `json:"run_id"`
	Season      string    `json:"season"`
	Artifacts   int       `json:"artifacts"`
	Prefix      string    `json:"prefix,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// DefaultStream is the Redis stream publish events are appended to.
const DefaultStream = "boxscore.published"

type streamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisNotifier appends events to a Redis stream.
type RedisNotifier struct {
	client streamAdder
	stream string
	maxLen int64
}

func NewRedisNotifier(client streamAdder, stream string) *RedisNotifier {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisNotifier{client: client, stream: stream, maxLen: 1000}
}

// NewRedisClient connects to url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"season":    ev.Season,
			"data":      string(data),
			"timestamp": ev.PublishedAt.Unix(),
		},
	}).Err()
}
