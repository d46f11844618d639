package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "engbot:conversation:"

// RedisStore keeps states in Redis so flows survive a restart within the TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a connected client; ttl bounds how long an abandoned flow is kept
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Idle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation state: %w", err)
	}
	return Decode(data)
}

func (s *RedisStore) Set(ctx context.Context, userID int64, state State) error {
	if _, idle := state.(Idle); idle || state == nil {
		if err := s.client.Del(ctx, redisKey(userID)).Err(); err != nil {
			return fmt.Errorf("failed to clear conversation state: %w", err)
		}
		return nil
	}

	data, err := Encode(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation state: %w", err)
	}
	return nil
}

func redisKey(userID int64) string {
	return redisKeyPrefix + strconv.FormatInt(userID, 10)
}

type envelope struct {
	Kind  Kind            `json:"kind"`
	State json.RawMessage `json:"state,omitempty"`
}

// Encode serializes a state with its kind tag
func Encode(state State) ([]byte, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state: %w", state.Kind(), err)
	}
	return json.Marshal(envelope{Kind: state.Kind(), State: payload})
}

// Decode restores a state written by Encode
func Decode(data []byte) (State, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode conversation state: %w", err)
	}

	var (
		state State
		err   error
	)
	switch env.Kind {
	case KindIdle:
		return Idle{}, nil
	case KindAwaitingTestAnswer:
		var s AwaitingTestAnswer
		err = json.Unmarshal(env.State, &s)
		state = s
	case KindAddingWord:
		var s AddingWord
		err = json.Unmarshal(env.State, &s)
		state = s
	case KindRepeatSequence:
		var s RepeatSequence
		err = json.Unmarshal(env.State, &s)
		state = s
	default:
		return nil, fmt.Errorf("unknown conversation state %q", env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s state: %w", env.Kind, err)
	}
	return state, nil
}
