package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"meetsync/auth"
	"meetsync/domain"
	"meetsync/errors"
)

// Redis-backed drivers for the same repository interfaces. The hosted
// deployment keeps meeting and user documents in redis; documents use
// the exact same JSON encoding as the badger driver.

const redisOpTimeout = 5 * time.Second

// NewRedisClient connects and pings so a bad REDIS_URL fails at boot,
// not on the first update.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

type RedisUserRepository struct {
	client        *redis.Client
	tokenValidity time.Duration
}

func NewRedisUserRepository(client *redis.Client, tokenValidity time.Duration) IUserRepository {
	return &RedisUserRepository{client: client, tokenValidity: tokenValidity}
}

func (r *RedisUserRepository) CreateUser() (domain.User, error) {
	user := domain.User{
		ID:     auth.NewUserID(),
		Tokens: []domain.AccessToken{auth.NewAccessToken(r.tokenValidity)},
	}
	if err := r.set(userKey(user.ID), fromUser(user)); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *RedisUserRepository) GetUserByID(id domain.UserID) (domain.User, error) {
	var stored storedUser
	if err := r.get(userKey(id), &stored, errors.ErrUserNotFound); err != nil {
		return domain.User{}, err
	}
	return toUser(stored), nil
}

func (r *RedisUserRepository) GetUserByToken(id domain.UserID, secret string) (domain.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return domain.User{}, err
	}
	if err := user.CheckToken(secret, time.Now().UTC()); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *RedisUserRepository) UpdateUser(id domain.UserID, update domain.UserUpdate) (domain.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return domain.User{}, err
	}
	user.ApplyUpdate(update)
	if err := r.set(userKey(id), fromUser(user)); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (r *RedisUserRepository) get(key []byte, dest any, missing error) error {
	return redisGet(r.client, key, dest, missing)
}

func (r *RedisUserRepository) set(key []byte, doc any) error {
	return redisSet(r.client, key, doc)
}

type RedisMeetingRepository struct {
	client *redis.Client
}

func NewRedisMeetingRepository(client *redis.Client) IMeetingRepository {
	return &RedisMeetingRepository{client: client}
}

func (r *RedisMeetingRepository) CreateMeeting() (domain.Meeting, error) {
	meeting := domain.Meeting{ID: domain.NewMeetingID()}
	if err := redisSet(r.client, meetingKey(meeting.ID), fromMeeting(meeting)); err != nil {
		return domain.Meeting{}, err
	}
	return meeting, nil
}

func (r *RedisMeetingRepository) GetMeeting(id domain.MeetingID) (domain.Meeting, error) {
	var stored storedMeeting
	if err := redisGet(r.client, meetingKey(id), &stored, errors.ErrMeetingNotFound); err != nil {
		return domain.Meeting{}, err
	}
	return toMeeting(stored), nil
}

// UpdateMeeting is a read-modify-write without locking: concurrent
// writers to the same member resolve last-write-wins, per the sync
// protocol's conflict policy.
func (r *RedisMeetingRepository) UpdateMeeting(id domain.MeetingID, userID domain.UserID,
	userName string, update domain.MeetingUpdate) (domain.Meeting, error) {
	meeting, err := r.GetMeeting(id)
	if err != nil {
		return domain.Meeting{}, err
	}
	meeting.Apply(userID, userName, update)
	if err := redisSet(r.client, meetingKey(id), fromMeeting(meeting)); err != nil {
		return domain.Meeting{}, err
	}
	return meeting, nil
}

func redisGet(client *redis.Client, key []byte, dest any, missing error) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := client.Get(ctx, string(key)).Result()
	if err == redis.Nil {
		return missing
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(data), dest)
}

func redisSet(client *redis.Client, key []byte, doc any) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := client.Set(ctx, string(key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}
