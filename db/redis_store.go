package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-redis/redis/v8"

	"school-registry-go/models"
)

const (
	schoolsKey   = "schools" // Set: all persisted school IDs
	schoolPrefix = "school:" // Hash: school:{id} -> name and id counters; lists school:{id}:{kind}
)

// ErrSchoolNotFound is returned by Load when no snapshot exists for the id
var ErrSchoolNotFound = errors.New("school not found")

// RedisStore persists school snapshots in Redis
type RedisStore struct {
	Client *redis.Client
	log    *slog.Logger
}

// NewRedisStore creates a new RedisStore
func NewRedisStore(client *redis.Client, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStore{Client: client, log: logger.With("component", "redis_store")}
}

func schoolKey(id models.SchoolID) string {
	return schoolPrefix + strconv.FormatInt(int64(id), 10)
}

// Helper to generate the list key holding one entity kind, e.g. school:1:teachers
func entityListKey(id models.SchoolID, kind string) string {
	return schoolKey(id) + ":" + kind
}

const (
	kindTeachers  = "teachers"
	kindClasses   = "classes"
	kindSchedules = "schedules"
	kindSubjects  = "subjects"
)

func encodeAll[T any](items []T) ([]interface{}, error) {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		out = append(out, string(data))
	}
	return out, nil
}

// Save replaces the stored snapshot of snap.ID in one MULTI/EXEC transaction
func (s *RedisStore) Save(ctx context.Context, snap models.Snapshot) error {
	lists := map[string][]interface{}{}
	var err error
	if lists[kindTeachers], err = encodeAll(snap.Teachers); err != nil {
		return fmt.Errorf("encode teachers: %w", err)
	}
	if lists[kindClasses], err = encodeAll(snap.Classes); err != nil {
		return fmt.Errorf("encode classes: %w", err)
	}
	if lists[kindSchedules], err = encodeAll(snap.Schedules); err != nil {
		return fmt.Errorf("encode schedules: %w", err)
	}
	if lists[kindSubjects], err = encodeAll(snap.Subjects); err != nil {
		return fmt.Errorf("encode subjects: %w", err)
	}

	key := schoolKey(snap.ID)
	pipe := s.Client.TxPipeline()

	pipe.SAdd(ctx, schoolsKey, int64(snap.ID))
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":               int64(snap.ID),
		"name":             snap.Name,
		"next_teacher_id":  uint64(snap.NextTeacherID),
		"next_class_id":    uint64(snap.NextClassID),
		"next_schedule_id": uint64(snap.NextScheduleID),
		"next_subject_id":  uint64(snap.NextSubjectID),
	})
	for kind, values := range lists {
		listKey := entityListKey(snap.ID, kind)
		pipe.Del(ctx, listKey)
		if len(values) > 0 {
			pipe.RPush(ctx, listKey, values...)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error("save school", "school_id", snap.ID, "error", err)
		return fmt.Errorf("failed to save school to Redis: %w", err)
	}
	s.log.Debug("saved school", "school_id", snap.ID,
		"teachers", len(snap.Teachers), "classes", len(snap.Classes),
		"schedules", len(snap.Schedules), "subjects", len(snap.Subjects))
	return nil
}

// Exists checks if a snapshot has been saved for the school id
func (s *RedisStore) Exists(ctx context.Context, id models.SchoolID) (bool, error) {
	exists, err := s.Client.SIsMember(ctx, schoolsKey, int64(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check school existence: %w", err)
	}
	return exists, nil
}

func parseCounter(data map[string]string, field string) (uint32, error) {
	raw, ok := data[field]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	return uint32(n), nil
}

func decodeList[T any](ctx context.Context, client *redis.Client, key string) ([]T, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal([]byte(item), &v); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", key, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Load reads the snapshot saved for id
func (s *RedisStore) Load(ctx context.Context, id models.SchoolID) (models.Snapshot, error) {
	data, err := s.Client.HGetAll(ctx, schoolKey(id)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return models.Snapshot{}, fmt.Errorf("failed to get school from Redis: %w", err)
	}
	if len(data) == 0 {
		return models.Snapshot{}, fmt.Errorf("load school %d: %w", id, ErrSchoolNotFound)
	}

	snap := models.Snapshot{ID: id, Name: data["name"]}

	counters := []struct {
		field string
		dst   *uint32
	}{
		{"next_teacher_id", (*uint32)(&snap.NextTeacherID)},
		{"next_class_id", (*uint32)(&snap.NextClassID)},
		{"next_schedule_id", (*uint32)(&snap.NextScheduleID)},
		{"next_subject_id", (*uint32)(&snap.NextSubjectID)},
	}
	for _, c := range counters {
		if *c.dst, err = parseCounter(data, c.field); err != nil {
			return models.Snapshot{}, err
		}
	}

	if snap.Teachers, err = decodeList[models.Teacher](ctx, s.Client, entityListKey(id, kindTeachers)); err != nil {
		return models.Snapshot{}, fmt.Errorf("load teachers: %w", err)
	}
	if snap.Classes, err = decodeList[*models.Class](ctx, s.Client, entityListKey(id, kindClasses)); err != nil {
		return models.Snapshot{}, fmt.Errorf("load classes: %w", err)
	}
	if snap.Schedules, err = decodeList[models.Schedule](ctx, s.Client, entityListKey(id, kindSchedules)); err != nil {
		return models.Snapshot{}, fmt.Errorf("load schedules: %w", err)
	}
	if snap.Subjects, err = decodeList[models.Subject](ctx, s.Client, entityListKey(id, kindSubjects)); err != nil {
		return models.Snapshot{}, fmt.Errorf("load subjects: %w", err)
	}
	return snap, nil
}

// Delete removes everything stored for the school id
func (s *RedisStore) Delete(ctx context.Context, id models.SchoolID) error {
	pipe := s.Client.TxPipeline()
	pipe.SRem(ctx, schoolsKey, int64(id))
	pipe.Del(ctx, schoolKey(id),
		entityListKey(id, kindTeachers), entityListKey(id, kindClasses),
		entityListKey(id, kindSchedules), entityListKey(id, kindSubjects))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete school from Redis: %w", err)
	}
	return nil
}

// RedisOptions configures the Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
