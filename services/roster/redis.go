package rostersvc

import (
	"context"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/roster"
)

const (
	classesKey          = "classes"  // Set: all class IDs
	classStudentsPrefix = "class:"   // List prefix: class:{id}:students -> student IDs of a class
	studentInfoPrefix   = "student:" // Hash prefix: student:{id} -> student details
)

func classStudentsKey(classID string) string {
	return classStudentsPrefix + classID + ":students"
}

func studentInfoKey(studentID string) string {
	return studentInfoPrefix + studentID
}

func NewRedisClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

// RedisProvider serves class rosters stored in Redis.
type RedisProvider struct {
	client *redis.Client
}

var _ roster.Provider = (*RedisProvider)(nil) // interface compliance check

func NewRedisProvider(client *redis.Client) *RedisProvider {
	return &RedisProvider{client: client}
}

func (p *RedisProvider) ClassRoster(ctx context.Context, classID string) ([]roster.Student, error) {
	exists, err := p.client.SIsMember(ctx, classesKey, classID).Result()
	if err != nil {
		return nil, errors.Wrap(err, "checking class existence")
	}
	if !exists {
		return nil, roster.ErrClassNotFound
	}

	ids, err := p.client.LRange(ctx, classStudentsKey(classID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing class students")
	}
	if len(ids) == 0 {
		return []roster.Student{}, nil
	}

	pipe := p.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, studentInfoKey(id)))
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return nil, errors.Wrap(err, "getting students")
	}

	students := make([]roster.Student, 0, len(cmds))
	for _, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			continue // dangling ID
		}
		students = append(students, roster.Student{
			ID:         data["id"],
			ClassID:    data["classId"],
			RollNumber: data["rollNumber"],
			Name:       data["name"],
		})
	}
	sort.SliceStable(students, func(i, j int) bool { return roster.Less(students[i].RollNumber, students[j].RollNumber) })
	return students, nil
}

// SetClassRoster replaces the roster of a class in a single transaction.
func (p *RedisProvider) SetClassRoster(ctx context.Context, classID string, students []roster.Student) error {
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := classStudentsKey(classID)
		pipe.SAdd(ctx, classesKey, classID)
		pipe.Del(ctx, key)
		for _, s := range students {
			pipe.RPush(ctx, key, s.ID)
			pipe.HSet(ctx, studentInfoKey(s.ID), map[string]interface{}{
				"id":         s.ID,
				"classId":    classID,
				"rollNumber": s.RollNumber,
				"name":       s.Name,
			})
		}
		return nil
	})
	return errors.Wrap(err, "storing class roster")
}
