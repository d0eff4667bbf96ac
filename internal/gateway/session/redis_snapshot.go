package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisSnapshotter mirrors committed session state into redis so operators
// can inspect live sessions and a restarted instance has recovery data. The
// in-process arena stays authoritative. When a sealer is configured the
// snapshot is encrypted before it leaves the process, with the redis key
// bound in as AAD.
type RedisSnapshotter struct {
	client *redis.Client
	ttl    time.Duration
	sealer *Sealer
}

func NewRedisSnapshotter(client *redis.Client, ttl time.Duration, sealer *Sealer) *RedisSnapshotter {
	return &RedisSnapshotter{client: client, ttl: ttl, sealer: sealer}
}

type sessionSnapshot struct {
	ID              string            `json:"id"`
	ClientName      string            `json:"clientName"`
	ServiceName     string            `json:"serviceName"`
	ServiceUUID     string            `json:"serviceUuid"`
	ContainerName   string            `json:"containerName"`
	Container       []byte            `json:"container"`
	SignatureIDs    map[string]int    `json:"signatureIds,omitempty"`
	DataFileDigests map[string]string `json:"dataFileDigests,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	LastAccessedAt  time.Time         `json:"lastAccessedAt"`
}

func (r *RedisSnapshotter) SaveSnapshot(ctx context.Context, sess *Session) error {
	snap := sessionSnapshot{
		ID:              sess.ID,
		ClientName:      sess.Tenant.ClientName,
		ServiceName:     sess.Tenant.ServiceName,
		ServiceUUID:     sess.Tenant.ServiceUUID,
		ContainerName:   sess.ContainerName,
		Container:       sess.Container,
		SignatureIDs:    sess.SignatureIDs,
		DataFileDigests: sess.DataFileDigests,
		CreatedAt:       sess.CreatedAt,
		LastAccessedAt:  sess.LastAccessedAt,
	}
	data, err := json.Marshal(&snap)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session snapshot")
	}

	key := snapshotKey(sess.ID)
	if r.sealer != nil {
		data, err = r.sealer.Seal(data, []byte(key))
		if err != nil {
			return errors.Wrap(err, "failed to seal session snapshot")
		}
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to save session snapshot")
	}
	return nil
}

func (r *RedisSnapshotter) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, snapshotKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session snapshot")
	}
	return nil
}

func snapshotKey(sessionID string) string {
	return "siga:session:" + sessionID
}
