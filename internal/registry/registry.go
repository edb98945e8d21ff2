// Package registry announces service instances in a Redis-backed
// directory and resolves peers from it.
//
// Each instance lives under /services/<name>/<id> with a TTL lease that
// KeepAlive refreshes at half the lease. An instance that stops
// refreshing drops out of the directory once the lease runs out.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyPrefix is the directory root shared by all services.
const KeyPrefix = "/services/"

// DefaultTTL is the lease length used when none is configured.
const DefaultTTL = 30 * time.Second

// ErrServiceNotFound is returned when no live instance of a service exists.
var ErrServiceNotFound = errors.New("service not found")

// Instance describes one running copy of a service.
type Instance struct {
	Name         string    `json:"name"`
	ID           string    `json:"id"`
	Address      string    `json:"address"`
	Port         int       `json:"port"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Key returns the directory key of the instance.
func (i Instance) Key() string {
	return instanceKey(i.Name, i.ID)
}

// URL returns the base HTTP URL of the instance.
func (i Instance) URL() string {
	return fmt.Sprintf("http://%s:%d", i.Address, i.Port)
}

// Registry reads and writes the service directory.
type Registry struct {
	client   *redis.Client
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Registry with the given lease TTL.
func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		client:   client,
		ttl:      ttl,
		interval: ttl / 2,
		logger:   logger,
		now:      time.Now,
	}
}

// Register writes the instance record with a fresh lease.
func (r *Registry) Register(ctx context.Context, inst *Instance) error {
	if inst.RegisteredAt.IsZero() {
		inst.RegisteredAt = r.now().UTC()
	}
	payload, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("failed to encode instance: %w", err)
	}
	if err := r.client.Set(ctx, inst.Key(), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to register %s: %w", inst.Key(), err)
	}
	r.logger.Info("registered service instance",
		zap.String("service", inst.Name),
		zap.String("id", inst.ID),
		zap.String("address", inst.URL()))
	return nil
}

// KeepAlive refreshes the lease until ctx is cancelled. A record that has
// vanished, for example after a Redis restart, is written again.
func (r *Registry) KeepAlive(ctx context.Context, inst *Instance) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshed, err := r.client.Expire(ctx, inst.Key(), r.ttl).Result()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("failed to refresh registry lease", zap.String("key", inst.Key()), zap.Error(err))
				continue
			}
			if !refreshed {
				r.logger.Warn("registry lease lost, re-registering", zap.String("key", inst.Key()))
				if err := r.Register(ctx, inst); err != nil && ctx.Err() == nil {
					r.logger.Error("failed to re-register", zap.Error(err))
				}
			}
		}
	}
}

// Lease is a registered instance kept alive in the background.
type Lease struct {
	registry *Registry
	instance *Instance
	cancel   context.CancelFunc
	done     chan struct{}
}

// Acquire registers inst and starts refreshing its lease until Release is
// called or ctx is cancelled.
func (r *Registry) Acquire(ctx context.Context, inst *Instance) (*Lease, error) {
	if err := r.Register(ctx, inst); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Lease{registry: r, instance: inst, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(l.done)
		r.KeepAlive(ctx, inst)
	}()
	return l, nil
}

// Release stops the refresh loop, waits for it to exit and removes the
// record. The record cannot reappear afterwards.
func (l *Lease) Release(ctx context.Context) error {
	l.cancel()
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return l.registry.Deregister(ctx, l.instance.Name, l.instance.ID)
}

// Deregister removes the instance record.
func (r *Registry) Deregister(ctx context.Context, name, id string) error {
	if err := r.client.Del(ctx, instanceKey(name, id)).Err(); err != nil {
		return fmt.Errorf("failed to deregister %s: %w", instanceKey(name, id), err)
	}
	r.logger.Info("deregistered service instance", zap.String("service", name), zap.String("id", id))
	return nil
}

// Discover returns the first live instance of the named service.
func (r *Registry) Discover(ctx context.Context, name string) (*Instance, error) {
	iter := r.client.Scan(ctx, 0, KeyPrefix+name+"/*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := r.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", iter.Val(), err)
		}

		var inst Instance
		if err := json.Unmarshal(raw, &inst); err != nil {
			r.logger.Warn("skipping malformed registry entry", zap.String("key", iter.Val()), zap.Error(err))
			continue
		}
		return &inst, nil
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan registry: %w", err)
	}
	return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
}

// ServiceURL resolves the base URL of the named service.
func (r *Registry) ServiceURL(ctx context.Context, name string) (string, error) {
	inst, err := r.Discover(ctx, name)
	if err != nil {
		return "", err
	}
	return inst.URL(), nil
}

func instanceKey(name, id string) string {
	return KeyPrefix + name + "/" + id
}
