package service

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/spk-docs/doctracker/internal/config"
	"github.com/spk-docs/doctracker/internal/database"
	"github.com/spk-docs/doctracker/internal/document/repository"
	"github.com/spk-docs/doctracker/internal/rpc"
)

// Open builds the Gateway described by cfg. The returned cleanup releases any
// connection Open made and is safe to call once.
func Open(ctx context.Context, cfg *config.Config) (*Gateway, func(), error) {
	mode, err := ParseMode(cfg.Backend.Mode)
	if err != nil {
		return nil, nil, err
	}
	if mode == ModeRemote {
		backend, cleanup, err := openRemote(cfg.Remote)
		if err != nil {
			return nil, nil, err
		}
		gatewayLog.Infof("using remote backend over %s", cfg.Remote.Transport)
		return NewGateway(mode, backend), cleanup, nil
	}

	slot, cleanup, err := OpenSlot(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	gatewayLog.Infof("using local store in %s slot %q", cfg.Local.Slot, cfg.Local.Key)
	return NewGateway(mode, repository.NewLocalStore(slot, cfg.Documents.Prefix)), cleanup, nil
}

func openRemote(cfg config.RemoteConfig) (repository.Backend, func(), error) {
	switch cfg.Transport {
	case "", "http":
		t, err := rpc.NewHTTPTransport(cfg.Endpoint, rpc.HTTPOptions{Token: cfg.Token, Timeout: cfg.Timeout})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRemoteBackend(t), func() {}, nil
	case "nats":
		nc, err := nats.Connect(cfg.NATSURL, nats.Name("doctracker"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect: %w", err)
		}
		t := rpc.NewNATSTransport(nc, cfg.Subject)
		return repository.NewRemoteBackend(t), nc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown remote transport %q", cfg.Transport)
	}
}

// OpenSlot opens the local slot named by cfg.Local.Slot.
func OpenSlot(ctx context.Context, cfg *config.Config) (repository.Slot, func(), error) {
	key := cfg.Local.Key
	if key == "" {
		key = repository.DefaultSlotKey
	}
	switch cfg.Local.Slot {
	case "memory":
		return repository.NewMemorySlot(), func() {}, nil
	case "", "file":
		s, err := repository.NewFileSlot(cfg.Local.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "sqlite":
		s, err := repository.OpenSQLiteSlot(cfg.Local.SQLitePath, key)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return repository.NewRedisSlot(client, key), func() { _ = client.Close() }, nil
	case "mongo":
		col, cleanup, err := database.OpenCollection(ctx, database.MongoOptions{
			URI:        cfg.MongoDB.URI,
			Database:   cfg.MongoDB.Database,
			Collection: cfg.MongoDB.Collection,
			Timeout:    cfg.MongoDB.Timeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewMongoSlot(col, key), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown local slot %q", cfg.Local.Slot)
	}
}
