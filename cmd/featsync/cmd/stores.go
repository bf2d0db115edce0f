package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/store"
	mysqlstore "github.com/dbsmedya/featsync/internal/store/mysql"
	reststore "github.com/dbsmedya/featsync/internal/store/rest"
)

// openedStore bundles a connected store client with its cleanup function.
// DB is non-nil only for MySQL-backed stores and is used for advisory
// job locking.
type openedStore struct {
	Store store.Store
	DB    *sql.DB
	Close func() error
}

// openStore builds and connects the store client selected by configuration.
func openStore(ctx context.Context, name string, sc *config.StoreConfig, proc config.ProcessingConfig, log *logger.Logger) (*openedStore, error) {
	switch sc.Type {
	case config.StoreTypeMySQL:
		client, err := mysqlstore.New(name, &sc.MySQL, proc, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s store client: %w", name, err)
		}
		if err := client.Connect(ctx); err != nil {
			return nil, err
		}
		return &openedStore{Store: client, DB: client.DB(), Close: client.Close}, nil
	case config.StoreTypeREST:
		client, err := reststore.New(name, &sc.REST, proc, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s store client: %w", name, err)
		}
		return &openedStore{Store: client, Close: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown store type %q for %s store", sc.Type, name)
	}
}

// openStores connects the source and target stores, closing the source
// again if the target fails to open.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (src, tgt *openedStore, err error) {
	src, err = openStore(ctx, "source", &cfg.Source, cfg.Processing, log)
	if err != nil {
		return nil, nil, err
	}

	tgt, err = openStore(ctx, "target", &cfg.Target, cfg.Processing, log)
	if err != nil {
		src.Close()
		return nil, nil, err
	}

	return src, tgt, nil
}
