package persistence

import (
	"encoding/json"
	"errors"
	"fmt"

	"trading-dashboard-go/internal/models"

	"github.com/dgraph-io/badger/v3"
)

// stateKey 是唯一一条仪表盘状态记录的键
var stateKey = []byte("dashboard_state")

// badgerRepository is the BadgerDB implementation of the StateRepository.
type badgerRepository struct {
	db *badger.DB
}

// NewBadgerRepository opens (or creates) the BadgerDB database at dbPath.
func NewBadgerRepository(dbPath string) (StateRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	// Badger 自身的日志关闭, 错误仍通过返回值传递
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dbPath, err)
	}
	return &badgerRepository{db: db}, nil
}

// SaveState marshals the state to JSON and stores it under stateKey.
func (r *badgerRepository) SaveState(state *models.DashboardState) error {
	if state == nil {
		return errors.New("refusing to save nil dashboard state")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal dashboard state: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, data)
	})
}

// LoadState returns (nil, nil) when nothing has been saved yet.
func (r *badgerRepository) LoadState() (*models.DashboardState, error) {
	var state models.DashboardState

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 {
				return errors.New("state value is empty in database")
			}
			return json.Unmarshal(val, &state)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load dashboard state: %w", err)
	}
	return &state, nil
}

// Close gracefully closes the connection to the database.
func (r *badgerRepository) Close() error {
	return r.db.Close()
}
