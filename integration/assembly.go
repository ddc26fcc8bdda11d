package integration

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Fantom-foundation/lachesis-base/kvdb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/leveldb"
	"github.com/Fantom-foundation/lachesis-base/kvdb/memorydb"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/opera-holder-rewards/holders"
	"github.com/rony4d/opera-holder-rewards/holders/hstore"
	"github.com/rony4d/opera-holder-rewards/opera"
)

const (
	// DBName is the directory of the holder rewards database under the datadir.
	DBName = "holders"
	// LedgerDBName is the directory of the simulated EVM state under the datadir.
	LedgerDBName = "ledger"
)

// OpenDB opens the database selected by the preset. dir is ignored for the
// memory preset.
func OpenDB(preset PresetConfig, dir string) (kvdb.Store, error) {
	switch preset.DBPreset {
	case DBPresetMemory:
		return memorydb.New(), nil
	case DBPresetLevelDB:
		path := filepath.Join(dir, DBName)
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", path, err)
		}
		db, err := leveldb.New(path, preset.CacheMB, preset.Handles, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("open leveldb %s: %w", path, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db preset: %q (valid: %s, %s)", preset.DBPreset, DBPresetMemory, DBPresetLevelDB)
	}
}

// OpenStore opens the holder rewards store on the preset's database.
func OpenStore(preset PresetConfig, dir string) (*hstore.Store, error) {
	db, err := OpenDB(preset, dir)
	if err != nil {
		return nil, err
	}
	return hstore.New(db), nil
}

// OpenLedgerDB opens the EVM state database selected by the preset. dir is
// ignored for the memory preset.
func OpenLedgerDB(preset PresetConfig, dir string) (ethdb.Database, error) {
	switch preset.DBPreset {
	case DBPresetMemory:
		return rawdb.NewMemoryDatabase(), nil
	case DBPresetLevelDB:
		path := filepath.Join(dir, LedgerDBName)
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", path, err)
		}
		db, err := rawdb.NewLevelDBDatabase(path, preset.CacheMB, preset.Handles, "holders/ledger/", false)
		if err != nil {
			return nil, fmt.Errorf("open leveldb %s: %w", path, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown db preset: %q (valid: %s, %s)", preset.DBPreset, DBPresetMemory, DBPresetLevelDB)
	}
}

// Storage holds the databases a simulation persists to. Both must come
// from the same run for the simulation to resume.
type Storage struct {
	Rewards *hstore.Store
	Ledger  ethdb.Database
}

// NewMemStorage returns in-memory storage.
func NewMemStorage() *Storage {
	return &Storage{
		Rewards: hstore.NewMemStore(),
		Ledger:  rawdb.NewMemoryDatabase(),
	}
}

// OpenStorage opens the rewards store and the ledger database of the preset.
func OpenStorage(preset PresetConfig, dir string) (*Storage, error) {
	store, err := OpenStore(preset, dir)
	if err != nil {
		return nil, err
	}
	ledger, err := OpenLedgerDB(preset, dir)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Storage{Rewards: store, Ledger: ledger}, nil
}

// Close closes both databases.
func (s *Storage) Close() error {
	err := s.Ledger.Close()
	if rerr := s.Rewards.Close(); rerr != nil {
		return rerr
	}
	return err
}

// MakeEngine builds an engine for the network rules with the preset's
// retention applied.
func MakeEngine(rules opera.Rules, preset PresetConfig, backend holders.Backend, log logrus.FieldLogger) (*holders.Engine, error) {
	rewards := rules.Rewards.Copy()
	if err := preset.ApplyTo(&rewards); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithFields(logrus.Fields{
		"network":   rules.Name,
		"retention": rewards.Retention.String(),
	})
	return holders.New(rewards, backend, log)
}
