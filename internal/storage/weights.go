package storage

import (
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/hailam/shallowblue/internal/weights"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// WeightStore mirrors weight matrices into the database, using the same text
// encoding as the weight files.
type WeightStore struct {
	db *badger.DB
}

// WeightStore returns a weights.Store backed by this database.
func (s *Storage) WeightStore() *WeightStore {
	return &WeightStore{db: s.db}
}

func weightKey(tag string, i int) []byte {
	return []byte(fmt.Sprintf("weights/%s/%d", tag, i))
}

// Save writes every layer in one transaction.
func (ws *WeightStore) Save(tag string, ms []*mat.Dense) error {
	return ws.db.Update(func(txn *badger.Txn) error {
		for i, m := range ms {
			if err := txn.Set(weightKey(tag, i), weights.EncodeMatrix(m)); err != nil {
				return errors.Wrapf(err, "storing layer %d", i)
			}
		}
		return nil
	})
}

// Load reads numLayers matrices for tag.
func (ws *WeightStore) Load(tag string, numLayers int) ([]*mat.Dense, error) {
	ms := make([]*mat.Dense, numLayers)
	err := ws.db.View(func(txn *badger.Txn) error {
		for i := range ms {
			item, err := txn.Get(weightKey(tag, i))
			if i == 0 && err == badger.ErrKeyNotFound {
				return errors.Wrapf(weights.ErrNotStored, "tag %s", tag)
			}
			if err == badger.ErrKeyNotFound {
				return errors.Wrapf(weights.ErrStorageUnavailable, "no layer %d for tag %s", i, tag)
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				m, err := weights.DecodeMatrix(val)
				ms[i] = m
				return err
			}); err != nil {
				return errors.Wrapf(err, "layer %d for tag %s", i, tag)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ms, nil
}

func sizeKey(size int) string {
	return strconv.Itoa(size) + "x" + strconv.Itoa(size)
}
