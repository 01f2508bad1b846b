package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/hailam/shallowblue/internal/nnet"
	"github.com/pkg/errors"
)

const keyExampleSeq = "seq/examples"

// Record is a stored training example.
type Record struct {
	Tag     string       `json:"tag"`
	Example nnet.Example `json:"example"`
	Output  []float64    `json:"output,omitempty"` // network prediction when recorded
	Time    time.Time    `json:"time"`
}

func examplePrefix(tag string) []byte {
	return []byte("examples/" + tag + "/")
}

func (s *Storage) nextExampleID() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == nil {
		seq, err := s.db.GetSequence([]byte(keyExampleSeq), 64)
		if err != nil {
			return 0, err
		}
		s.seq = seq
	}
	return s.seq.Next()
}

// Record appends a training example for tag.
func (s *Storage) Record(tag string, ex nnet.Example, output []float64) error {
	id, err := s.nextExampleID()
	if err != nil {
		return errors.Wrap(err, "allocating example id")
	}
	data, err := json.Marshal(Record{Tag: tag, Example: ex, Output: output, Time: time.Now()})
	if err != nil {
		return err
	}
	key := append(examplePrefix(tag), []byte(fmt.Sprintf("%016x", id))...)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Examples returns every example recorded for tag, oldest first.
func (s *Storage) Examples(tag string) ([]Record, error) {
	var records []Record
	prefix := examplePrefix(tag)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var r Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return errors.Wrapf(err, "decoding %s", it.Item().Key())
			}
			records = append(records, r)
		}
		return nil
	})
	return records, err
}

// CountExamples returns how many examples are stored for tag.
func (s *Storage) CountExamples(tag string) (int, error) {
	n := 0
	prefix := examplePrefix(tag)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// ClearExamples deletes every example stored for tag.
func (s *Storage) ClearExamples(tag string) error {
	return s.db.DropPrefix(examplePrefix(tag))
}
