package engine

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is one stored search result. Depth 0 marks an empty slot.
type TTEntry struct {
	Key      uint64
	BestEdge int16 // -1 if none
	Score    int16 // future box difference for the side to move, bounded by Flag
	Depth    int8
	Flag     TTFlag
	Age      uint8
}

// ttBucket holds a depth-preferred slot and an always-replace slot.
type ttBucket [2]TTEntry

const bucketBytes = 32

// TranspositionTable caches search results by position key. It is not safe
// for concurrent use; the engine runs one search at a time.
type TranspositionTable struct {
	buckets []ttBucket
	mask    uint64
	age     uint8

	hits, probes uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	n := roundDownToPowerOf2(uint64(max(sizeMB, 1)) << 20 / bucketBytes)
	return &TranspositionTable{
		buckets: make([]ttBucket, n),
		mask:    n - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up key in both slots of its bucket.
func (tt *TranspositionTable) Probe(key uint64) (TTEntry, bool) {
	tt.probes++
	b := &tt.buckets[key&tt.mask]
	for _, e := range b {
		if e.Key == key && e.Depth > 0 {
			tt.hits++
			return e, true
		}
	}
	return TTEntry{}, false
}

// Store saves a result. The depth-preferred slot keeps the deepest result
// of the current search; whatever it displaces, or declines, goes to the
// always-replace slot.
func (tt *TranspositionTable) Store(key uint64, depth, score int, flag TTFlag, bestEdge int) {
	if depth <= 0 {
		return
	}
	e := TTEntry{
		Key:      key,
		BestEdge: int16(bestEdge),
		Score:    int16(score),
		Depth:    int8(min(depth, 127)),
		Flag:     flag,
		Age:      tt.age,
	}

	b := &tt.buckets[key&tt.mask]
	deep := &b[0]
	switch {
	case deep.Key == key && deep.Age == tt.age && e.Depth < deep.Depth:
		// Keep the deeper result for this position
	case deep.Depth == 0 || deep.Age != tt.age || e.Depth >= deep.Depth:
		if deep.Key != key && deep.Depth > 0 {
			b[1] = *deep
		}
		*deep = e
	default:
		b[1] = e
	}
}

// NewSearch ages the table so results from earlier searches are replaced
// first.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Clear empties the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.buckets)
	tt.age = 0
	tt.hits, tt.probes = 0, 0
}

// HashFull returns the permille of sampled slots filled by the current search.
func (tt *TranspositionTable) HashFull() int {
	sample := min(len(tt.buckets), 500)
	used := 0
	for _, b := range tt.buckets[:sample] {
		for _, e := range b {
			if e.Depth > 0 && e.Age == tt.age {
				used++
			}
		}
	}
	return used * 1000 / (2 * sample)
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of slots in the table.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.buckets)) * 2
}
