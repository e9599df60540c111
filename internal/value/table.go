package value

// Table is the open-addressed, linear-probed hash table used for the
// globals namespace — spec.md section 4.2/6: load factor cap 0.75,
// capacity doubling, starting capacity 8. Strings are not interned: the
// compiler adds a fresh string constant for every identifier use.
// Grounded on original_source/src/hashtable.rs's HashTable, corrected to
// a standard tombstone-aware probe sequence (the Rust draft's resize
// does not rehash collisions correctly; spec.md only commits to the
// load-factor/doubling/starting-capacity numbers, not that bug).
type Table struct {
	entries []tableEntry
	count   int // live entries + tombstones, for load-factor accounting
}

type tableEntry struct {
	key     HashKey
	value   Value
	state   entryState
}

type entryState uint8

const (
	entryEmpty entryState = iota
	entryLive
	entryTombstone
)

const tableMaxLoad = 0.75

func NewTable() *Table {
	return &Table{}
}

func (t *Table) Len() int {
	return t.count
}

// Get looks up key, returning (value, true) if present.
func (t *Table) Get(key HashKey) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	idx, found := t.findSlot(key)
	if !found {
		return Value{}, false
	}
	return t.entries[idx].value, true
}

// Set inserts or overwrites key's value, growing the table first if the
// load factor would exceed 0.75. Returns true if this created a new
// entry (as opposed to overwriting an existing one).
func (t *Table) Set(key HashKey, v Value) bool {
	if len(t.entries) == 0 || float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}
	idx, found := t.findSlot(key)
	isNew := !found
	if isNew && t.entries[idx].state == entryEmpty {
		t.count++
	}
	t.entries[idx] = tableEntry{key: key, value: v, state: entryLive}
	return isNew
}

// Delete removes key, leaving a tombstone so later probes past it keep
// working.
func (t *Table) Delete(key HashKey) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx, found := t.findSlot(key)
	if !found {
		return false
	}
	t.entries[idx] = tableEntry{state: entryTombstone}
	return true
}

// findSlot returns the index key belongs at: either its existing live
// entry, or the first empty/tombstone slot the probe sequence reaches.
func (t *Table) findSlot(key HashKey) (int, bool) {
	cap := len(t.entries)
	idx := int(key.Hash % uint64(cap))
	tombstone := -1
	for {
		e := &t.entries[idx]
		switch e.state {
		case entryEmpty:
			if tombstone != -1 {
				return tombstone, false
			}
			return idx, false
		case entryTombstone:
			if tombstone == -1 {
				tombstone = idx
			}
		case entryLive:
			if e.key.Hash == key.Hash && e.key.Value == key.Value {
				return idx, true
			}
		}
		idx = (idx + 1) % cap
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	old := t.entries
	t.entries = make([]tableEntry, newCap)
	t.count = 0
	for _, e := range old {
		if e.state != entryLive {
			continue
		}
		idx, _ := t.findSlot(e.key)
		t.entries[idx] = e
		t.count++
	}
}
