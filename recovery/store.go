// recovery/store.go
package recovery

import (
	"time"
)

// SlotName is the key clients store the payload under (a cookie in the
// browser shell).
const SlotName = "ongoingMatch"

// Medium is a single client-held key-value slot. The concrete medium (cookie,
// session data, memory) is outside the store's concern beyond settable,
// readable and clearable.
type Medium interface {
	Get() (payload string, ok bool)
	Set(payload string)
	Clear()
}

// Store serializes in-progress match snapshots into a single-slot medium with
// an expiry. It is the sole mechanism for surviving an interruption mid-match
// and is never a source of truth for completed matches.
type Store struct {
	medium Medium
	now    func() time.Time
}

func NewStore(medium Medium) *Store {
	return &Store{medium: medium, now: time.Now}
}

// NewStoreWithClock injects the clock. Tests use this to control staleness.
func NewStoreWithClock(medium Medium, now func() time.Time) *Store {
	return &Store{medium: medium, now: now}
}

// Save overwrites the slot with the snapshot, stamping the capture time.
func (s *Store) Save(snap Snapshot) error {
	snap.Version = SnapshotVersion
	snap.CapturedAt = s.now().UnixMilli()

	payload, err := Encode(&snap)
	if err != nil {
		return err
	}
	s.medium.Set(payload)
	return nil
}

// Load returns the stored snapshot, or nil if the slot is empty, malformed,
// or older than MaxAge. A stale slot is cleared as a side effect; a malformed
// one is cleared opportunistically as well.
func (s *Store) Load() *Snapshot {
	payload, ok := s.medium.Get()
	if !ok || payload == "" {
		return nil
	}

	snap, err := Decode(payload)
	if err != nil {
		s.medium.Clear()
		return nil
	}
	if snap.Age(s.now()) > MaxAge {
		s.medium.Clear()
		return nil
	}
	return snap
}

// Clear removes the snapshot unconditionally.
func (s *Store) Clear() {
	s.medium.Clear()
}

// MemoryMedium is an in-process slot, used in tests and by the session-bound
// server medium as a backing cell.
type MemoryMedium struct {
	payload string
	set     bool
}

func (m *MemoryMedium) Get() (string, bool) { return m.payload, m.set }
func (m *MemoryMedium) Set(payload string)  { m.payload, m.set = payload, true }
func (m *MemoryMedium) Clear()              { m.payload, m.set = "", false }
