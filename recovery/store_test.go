package recovery

import (
	"testing"
	"time"
)

func testSnapshot() Snapshot {
	return Snapshot{
		UserID:         7,
		ChallengeID:    1,
		LevelID:        3,
		ChallengeName:  "Diferenciação de Notas Musicais",
		CurrentRound:   4,
		TotalRounds:    10,
		TotalCorrect:   2,
		TotalIncorrect: 1,
	}
}

func TestStore_RoundTrip(t *testing.T) {
	medium := &MemoryMedium{}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(medium, func() time.Time { return now })

	if err := store.Save(testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := store.Load()
	if loaded == nil {
		t.Fatal("Load returned nil inside the validity window")
	}

	want := testSnapshot()
	if loaded.UserID != want.UserID ||
		loaded.ChallengeID != want.ChallengeID ||
		loaded.LevelID != want.LevelID ||
		loaded.ChallengeName != want.ChallengeName ||
		loaded.CurrentRound != want.CurrentRound ||
		loaded.TotalRounds != want.TotalRounds ||
		loaded.TotalCorrect != want.TotalCorrect ||
		loaded.TotalIncorrect != want.TotalIncorrect {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if loaded.Version != SnapshotVersion {
		t.Errorf("Version = %d, want %d", loaded.Version, SnapshotVersion)
	}
	if loaded.CapturedAt != now.UnixMilli() {
		t.Errorf("CapturedAt = %d, want %d", loaded.CapturedAt, now.UnixMilli())
	}
}

func TestStore_StaleSnapshotDeleted(t *testing.T) {
	medium := &MemoryMedium{}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(medium, func() time.Time { return now })

	if err := store.Save(testSnapshot()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 25 hours later the snapshot is past its validity window.
	now = now.Add(25 * time.Hour)
	if store.Load() != nil {
		t.Fatal("Load must return nil for a stale snapshot")
	}
	if _, ok := medium.Get(); ok {
		t.Error("stale snapshot must be deleted as a side effect of Load")
	}
}

func TestStore_JustInsideWindow(t *testing.T) {
	medium := &MemoryMedium{}
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := NewStoreWithClock(medium, func() time.Time { return now })

	store.Save(testSnapshot())

	now = now.Add(23 * time.Hour)
	if store.Load() == nil {
		t.Error("snapshot inside the validity window must load")
	}
}

func TestStore_MalformedPayload(t *testing.T) {
	medium := &MemoryMedium{}
	medium.Set("{not json")
	store := NewStore(medium)

	if store.Load() != nil {
		t.Fatal("malformed payload must be treated as absence")
	}
	if _, ok := medium.Get(); ok {
		t.Error("malformed payload should be cleared opportunistically")
	}
}

func TestStore_UnknownVersion(t *testing.T) {
	medium := &MemoryMedium{}
	medium.Set(`{"version":99,"userId":1,"timestamp":1}`)
	store := NewStore(medium)

	if store.Load() != nil {
		t.Error("unknown snapshot version must be treated as absence")
	}
}

func TestStore_EmptySlot(t *testing.T) {
	store := NewStore(&MemoryMedium{})
	if store.Load() != nil {
		t.Error("empty slot must load as nil")
	}
}

func TestStore_Clear(t *testing.T) {
	medium := &MemoryMedium{}
	store := NewStore(medium)

	store.Save(testSnapshot())
	store.Clear()

	if store.Load() != nil {
		t.Error("Clear must remove the snapshot")
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	medium := &MemoryMedium{}
	store := NewStore(medium)

	first := testSnapshot()
	store.Save(first)

	second := testSnapshot()
	second.CurrentRound = 9
	second.TotalCorrect = 5
	store.Save(second)

	loaded := store.Load()
	if loaded == nil || loaded.CurrentRound != 9 || loaded.TotalCorrect != 5 {
		t.Errorf("single-slot store must overwrite: %+v", loaded)
	}
}
