package session

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pitchlab/eartrainer/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("expected 1 session, got %d", manager.Count())
	}

	got, exists := manager.Get("s1")
	if !exists || got != sess {
		t.Fatal("Get should return the added session")
	}

	manager.Remove("s1")
	if _, exists := manager.Get("s1"); exists {
		t.Fatal("Get should not find a removed session")
	}
}

func TestSession_ConcurrentActivityUpdates(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})

	// Pushes and the heartbeat handler update activity from different
	// goroutines; this is only meaningful under the race detector.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			sess.Send(1, nil)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			sess.Touch()
		}
	}()
	wg.Wait()

	if sess.LastActive.Before(sess.CreatedAt) {
		t.Error("LastActive should not precede CreatedAt")
	}
}

func TestManager_GetByUserID(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("s1", &MockConnection{})
	sess1.UserID = 100
	sess2 := NewSession("s2", &MockConnection{})
	sess2.UserID = 200
	sess3 := NewSession("s3", &MockConnection{})
	sess3.UserID = 100

	manager.Add(sess1)
	manager.Add(sess2)
	manager.Add(sess3)

	if got := manager.GetByUserID(100); len(got) != 2 {
		t.Errorf("expected 2 sessions for user 100, got %d", len(got))
	}
	if got := manager.GetByUserID(300); len(got) != 0 {
		t.Errorf("expected 0 sessions for user 300, got %d", len(got))
	}
}

func TestSession_Data(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})

	sess.Set("ongoingMatch", `{"version":1}`)
	v, ok := sess.Get("ongoingMatch")
	if !ok || v != `{"version":1}` {
		t.Errorf("Get returned %q, %v", v, ok)
	}

	sess.Delete("ongoingMatch")
	if _, ok := sess.Get("ongoingMatch"); ok {
		t.Error("Delete should remove the key")
	}
}
