package storage

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestSelectorStartsLocal(t *testing.T) {
	s := NewSelector(func() (Backend, error) {
		t.Fatal("hosted backend built without a switch to hosted")
		return nil, nil
	})

	if got := s.BackendType(); got != BackendLocal {
		t.Errorf("expected initial type %q, got %q", BackendLocal, got)
	}
	if s.HostedEnabled() {
		t.Error("HostedEnabled should be false in local mode")
	}

	if _, err := s.Active(); !errors.Is(err, ErrHostedNotActive) {
		t.Errorf("expected ErrHostedNotActive, got %v", err)
	}
}

func TestSelectorBuildsHostedOnce(t *testing.T) {
	var builds int32
	s := NewSelector(func() (Backend, error) {
		atomic.AddInt32(&builds, 1)
		return Backend(nil), nil
	})

	if err := s.SetBackendType(BackendHosted); err != nil {
		t.Fatalf("SetBackendType(hosted): %v", err)
	}
	if err := s.SetBackendType(BackendLocal); err != nil {
		t.Fatalf("SetBackendType(local): %v", err)
	}
	if err := s.SetBackendType(BackendHosted); err != nil {
		t.Fatalf("SetBackendType(hosted) again: %v", err)
	}

	if n := atomic.LoadInt32(&builds); n != 1 {
		t.Errorf("hosted backend constructed %d times, want 1", n)
	}
}

func TestSelectorConcurrentSwitch(t *testing.T) {
	var builds int32
	s := NewSelector(func() (Backend, error) {
		atomic.AddInt32(&builds, 1)
		return Backend(nil), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.SetBackendType(BackendHosted); err != nil {
				t.Errorf("SetBackendType: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&builds); n != 1 {
		t.Errorf("hosted backend constructed %d times under concurrency, want 1", n)
	}
	if !s.HostedEnabled() {
		t.Error("expected hosted to be enabled after switches")
	}
}

func TestSelectorRejectsUnknownType(t *testing.T) {
	s := NewSelector(func() (Backend, error) { return nil, nil })

	if err := s.SetBackendType("cloud"); err == nil {
		t.Error("expected error for unknown backend type")
	}
	if got := s.BackendType(); got != BackendLocal {
		t.Errorf("type changed to %q after rejected switch", got)
	}
}

func TestSelectorSurfacesBuildError(t *testing.T) {
	boom := errors.New("dial failed")
	s := NewSelector(func() (Backend, error) { return nil, boom })

	if err := s.SetBackendType(BackendHosted); !errors.Is(err, boom) {
		t.Errorf("expected build error to surface, got %v", err)
	}
	if _, err := s.Active(); !errors.Is(err, ErrHostedNotActive) {
		t.Errorf("expected ErrHostedNotActive after failed build, got %v", err)
	}
}
