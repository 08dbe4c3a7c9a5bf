package process

import (
	"os/exec"
	"sync"
	"testing"
	"time"
)

func TestSupervisor_Start(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Start("sleeper", exec.Command("sleep", "10"))
	if err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	if proc.ID == "" {
		t.Error("expected a generated ID")
	}
	if s.Get(proc.ID) != proc {
		t.Error("Get should return the started process")
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 process, got %d", s.Count())
	}
}

func TestSupervisor_DuplicateID(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	if _, err := s.startWithID("same", "a", exec.Command("sleep", "10")); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if _, err := s.startWithID("same", "b", exec.Command("sleep", "10")); err == nil {
		t.Error("expected an error for a duplicate ID")
	}
}

func TestSupervisor_WithMaxProcesses(t *testing.T) {
	s := NewSupervisor(WithMaxProcesses(1))
	defer s.Shutdown(time.Second)

	if _, err := s.Start("one", exec.Command("sleep", "10")); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	if _, err := s.Start("two", exec.Command("sleep", "10")); err == nil {
		t.Error("expected the process limit to be enforced")
	}
}

func TestSupervisor_WithProcessExitCallback(t *testing.T) {
	exited := make(chan string, 1)
	s := NewSupervisor(WithProcessExitCallback(func(p *Process) {
		exited <- p.Name
	}))
	defer s.Shutdown(time.Second)

	if _, err := s.Start("quick", exec.Command("true")); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}

	select {
	case name := <-exited:
		if name != "quick" {
			t.Errorf("callback got %q, want %q", name, "quick")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("exit callback was not called")
	}
}

func TestSupervisor_Kill_NotFound(t *testing.T) {
	s := NewSupervisor()
	if err := s.Kill("missing"); err != ErrProcessNotFound {
		t.Errorf("expected ErrProcessNotFound, got %v", err)
	}
	if err := s.Terminate("missing"); err != ErrProcessNotFound {
		t.Errorf("expected ErrProcessNotFound, got %v", err)
	}
}

func TestSupervisor_Shutdown(t *testing.T) {
	s := NewSupervisor()
	for range 3 {
		if _, err := s.Start("sleeper", exec.Command("sleep", "10")); err != nil {
			t.Fatalf("failed to start process: %v", err)
		}
	}

	s.Shutdown(time.Second)

	if s.Count() != 0 {
		t.Errorf("expected 0 processes after shutdown, got %d", s.Count())
	}
	if _, err := s.Start("late", exec.Command("true")); err != ErrSupervisorShutdown {
		t.Errorf("Start after shutdown = %v, want ErrSupervisorShutdown", err)
	}
}

func TestSupervisor_Shutdown_Timeout(t *testing.T) {
	s := NewSupervisor()
	cmd := exec.Command("sh", "-c", "trap '' TERM; sleep 10")
	if _, err := s.Start("stubborn", cmd); err != nil {
		t.Fatalf("failed to start process: %v", err)
	}
	time.Sleep(50 * time.Millisecond) // let the shell install the trap

	start := time.Now()
	s.Shutdown(100 * time.Millisecond)

	if time.Since(start) > 3*time.Second {
		t.Error("shutdown should kill after the timeout")
	}
	if s.Count() != 0 {
		t.Errorf("expected 0 processes, got %d", s.Count())
	}
}

func TestSupervisor_StartAfterShutdown(t *testing.T) {
	s := NewSupervisor()
	s.Shutdown(time.Second)

	if _, err := s.Start("late", exec.Command("true")); err != ErrSupervisorShutdown {
		t.Errorf("expected ErrSupervisorShutdown, got %v", err)
	}
}

func TestSupervisor_Concurrent(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proc, err := s.Start("worker", exec.Command("echo", "hello"))
			if err != nil {
				errs <- err
				return
			}
			<-proc.Done()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent error: %v", err)
	}
}
