package client

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunsInOrder(t *testing.T) {
	l := NewLoop(8, nil)
	l.Start()
	defer l.Close()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		l.Dispatch(func() { got = append(got, i) })
	}
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("order = %v", got)
		}
	}
	if len(got) != 5 {
		t.Errorf("ran %d callbacks, want 5", len(got))
	}
}

func TestLoopRecoversPanic(t *testing.T) {
	l := NewLoop(8, nil)
	l.Start()
	defer l.Close()

	if err := l.Do(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	ran := false
	if err := l.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do() after panic error = %v", err)
	}
	if !ran {
		t.Error("loop should keep running after a panic")
	}
}

func TestLoopNotStarted(t *testing.T) {
	l := NewLoop(1, nil)
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("err = %v, want ErrNotStarted", err)
	}
}

func TestLoopClosed(t *testing.T) {
	l := NewLoop(1, nil)
	l.Start()
	l.Close()
	l.Wait()

	if l.Dispatch(func() {}) {
		t.Error("Dispatch after Close should report false")
	}
	if err := l.Do(context.Background(), func() {}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}

func TestLoopDoContext(t *testing.T) {
	l := NewLoop(4, nil)
	l.Start()
	defer l.Close()

	release := make(chan struct{})
	l.Dispatch(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}
