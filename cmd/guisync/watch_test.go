package main

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

func TestWatch(t *testing.T) {
	ts := newDemoServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, out := newTestApp()
	done := make(chan error, 1)
	go func() {
		done <- execute(ctx, a, "--interval", "20ms", "watch", ts.URL)
	}()
	waitFor(t, out, "watching "+ts.URL)
	waitFor(t, out, "count: 0\n")

	body, err := protocol.EncodeCommand(protocol.NewCall("inc"))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+transport.DefaultRPCPath, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		t.Fatalf("rpc status = %d", resp.StatusCode)
	}

	waitFor(t, out, "count: 1\n")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatchReportsDisconnect(t *testing.T) {
	ts := newDemoServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, out := newTestApp()
	done := make(chan error, 1)
	go func() {
		done <- execute(ctx, a, "--interval", "20ms", "watch", ts.URL)
	}()
	waitFor(t, out, "watching")

	ts.CloseClientConnections()
	ts.Close()
	waitFor(t, out, "ErrorBox: Disconnected\n")

	cancel()
	<-done
}
