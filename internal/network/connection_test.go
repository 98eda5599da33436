package network

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// loopback starts a listener and returns the ServerInfo to reach it plus
// a channel yielding the accepted server-side conn.
func loopback(t *testing.T) (ServerInfo, <-chan net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	host, port, _ := net.SplitHostPort(ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return ServerInfo{Hostname: host, Port: p, Role: RoleLogin}, accepted
}

func connected(t *testing.T, opts Options) (*Connection, net.Conn) {
	t.Helper()
	info, accepted := loopback(t)
	conn := NewConnection(info, opts, nil)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(conn.Disconnect)

	select {
	case srv := <-accepted:
		t.Cleanup(func() { srv.Close() })
		return conn, srv
	case <-time.After(3 * time.Second):
		t.Fatal("server never accepted")
	}
	return nil, nil
}

func TestConnectEmptyHostname(t *testing.T) {
	conn := NewConnection(ServerInfo{Port: 6901}, Options{}, nil)
	if err := conn.Connect(context.Background()); err == nil {
		t.Fatal("Connect() error = nil, want error")
	}
	if conn.State() != StateError {
		t.Errorf("State() = %s, want error", conn.State())
	}
}

func TestConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()
	p, _ := strconv.Atoi(port)

	var states []State
	conn := NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: p}, Options{ConnectTimeout: time.Second},
		func(info ServerInfo, s State, msg string) { states = append(states, s) })
	if err := conn.Connect(context.Background()); err == nil {
		t.Fatal("Connect() error = nil, want error")
	}
	if conn.State() != StateError || conn.Err() == "" {
		t.Errorf("State() = %s Err() = %q", conn.State(), conn.Err())
	}
	if len(states) != 2 || states[0] != StateConnecting || states[1] != StateError {
		t.Errorf("state transitions = %v, want [connecting error]", states)
	}
	conn.Disconnect()
}

func TestConnectTwice(t *testing.T) {
	conn, _ := connected(t, Options{})
	if err := conn.Connect(context.Background()); err == nil {
		t.Error("second Connect() error = nil, want error")
	}
}

func TestReceiveAppendsInOrder(t *testing.T) {
	conn, srv := connected(t, Options{ReadChunk: 3})

	srv.Write([]byte{1, 2, 3, 4})
	srv.Write([]byte{5, 6, 7})
	waitFor(t, "7 buffered bytes", func() bool { return len(conn.Buffered()) == 7 })

	if got := conn.Buffered(); !bytes.Equal(got, []byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("Buffered() = %v", got)
	}

	view := conn.Buffered()
	conn.Skip(2)
	if got := conn.Buffered(); !bytes.Equal(got, []byte{3, 4, 5, 6, 7}) {
		t.Errorf("Buffered() after Skip(2) = %v", got)
	}
	if !bytes.Equal(view, []byte{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("earlier view changed after Skip: %v", view)
	}
}

func TestDeferredSkip(t *testing.T) {
	conn, srv := connected(t, Options{})

	srv.Write([]byte{1, 2})
	waitFor(t, "2 buffered bytes", func() bool { return len(conn.Buffered()) == 2 })

	conn.Skip(5)
	if n := len(conn.Buffered()); n != 0 {
		t.Fatalf("Buffered() = %d bytes after over-skip, want 0", n)
	}

	srv.Write([]byte{3, 4, 5, 6, 7, 8})
	waitFor(t, "bytes after deferred skip", func() bool { return len(conn.Buffered()) == 3 })
	if got := conn.Buffered(); !bytes.Equal(got, []byte{6, 7, 8}) {
		t.Errorf("Buffered() = %v, want [6 7 8]", got)
	}
}

func TestServerCloseSetsError(t *testing.T) {
	conn, srv := connected(t, Options{})
	srv.Close()

	waitFor(t, "error state", func() bool { return conn.State() == StateError })
	if conn.Err() != "Connection closed by server" {
		t.Errorf("Err() = %q", conn.Err())
	}
}

func TestFlushPreservesOrder(t *testing.T) {
	conn, srv := connected(t, Options{})

	conn.Send([]byte{0x7d, 0x00})
	conn.Send([]byte{0x8c, 0x00, 0x06, 0x00, 'h', 'i'})
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if conn.Pending() != 0 {
		t.Errorf("Pending() = %d after flush", conn.Pending())
	}

	got := make([]byte, 8)
	srv.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := io.ReadFull(srv, got); err != nil {
		t.Fatalf("server read error = %v", err)
	}
	want := []byte{0x7d, 0x00, 0x8c, 0x00, 0x06, 0x00, 'h', 'i'}
	if !bytes.Equal(got, want) {
		t.Errorf("server received %v, want %v", got, want)
	}
}

func TestSendDropsOversizedBufferWhenNotConnected(t *testing.T) {
	conn := NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: 1}, Options{BufferLimit: 8}, nil)
	conn.Send(make([]byte, 4))
	if conn.Pending() != 4 {
		t.Fatalf("Pending() = %d, want 4", conn.Pending())
	}
	conn.Send(make([]byte, 6))
	if conn.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after overflow", conn.Pending())
	}
}

func TestBackpressurePausesReads(t *testing.T) {
	conn, srv := connected(t, Options{BufferLimit: 4, BackpressureDelay: 20 * time.Millisecond, ReadChunk: 8})

	srv.Write(make([]byte, 8))
	waitFor(t, "first chunk", func() bool { return len(conn.Buffered()) == 8 })
	srv.Write(make([]byte, 8))
	time.Sleep(100 * time.Millisecond)
	if n := len(conn.Buffered()); n != 8 {
		t.Fatalf("Buffered() = %d while over limit, want 8", n)
	}

	conn.Skip(8)
	waitFor(t, "second chunk after drain", func() bool { return len(conn.Buffered()) == 8 })
}

func TestDisconnectIdempotent(t *testing.T) {
	conn, _ := connected(t, Options{NetworkSleep: time.Millisecond})
	conn.Disconnect()
	conn.Disconnect()
	if conn.State() != StateIdle {
		t.Errorf("State() = %s, want idle", conn.State())
	}
}

func TestRegistryReplacesRole(t *testing.T) {
	reg := NewConnectionRegistry()
	first, _ := connected(t, Options{})
	second, _ := connected(t, Options{})

	reg.Register(first)
	reg.Register(second)

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
	if first.State() != StateIdle {
		t.Errorf("replaced connection state = %s, want idle", first.State())
	}
	if got, _ := reg.Get(RoleLogin); got != second {
		t.Error("Get() did not return the newest connection")
	}

	reg.CloseAll()
	if reg.Count() != 0 || second.State() != StateIdle {
		t.Errorf("after CloseAll Count() = %d state = %s", reg.Count(), second.State())
	}
}

func TestDisconnectCancelsDial(t *testing.T) {
	conn := NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: 1}, Options{}, nil)
	dialing := make(chan struct{})
	conn.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		close(dialing)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	connectErr := make(chan error, 1)
	go func() { connectErr <- conn.Connect(context.Background()) }()
	<-dialing

	disconnected := make(chan struct{})
	go func() {
		conn.Disconnect()
		close(disconnected)
	}()
	select {
	case <-disconnected:
	case <-time.After(3 * time.Second):
		t.Fatal("Disconnect() blocked while dialing")
	}
	if err := <-connectErr; err == nil {
		t.Error("Connect() error = nil after Disconnect")
	}
	if conn.State() != StateIdle {
		t.Errorf("State() = %s, want idle", conn.State())
	}
}

func TestDisconnectDuringDialClosesSocket(t *testing.T) {
	conn := NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: 1}, Options{}, nil)
	client, srv := net.Pipe()
	t.Cleanup(func() { srv.Close() })

	dialing := make(chan struct{})
	conn.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		close(dialing)
		<-conn.stopCh
		return client, nil
	}

	connectErr := make(chan error, 1)
	go func() { connectErr <- conn.Connect(context.Background()) }()
	<-dialing

	disconnected := make(chan struct{})
	go func() {
		conn.Disconnect()
		close(disconnected)
	}()
	select {
	case <-disconnected:
	case <-time.After(3 * time.Second):
		t.Fatal("Disconnect() blocked on a dial that completed after stop")
	}
	if err := <-connectErr; err == nil {
		t.Error("Connect() error = nil after Disconnect")
	}

	srv.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := srv.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("server read error = %v, want EOF from a closed socket", err)
	}
	if conn.State() == StateConnected {
		t.Error("State() = connected after Disconnect")
	}
}

func TestSendNotBlockedByFlush(t *testing.T) {
	conn := NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: 1}, Options{WriteTimeout: 3 * time.Second}, nil)
	client, srv := net.Pipe()
	t.Cleanup(func() { srv.Close() })
	conn.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return client, nil
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(conn.Disconnect)

	conn.Send([]byte{1, 2, 3, 4})
	flushErr := make(chan error, 1)
	go func() { flushErr <- conn.Flush() }()
	// The pipe write blocks until the server reads.
	time.Sleep(20 * time.Millisecond)

	sent := make(chan struct{})
	go func() {
		conn.Send([]byte{5, 6})
		close(sent)
	}()
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("Send() blocked behind a pending Flush")
	}

	got := make([]byte, 4)
	srv.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, err := io.ReadFull(srv, got); err != nil {
		t.Fatalf("server read error = %v", err)
	}
	if err := <-flushErr; err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("server received %v, want [1 2 3 4]", got)
	}
	if conn.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2 queued during the write", conn.Pending())
	}
}
