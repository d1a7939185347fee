package session

import (
	"errors"
	"net"
	"testing"
	"time"
)

func pipeTransports(t *testing.T) (Transport, Transport) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return NewTCPTransport(a), NewTCPTransport(b)
}

func TestTCPTransportRoundTrip(t *testing.T) {
	client, server := pipeTransports(t)

	lines := make(chan []byte, 1)
	errs := make(chan error, 1)
	go func() {
		line, err := server.ReadLine()
		if err != nil {
			errs <- err
			return
		}
		out := make([]byte, len(line))
		copy(out, line)
		lines <- out
	}()

	if err := client.WriteLine([]byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	select {
	case line := <-lines:
		if string(line) != `{"type":"ping"}` {
			t.Fatalf("read %q", line)
		}
	case err := <-errs:
		t.Fatalf("ReadLine: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
	}
}

func TestTCPTransportReportsClosedPeer(t *testing.T) {
	a, b := net.Pipe()
	server := NewTCPTransport(b)

	errs := make(chan error, 1)
	go func() {
		_, err := server.ReadLine()
		errs <- err
	}()
	a.Close()

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("ReadLine returned nil error on closed peer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not return after peer closed")
	}
	b.Close()
}

func TestTCPTransportRejectsOversizedLine(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	server := NewTCPTransport(b)

	go func() {
		huge := make([]byte, maxLineBytes+1024)
		for i := range huge {
			huge[i] = 'x'
		}
		a.Write(huge)
	}()

	done := make(chan error, 1)
	go func() {
		_, err := server.ReadLine()
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || errors.Is(err, net.ErrClosed) {
			t.Fatalf("ReadLine err = %v, want buffer limit error", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLine did not fail on oversized frame")
	}
}
