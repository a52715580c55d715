package main

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/goccy/go-json"

	"github.com/Warky-Devs/WkMailMover/internal/mailbox"
)

func plainConnector() mailbox.Connector {
	return mailbox.NewDialerWith(func(ctx context.Context, _, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	})
}

type result struct {
	Success bool
	Message string
	Email   map[string]any
}

func runArgs(t *testing.T, args ...string) (result, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	run(context.Background(), args, &stdout, &stderr, nil)

	var r result
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	return r, stderr.String()
}

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bare token", []string{"imap.example.com"}, "Invalid argument format: imap.example.com"},
		{"missing value", []string{"--server", "s", "--port"}, "Missing value for parameter: --port"},
		{"missing keys", []string{"--server", "s", "--password", "p"}, "Missing parameters: username, port, readfolder"},
		{"bad port", []string{"--server", "s", "--username", "u", "--password", "p", "--port", "x", "--readfolder", "INBOX"}, "Invalid port: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := runArgs(t, tt.args...)
			if r.Success || r.Message != tt.want {
				t.Errorf("got %+v, want message %q", r, tt.want)
			}
			if r.Email == nil || len(r.Email) != 0 {
				t.Errorf("Email = %v, want {}", r.Email)
			}
		})
	}
}

func TestRunAgainstServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := server.New(memory.New())
	s.AllowInsecureAuth = true
	go func() { _ = s.Serve(l) }()
	defer s.Close()

	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	args := []string{
		"--server", "127.0.0.1",
		"--username", "username",
		"--password", "password",
		"--port", port,
		"--readfolder", "INBOX",
		"--movetofolder", "Missing",
	}

	var stdout, stderr bytes.Buffer
	run(context.Background(), args, &stdout, &stderr, plainConnector())

	var r result
	if err := json.Unmarshal(stdout.Bytes(), &r); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if r.Success {
		t.Fatalf("move to a missing folder should fail: %+v", r)
	}
	if want := "The folder 'Missing' does not exist. Available folders: INBOX"; r.Message != want {
		t.Errorf("Message = %q, want %q", r.Message, want)
	}
	if r.Email["Subject"] != "A little message, just for you" || r.Email["Body"] != "Hi there :)" {
		t.Errorf("Email = %v", r.Email)
	}
	if !strings.Contains(stderr.String(), "run_id") {
		t.Errorf("logs missing run_id:\n%s", stderr.String())
	}
}

func TestRunUnreachableServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	_ = l.Close()

	r, logs := runArgs(t,
		"--server", "127.0.0.1",
		"--username", "u",
		"--password", "p",
		"--port", port,
		"--readfolder", "INBOX",
	)
	if r.Success || r.Message != "Failed to retrieve email." || len(r.Email) != 0 {
		t.Errorf("got %+v", r)
	}
	if !strings.Contains(logs, "fetch failed") {
		t.Errorf("error detail should be logged:\n%s", logs)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger("error", &buf)
	log.Info("hidden")
	log.Error("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level not applied:\n%s", buf.String())
	}

	buf.Reset()
	log = newLogger("loud", &buf)
	log.Info("visible")
	if !strings.Contains(buf.String(), "unknown log level") || !strings.Contains(buf.String(), "visible") {
		t.Errorf("unknown level should fall back to info:\n%s", buf.String())
	}
}
