package main

import (
	"testing"
	"time"
)

const (
	testSecret  = "opensesame"
	judgeConnID = "judge-conn"
)

func testConfig() *Config {
	return &Config{
		players:     []string{"Erin", "Bill", "Liz"},
		judgeSecret: testSecret,
		dataFile:    "gamedata.json",
		port:        8080,
	}
}

// newTestGame returns a lobby-phase game with no store attached.
func newTestGame(t *testing.T) *Game {
	t.Helper()
	return newGame(testConfig(), nil)
}

// addJudge authorizes a judge connection and fails the test if that doesn't
// work.
func addJudge(t *testing.T, g *Game) string {
	t.Helper()

	ok, reason := g.becomeJudge(judgeConnID, testSecret)
	if !ok {
		t.Fatalf("becomeJudge failed: %s", reason)
	}
	return judgeConnID
}

// helper: receive one message with a timeout so tests never hang
func recvMessage(t *testing.T, ch <-chan any, within time.Duration) any {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return msg
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return nil // unreachable
	}
}

func recvNoMessage(t *testing.T, ch <-chan any, within time.Duration) {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			// channel closed; no further messages possible
			return
		}
		t.Fatalf("expected no message within %v, but got: %+v", within, msg)
	case <-time.After(within):
		// good: no message
	}
}
