package main

import (
	"testing"
	"time"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()

	cfg := testConfig()
	h := newHub(cfg, newGame(cfg, nil))
	go h.run()
	return h
}

// join registers a fake client and drains the connect messages
// (session_info, then the current snapshot).
func join(t *testing.T, h *Hub, id string) *Client {
	t.Helper()

	c := &Client{send: make(chan any, 8), id: id}
	h.register <- c

	info, ok := recvMessage(t, c.send, time.Second).(SessionInfoMessage)
	if !ok || info.ConnectionID != id {
		t.Fatalf("expected session_info for %s, got %+v", id, info)
	}
	if _, ok := recvMessage(t, c.send, time.Second).(GameStateMessage); !ok {
		t.Fatalf("expected a snapshot after session_info")
	}
	return c
}

func recvState(t *testing.T, c *Client) GameStateMessage {
	t.Helper()

	msg := recvMessage(t, c.send, time.Second)
	state, ok := msg.(GameStateMessage)
	if !ok {
		t.Fatalf("expected gameState, got %T: %+v", msg, msg)
	}
	return state
}

func TestHubSendsSnapshotOnConnect(t *testing.T) {
	h := newTestHub(t)

	c := &Client{send: make(chan any, 8), id: "c1"}
	h.register <- c

	info, ok := recvMessage(t, c.send, time.Second).(SessionInfoMessage)
	if !ok {
		t.Fatalf("first message was not session_info")
	}
	if info.ConnectionID != "c1" {
		t.Fatalf("connectionId = %q, want c1", info.ConnectionID)
	}

	state := recvState(t, c)
	if state.Phase != phaseLobby {
		t.Fatalf("phase = %s, want lobby", state.Phase)
	}
	if len(state.AvailablePlayers) != 3 {
		t.Fatalf("availablePlayers = %+v", state.AvailablePlayers)
	}
	if len(state.Questions) == 0 {
		t.Fatal("snapshot missing the question bank")
	}
}

func TestHubBroadcastsAcceptedMutations(t *testing.T) {
	h := newTestHub(t)
	c1 := join(t, h, "c1")
	c2 := join(t, h, "c2")

	h.actions <- actionRequest{client: c1, msg: ClientMessage{Type: "selectPlayer", Name: "Erin"}}

	for _, c := range []*Client{c1, c2} {
		state := recvState(t, c)
		if state.Players["c1"] != "Erin" {
			t.Fatalf("players = %+v, want c1 -> Erin", state.Players)
		}
		for _, name := range state.AvailablePlayers {
			if name == "Erin" {
				t.Fatal("Erin still listed as available")
			}
		}
	}
}

func TestHubRejectedActionsStaySilent(t *testing.T) {
	h := newTestHub(t)
	c := join(t, h, "c1")

	// Not on the roster: silent no-op, no broadcast.
	h.actions <- actionRequest{client: c, msg: ClientMessage{Type: "selectPlayer", Name: "Zorro"}}

	recvNoMessage(t, c.send, 100*time.Millisecond)
}

func TestHubJudgeAuthReply(t *testing.T) {
	h := newTestHub(t)
	c := join(t, h, "c1")

	h.actions <- actionRequest{client: c, msg: ClientMessage{Type: "becomeJudge", Secret: "wrong"}}

	reply, ok := recvMessage(t, c.send, time.Second).(JudgeAuthResultMessage)
	if !ok {
		t.Fatalf("expected judgeAuthResult")
	}
	if reply.Success {
		t.Fatal("authorized with wrong secret")
	}
	if reply.Message == "" {
		t.Fatal("denial carried no message")
	}
	recvNoMessage(t, c.send, 100*time.Millisecond)

	h.actions <- actionRequest{client: c, msg: ClientMessage{Type: "becomeJudge", Secret: testSecret}}

	reply, ok = recvMessage(t, c.send, time.Second).(JudgeAuthResultMessage)
	if !ok || !reply.Success {
		t.Fatalf("expected successful judgeAuthResult, got %+v", reply)
	}
	state := recvState(t, c)
	if state.Judge != "c1" {
		t.Fatalf("judge = %q, want c1", state.Judge)
	}
}

func TestHubDisconnectFreesRoles(t *testing.T) {
	h := newTestHub(t)
	c1 := join(t, h, "c1")
	c2 := join(t, h, "c2")

	h.actions <- actionRequest{client: c1, msg: ClientMessage{Type: "selectPlayer", Name: "Erin"}}
	recvState(t, c1)
	recvState(t, c2)

	h.unreg <- c1

	state := recvState(t, c2)
	if len(state.Players) != 0 {
		t.Fatalf("players = %+v after disconnect", state.Players)
	}
	found := false
	for _, name := range state.AvailablePlayers {
		if name == "Erin" {
			found = true
		}
	}
	if !found {
		t.Fatal("Erin not freed after her connection dropped")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := newTestHub(t)

	// Room for session_info only; the connect snapshot overflows it.
	c := &Client{send: make(chan any, 1), id: "slow"}
	h.register <- c

	if _, ok := recvMessage(t, c.send, time.Second).(SessionInfoMessage); !ok {
		t.Fatalf("expected session_info")
	}

	select {
	case _, open := <-c.send:
		if open {
			t.Fatal("expected the slow client's channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestStateMessageCopiesState(t *testing.T) {
	g := newTestGame(t)
	judge := addJudge(t, g)
	g.claimName("conn-1", "Erin")
	g.selectQuestion(judge, 0)
	g.submitAnswer("conn-1", "Paris")

	snap := g.stateMessage()

	// Mutating the snapshot must not reach the live game.
	snap.Players["conn-1"] = "Mallory"
	snap.Scores["Erin"] = 99
	snap.GroupedAnswers["paris"][0] = "Mallory"
	snap.Questions[0].Text = "edited"
	snap.CurrentQuestion.Text = "edited"

	if g.players["conn-1"] != "Erin" {
		t.Fatal("players map shared with snapshot")
	}
	if g.scores["Erin"] != 0 {
		t.Fatal("scores map shared with snapshot")
	}
	if g.groupedAnswers["paris"][0] != "Erin" {
		t.Fatal("grouped answers shared with snapshot")
	}
	if g.questions[0].Text == "edited" {
		t.Fatal("question bank shared with snapshot")
	}
	if g.currentQuestion.Text == "edited" {
		t.Fatal("current question shared with snapshot")
	}
}
