package main

import (
	"crypto/hmac"
	"slices"
)

// claimName binds a connection to a roster name. Rejected if the name is not
// on the roster, another connection already holds it, or the caller is the
// judge. A connection that already holds a name may switch to a free one.
func (g *Game) claimName(connID, name string) bool {
	if connID == g.judge {
		return false
	}
	if !slices.Contains(g.roster, name) {
		return false
	}
	for id, claimed := range g.players {
		if claimed == name && id != connID {
			return false
		}
	}

	g.players[connID] = name
	return true
}

// releaseName drops a connection's name binding, if any. Idempotent.
func (g *Game) releaseName(connID string) bool {
	if _, ok := g.players[connID]; !ok {
		return false
	}
	delete(g.players, connID)
	return true
}

// availableNames returns roster names not currently claimed, in roster order.
func (g *Game) availableNames() []string {
	available := make([]string, 0, len(g.roster))
	for _, name := range g.roster {
		claimed := false
		for _, taken := range g.players {
			if taken == name {
				claimed = true
				break
			}
		}
		if !claimed {
			available = append(available, name)
		}
	}
	return available
}

// becomeJudge authorizes a connection as the judge. The secret is compared in
// constant time. While a judge connection is live, further claims are refused
// rather than displacing it; the slot frees only when that connection drops.
// On success any name the caller held is released, since a connection binds
// at most one role.
func (g *Game) becomeJudge(connID, secret string) (bool, string) {
	if !hmac.Equal([]byte(secret), []byte(g.judgeSecret)) {
		return false, "incorrect judge secret"
	}
	if g.judge != "" && g.judge != connID {
		return false, "a judge is already connected"
	}

	g.releaseName(connID)
	g.judge = connID
	return true, ""
}

// disconnect cleans up after a departed connection: its name binding and, if
// it was the judge, the judge slot. If the departed player was the last one
// holding up an answering round, the round completes for whoever remains.
// Reports whether game state changed.
func (g *Game) disconnect(connID string) bool {
	changed := g.releaseName(connID)
	if g.judge == connID {
		g.judge = ""
		changed = true
	}

	if changed {
		g.maybeFinishAnswering()
	}
	return changed
}
