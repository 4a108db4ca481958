package main

import (
	"strings"
)

// playerAnswer is one player's submitted answer for the current round.
// Answers are kept as an ordered slice rather than a map so that the
// grouping below lists players in submission order.
type playerAnswer struct {
	Player string
	Text   string
}

// setAnswer records an answer, overwriting in place if the player already
// answered this round. A resubmission keeps the player's original position.
func setAnswer(answers []playerAnswer, player, text string) []playerAnswer {
	for i := range answers {
		if answers[i].Player == player {
			answers[i].Text = text
			return answers
		}
	}
	return append(answers, playerAnswer{Player: player, Text: text})
}

// normalizeAnswer folds an answer to its grouping key.
func normalizeAnswer(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// groupAnswers buckets answers by normalized text. Two answers that differ
// only in case or surrounding whitespace land in the same group, and the
// group is what the judge rules on, so every player in it is credited (or
// not) together. Pure function; safe to recompute at any time.
func groupAnswers(answers []playerAnswer) map[string][]string {
	grouped := make(map[string][]string, len(answers))
	for _, a := range answers {
		key := normalizeAnswer(a.Text)
		grouped[key] = append(grouped[key], a.Player)
	}
	return grouped
}

// answersByPlayer flattens the ordered answer list into a lookup map for
// client snapshots.
func answersByPlayer(answers []playerAnswer) map[string]string {
	m := make(map[string]string, len(answers))
	for _, a := range answers {
		m[a.Player] = a.Text
	}
	return m
}

// hasAnswered reports whether the named player answered this round.
func hasAnswered(answers []playerAnswer, player string) bool {
	for _, a := range answers {
		if a.Player == player {
			return true
		}
	}
	return false
}
