package main

import (
	_ "embed"
	"encoding/json"
	"strings"
)

//go:embed questions.json
var defaultQuestionsJSON []byte

// Question is one entry in the question bank. IDs are assigned from a
// monotonic counter and never reused, even after deletion.
type Question struct {
	ID          int    `json:"id"`
	Text        string `json:"text"`
	Used        bool   `json:"used"`
	SubmittedBy string `json:"submittedBy"`
}

// defaultQuestions builds the built-in question set with sequential IDs
// starting at zero.
func defaultQuestions() []Question {
	var texts []string
	if err := json.Unmarshal(defaultQuestionsJSON, &texts); err != nil {
		panic("invalid embedded questions.json: " + err.Error())
	}

	questions := make([]Question, 0, len(texts))
	for i, text := range texts {
		questions = append(questions, Question{
			ID:          i,
			Text:        text,
			Used:        false,
			SubmittedBy: "Default",
		})
	}
	return questions
}

// submitQuestion adds a question to the bank. Players (and unnamed
// connections, labeled "Anonymous") may submit while the game sits in the
// lobby; the judge may not. Empty-after-trim text is rejected.
func (g *Game) submitQuestion(connID, text string) bool {
	if connID == g.judge || !g.allows(actionSubmitQuestion) {
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	submitter := g.players[connID]
	if submitter == "" {
		submitter = "Anonymous"
	}

	g.questions = append(g.questions, Question{
		ID:          g.nextQuestionID,
		Text:        text,
		Used:        false,
		SubmittedBy: submitter,
	})
	g.nextQuestionID++

	g.save()
	return true
}

// selectQuestion marks a question used and opens the answering phase on a
// snapshot copy of it, so later edits to the bank never alter the question
// in play. Judge only, lobby only; used or unknown IDs are rejected.
func (g *Game) selectQuestion(connID string, questionID int) bool {
	if connID != g.judge || !g.allows(actionSelectQuestion) {
		return false
	}

	question := g.findQuestion(questionID)
	if question == nil || question.Used {
		return false
	}
	question.Used = true

	snapshot := *question
	g.currentQuestion = &snapshot
	g.answers = nil
	g.groupedAnswers = nil
	g.phase = phaseAnswering

	g.save()
	return true
}

// resetQuestion flips a question back to unused so it can be asked again.
func (g *Game) resetQuestion(connID string, questionID int) bool {
	if connID != g.judge || !g.allows(actionResetQuestion) {
		return false
	}

	question := g.findQuestion(questionID)
	if question == nil {
		return false
	}
	question.Used = false

	g.save()
	return true
}

// deleteQuestion removes a question permanently. Its ID is never reissued.
func (g *Game) deleteQuestion(connID string, questionID int) bool {
	if connID != g.judge || !g.allows(actionDeleteQuestion) {
		return false
	}

	dst := g.questions[:0]
	changed := false
	for _, q := range g.questions {
		if q.ID == questionID {
			changed = true
			continue
		}
		dst = append(dst, q)
	}
	g.questions = dst

	if !changed {
		return false
	}

	g.save()
	return true
}

func (g *Game) findQuestion(questionID int) *Question {
	for i := range g.questions {
		if g.questions[i].ID == questionID {
			return &g.questions[i]
		}
	}
	return nil
}

// filterQuestions is a read-side query over the bank: "all", "available",
// or "used". The bank itself stores no filter state.
func filterQuestions(questions []Question, mode string) []Question {
	if mode == "all" {
		return questions
	}

	filtered := make([]Question, 0, len(questions))
	for _, q := range questions {
		switch mode {
		case "available":
			if !q.Used {
				filtered = append(filtered, q)
			}
		case "used":
			if q.Used {
				filtered = append(filtered, q)
			}
		}
	}
	return filtered
}
