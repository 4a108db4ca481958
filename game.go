package main

import (
	"fmt"
	"strings"
	"time"
)

type Phase string

const (
	phaseLobby     Phase = "lobby"
	phaseAnswering Phase = "answering"
	phaseJudging   Phase = "judging"
	phaseResults   Phase = "results"
)

// Action names double as the inbound wire event types.
const (
	actionSelectPlayer   = "selectPlayer"
	actionBecomeJudge    = "becomeJudge"
	actionSubmitQuestion = "submitQuestion"
	actionSelectQuestion = "selectQuestion"
	actionSubmitAnswer   = "submitAnswer"
	actionForceJudging   = "forceJudging"
	actionJudgeAnswers   = "judgeAnswers"
	actionReturnToLobby  = "returnToLobby"
	actionResetScores    = "resetScores"
	actionFullReset      = "fullReset"
	actionResetQuestion  = "resetQuestion"
	actionDeleteQuestion = "deleteQuestion"
)

// actionPhases is the transition table: which phases each action is legal in.
// An action missing a phase here is a no-op in that phase, so legality is a
// single lookup instead of checks scattered through the handlers.
var actionPhases = map[string][]Phase{
	actionSelectPlayer:   {phaseLobby, phaseAnswering, phaseJudging, phaseResults},
	actionBecomeJudge:    {phaseLobby, phaseAnswering, phaseJudging, phaseResults},
	actionSubmitQuestion: {phaseLobby},
	actionSelectQuestion: {phaseLobby},
	actionSubmitAnswer:   {phaseAnswering},
	actionForceJudging:   {phaseAnswering},
	actionJudgeAnswers:   {phaseJudging},
	actionReturnToLobby:  {phaseResults},
	actionResetScores:    {phaseLobby},
	actionFullReset:      {phaseLobby},
	actionResetQuestion:  {phaseLobby, phaseAnswering, phaseJudging, phaseResults},
	actionDeleteQuestion: {phaseLobby, phaseAnswering, phaseJudging, phaseResults},
}

func (g *Game) allows(action string) bool {
	for _, phase := range actionPhases[action] {
		if phase == g.phase {
			return true
		}
	}
	return false
}

// Game is the single authoritative game state. All mutation happens on the
// hub goroutine, one action at a time, so no locking is needed here.
type Game struct {
	players           map[string]string // connection id -> claimed name
	judge             string            // connection id, empty when unset
	currentQuestion   *Question
	answers           []playerAnswer
	groupedAnswers    map[string][]string
	scores            map[string]int
	phase             Phase
	questions         []Question
	nextQuestionID    int
	questionsAnswered int

	roster      []string
	judgeSecret string
	store       Store
	cfg         *Config
}

// newGame builds a fresh lobby-phase game, restoring scores and the question
// bank from the store when a save exists. Runtime fields (players, judge,
// round state) always start empty.
func newGame(cfg *Config, store Store) *Game {
	g := &Game{
		players:     make(map[string]string),
		scores:      make(map[string]int),
		phase:       phaseLobby,
		questions:   defaultQuestions(),
		roster:      cfg.players,
		judgeSecret: cfg.judgeSecret,
		store:       store,
		cfg:         cfg,
	}
	g.nextQuestionID = len(g.questions)

	if store != nil {
		saved, err := store.Load()
		switch {
		case err != nil:
			fmt.Printf("%s | ERROR: loading saved game: %v\n", time.Now().Format(logDate), err)
		case saved != nil:
			g.scores = saved.Scores
			g.questions = saved.Questions
			g.nextQuestionID = saved.NextQuestionID
			g.questionsAnswered = saved.QuestionsAnswered
			logf(cfg, "GAME: Restored %d questions available, %d answered so far",
				len(filterQuestions(g.questions, "available")), g.questionsAnswered)
		}
	}

	if g.scores == nil {
		g.scores = make(map[string]int)
	}
	for _, name := range g.roster {
		if _, ok := g.scores[name]; !ok {
			g.scores[name] = 0
		}
	}

	return g
}

// save pushes the durable subset of state to the store. Best effort: a
// failure is logged and the game carries on in memory.
func (g *Game) save() {
	if g.store == nil {
		return
	}

	err := g.store.Save(SavedState{
		Scores:            g.scores,
		Questions:         g.questions,
		NextQuestionID:    g.nextQuestionID,
		QuestionsAnswered: g.questionsAnswered,
	})
	if err != nil {
		fmt.Printf("%s | ERROR: saving game: %v\n", time.Now().Format(logDate), err)
		return
	}
	logf(g.cfg, "GAME: State saved")
}

// submitAnswer records a player's answer for the current round, overwriting
// any earlier submission. Once every connected player has answered, the
// round advances to judging on its own.
func (g *Game) submitAnswer(connID, text string) bool {
	if !g.allows(actionSubmitAnswer) {
		return false
	}
	player := g.players[connID]
	if player == "" {
		return false
	}

	g.answers = setAnswer(g.answers, player, strings.TrimSpace(text))
	g.maybeFinishAnswering()
	return true
}

// maybeFinishAnswering moves answering to judging when the set of answered
// players covers every currently connected player. Answers from players who
// have since disconnected still count toward their groups.
func (g *Game) maybeFinishAnswering() {
	if g.phase != phaseAnswering || len(g.players) == 0 {
		return
	}
	for _, player := range g.players {
		if !hasAnswered(g.answers, player) {
			return
		}
	}

	g.groupedAnswers = groupAnswers(g.answers)
	g.phase = phaseJudging
}

// forceJudging lets the judge close the round early, grouping whatever
// answers exist.
func (g *Game) forceJudging(connID string) bool {
	if connID != g.judge || !g.allows(actionForceJudging) {
		return false
	}

	g.groupedAnswers = groupAnswers(g.answers)
	g.phase = phaseJudging
	return true
}

// judgeAnswers credits every player in each approved group with one point,
// counts the round, and moves to results. Duplicate keys in the submitted
// list credit a group only once.
func (g *Game) judgeAnswers(connID string, correctGroups []string) bool {
	if connID != g.judge || !g.allows(actionJudgeAnswers) {
		return false
	}

	credited := make(map[string]bool, len(correctGroups))
	for _, key := range correctGroups {
		if credited[key] {
			continue
		}
		credited[key] = true

		for _, player := range g.groupedAnswers[key] {
			g.scores[player]++
		}
	}

	g.questionsAnswered++
	g.phase = phaseResults

	g.save()
	return true
}

// returnToLobby clears the finished round and reopens the lobby.
func (g *Game) returnToLobby(connID string) bool {
	if connID != g.judge || !g.allows(actionReturnToLobby) {
		return false
	}

	g.currentQuestion = nil
	g.answers = nil
	g.groupedAnswers = nil
	g.phase = phaseLobby
	return true
}

// resetScores zeroes every roster score and the answered-question counter,
// leaving the question bank alone.
func (g *Game) resetScores(connID string) bool {
	if connID != g.judge || !g.allows(actionResetScores) {
		return false
	}

	for _, name := range g.roster {
		g.scores[name] = 0
	}
	g.questionsAnswered = 0

	g.save()
	return true
}

// fullReset restores the default question bank on top of a score reset.
// Custom questions are discarded and IDs restart from zero.
func (g *Game) fullReset(connID string) bool {
	if connID != g.judge || !g.allows(actionFullReset) {
		return false
	}

	for _, name := range g.roster {
		g.scores[name] = 0
	}
	g.questions = defaultQuestions()
	g.nextQuestionID = len(g.questions)
	g.questionsAnswered = 0
	g.currentQuestion = nil
	g.answers = nil
	g.groupedAnswers = nil
	g.phase = phaseLobby

	g.save()
	return true
}
