// Triviabox party trivia
//
// One authoritative game instance is shared by every connection. Clients
// attach over a websocket as either a player (claiming a name from the
// configured roster) or the judge (supplying the shared judge secret).
//
// Features:
// - WebSocket endpoint at /trivia/ws, one global game
// - Judge selects questions, rules on grouped answers, manages resets
// - Players claim roster names, submit questions and answers
// - Free-text answers grouped by trimmed, case-folded text for judging
// - Scores and the question bank survive restarts via file or sqlite store
// - Every accepted action broadcasts a fresh state snapshot to all clients
// - In-browser QR button to share the game URL, backed by go-qrcode

package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients. Type carries the action name; the remaining
// fields are a union, validated per action before they reach the game.
type ClientMessage struct {
	Type          string   `json:"type"`
	Name          string   `json:"name,omitempty"`          // selectPlayer
	Secret        string   `json:"secret,omitempty"`        // becomeJudge
	Text          string   `json:"text,omitempty"`          // submitQuestion / submitAnswer
	QuestionID    *int     `json:"questionId,omitempty"`    // selectQuestion / resetQuestion / deleteQuestion
	CorrectGroups []string `json:"correctGroups,omitempty"` // judgeAnswers
}

// SessionInfoMessage is sent once on connect so the client knows which key
// in the players map is "self".
type SessionInfoMessage struct {
	Type         string `json:"type"` // "session_info"
	ConnectionID string `json:"connectionId"`
}

// JudgeAuthResultMessage is the direct reply to a becomeJudge attempt.
type JudgeAuthResultMessage struct {
	Type    string `json:"type"` // "judgeAuthResult"
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GameStateMessage is the client-safe projection of the game, broadcast on
// connect and after every accepted mutation. The judge secret and anything
// else connection-private never appears here.
type GameStateMessage struct {
	Type              string              `json:"type"` // "gameState"
	Players           map[string]string   `json:"players"`
	Judge             string              `json:"judge,omitempty"`
	CurrentQuestion   *Question           `json:"currentQuestion"`
	Answers           map[string]string   `json:"answers"`
	GroupedAnswers    map[string][]string `json:"groupedAnswers"`
	Scores            map[string]int      `json:"scores"`
	Phase             Phase               `json:"phase"`
	Questions         []Question          `json:"questions"`
	QuestionsAnswered int                 `json:"questionsAnswered"`
	AvailablePlayers  []string            `json:"availablePlayers"`
}

// stateMessage deep-copies everything it exposes; the write pumps marshal
// outside the hub goroutine, so shared references would race.
func (g *Game) stateMessage() GameStateMessage {
	players := make(map[string]string, len(g.players))
	for id, name := range g.players {
		players[id] = name
	}

	answers := answersByPlayer(g.answers)

	grouped := make(map[string][]string, len(g.groupedAnswers))
	for key, names := range g.groupedAnswers {
		grouped[key] = append([]string(nil), names...)
	}

	scores := make(map[string]int, len(g.scores))
	for name, score := range g.scores {
		scores[name] = score
	}

	questions := append([]Question(nil), g.questions...)

	var current *Question
	if g.currentQuestion != nil {
		q := *g.currentQuestion
		current = &q
	}

	return GameStateMessage{
		Type:              "gameState",
		Players:           players,
		Judge:             g.judge,
		CurrentQuestion:   current,
		Answers:           answers,
		GroupedAnswers:    grouped,
		Scores:            scores,
		Phase:             g.phase,
		Questions:         questions,
		QuestionsAnswered: g.questionsAnswered,
		AvailablePlayers:  g.availableNames(),
	}
}

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
}

type actionRequest struct {
	client *Client
	msg    ClientMessage
}

// Hub owns the game. Registration, disconnects, and every inbound action
// funnel through one goroutine, so actions run to completion one at a time
// and the game needs no locks.
type Hub struct {
	cfg  *Config
	game *Game

	clients  map[*Client]bool
	register chan *Client
	unreg    chan *Client
	actions  chan actionRequest
}

func newHub(cfg *Config, game *Game) *Hub {
	return &Hub{
		cfg:      cfg,
		game:     game,
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		actions:  make(chan actionRequest),
	}
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true

			// session_info first, so the client can find itself in the
			// snapshot that follows.
			h.send(c, SessionInfoMessage{
				Type:         "session_info",
				ConnectionID: c.id,
			})
			h.send(c, h.game.stateMessage())

			logf(h.cfg, "GAME: Client %s connected", c.id)

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

			if h.game.disconnect(c.id) {
				h.broadcast(h.game.stateMessage())
			}

			logf(h.cfg, "GAME: Client %s disconnected", c.id)

		case ar := <-h.actions:
			h.handleAction(ar.client, ar.msg)
		}
	}
}

// handleAction applies one validated client action to the game. Rejected
// actions are silent no-ops; judge authentication is the one action with a
// direct reply.
func (h *Hub) handleAction(c *Client, msg ClientMessage) {
	changed := false

	switch msg.Type {
	case actionSelectPlayer:
		changed = h.game.claimName(c.id, msg.Name)
		if changed {
			logf(h.cfg, "GAME: Player %q joined", msg.Name)
		}

	case actionBecomeJudge:
		ok, reason := h.game.becomeJudge(c.id, msg.Secret)
		h.send(c, JudgeAuthResultMessage{
			Type:    "judgeAuthResult",
			Success: ok,
			Message: reason,
		})
		if ok {
			logf(h.cfg, "GAME: Client %s became judge", c.id)
		}
		changed = ok

	case actionSubmitQuestion:
		changed = h.game.submitQuestion(c.id, msg.Text)

	case actionSelectQuestion:
		if msg.QuestionID != nil {
			changed = h.game.selectQuestion(c.id, *msg.QuestionID)
		}

	case actionSubmitAnswer:
		changed = h.game.submitAnswer(c.id, msg.Text)

	case actionForceJudging:
		changed = h.game.forceJudging(c.id)

	case actionJudgeAnswers:
		changed = h.game.judgeAnswers(c.id, msg.CorrectGroups)

	case actionReturnToLobby:
		changed = h.game.returnToLobby(c.id)

	case actionResetScores:
		changed = h.game.resetScores(c.id)

	case actionFullReset:
		changed = h.game.fullReset(c.id)

	case actionResetQuestion:
		if msg.QuestionID != nil {
			changed = h.game.resetQuestion(c.id, *msg.QuestionID)
		}

	case actionDeleteQuestion:
		if msg.QuestionID != nil {
			changed = h.game.deleteQuestion(c.id, *msg.QuestionID)
		}

	default:
		// ignore unknown types
	}

	if changed {
		h.broadcast(h.game.stateMessage())
	}
}

// send delivers to a single client, dropping the client if its outbox is
// full. Clients already dropped are skipped; their send channel is closed.
func (h *Hub) send(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg any) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			delete(h.clients, client)
			close(client.send)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.actions <- actionRequest{client: c, msg: msg}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func serveWS(h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 8),
			id:   uuid.NewString(),
		}

		h.register <- client

		go client.writePump()
		client.readPump(h)
	}
}

// qrHandler generates a PNG QR code for the game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /trivia/qr; strip the trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func serveTriviaPage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write([]byte(newPage("Triviabox", "Connect a trivia client to ./trivia/ws")))
	}
}

// registerTriviaGame sets up routes so that:
//   - $path        → HTML landing page
//   - $path/ws     → WebSocket for the shared game
//   - $path/qr     → PNG QR code for the game URL
func registerTriviaGame(cfg *Config, path string, mux *httprouter.Router, store Store) *Hub {
	game := newGame(cfg, store)
	hub := newHub(cfg, game)
	go hub.run()

	mux.GET(cfg.prefix+path, serveTriviaPage(cfg))

	mux.GET(cfg.prefix+path+"/ws", serveWS(hub))

	mux.GET(cfg.prefix+path+"/qr", qrHandler)

	return hub
}
