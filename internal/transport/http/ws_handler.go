package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"time"

	"certquiz-service/internal/app"
	"certquiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler exposes the session flow over a websocket. Each connection gets
// its own orchestrator, playing the role the browser page does in the
// original application; the persisted slot is shared through the store.
type WSHandler struct {
	banks    app.BankRepository
	store    *app.SessionStore
	upgrader websocket.Upgrader
	newRand  func() *rand.Rand
}

func NewWSHandler(banks app.BankRepository, store *app.SessionStore) *WSHandler {
	return &WSHandler{
		banks: banks,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type categoryInfo struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type sessionSummary struct {
	Progress    int      `json:"progress"`
	Total       int      `json:"total"`
	Categories  []string `json:"categories"`
	LastUpdated string   `json:"lastUpdated"`
}

type readyPayload struct {
	Categories     []categoryInfo  `json:"categories"`
	TotalQuestions int             `json:"totalQuestions"`
	Session        *sessionSummary `json:"session,omitempty"`
}

type questionPayload struct {
	Index      int             `json:"index"`
	Total      int             `json:"total"`
	Category   string          `json:"category"`
	Content    string          `json:"content"`
	IsMultiple bool            `json:"isMultiple"`
	Choices    []domain.Choice `json:"choices"`
}

type selectionPayload struct {
	Selected []string `json:"selected"`
}

type answerResultPayload struct {
	Correct       bool     `json:"correct"`
	CorrectLabels []string `json:"correctLabels"`
	HelpURL       string   `json:"helpUrl,omitempty"`
}

type startPayload struct {
	Categories       []string `json:"categories"`
	QuestionCount    int      `json:"questionCount"`
	ShuffleQuestions bool     `json:"shuffleQuestions"`
	ShuffleChoices   bool     `json:"shuffleChoices"`
}

type selectPayload struct {
	Label string `json:"label"`
}

// ServeWS upgrades the request and runs the quiz conversation. All messages
// on one connection are handled sequentially, matching the engine's
// single-threaded model.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	rnd := h.newRand()
	orch := app.NewOrchestrator(h.banks, h.store, rnd)

	if err := h.sendReady(ctx, conn, orch); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid start payload")
				continue
			}
			err := orch.Start(ctx, domain.QuizConfig{
				Categories:       payload.Categories,
				QuestionCount:    payload.QuestionCount,
				ShuffleQuestions: payload.ShuffleQuestions,
				ShuffleChoices:   payload.ShuffleChoices,
			})
			if errors.Is(err, domain.ErrNoQuestions) {
				_ = conn.WriteJSON(outboundMessage[struct{}]{Type: "empty"})
				continue
			}
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			h.sendQuestion(conn, orch, rnd)

		case "resume":
			err := orch.Resume(ctx)
			if errors.Is(err, domain.ErrNoQuestions) {
				_ = conn.WriteJSON(outboundMessage[struct{}]{Type: "empty"})
				continue
			}
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			h.sendQuestion(conn, orch, rnd)
			// A session saved mid-answer resumes on the answered side of the
			// state machine; replay the verdict so the client can render it.
			if engine := orch.Engine(); engine != nil && engine.State() == app.StateAnswered {
				h.sendAnswerResult(conn, engine)
			}

		case "discard":
			orch.Discard(ctx)
			if err := h.sendReady(ctx, conn, orch); err != nil {
				return
			}

		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				writeError(conn, "invalid select payload")
				continue
			}
			if err := orch.Select(payload.Label); err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[selectionPayload]{
				Type:    "selection",
				Payload: selectionPayload{Selected: orch.Engine().Selection()},
			})

		case "confirm":
			if _, err := orch.Confirm(ctx); err != nil {
				writeError(conn, err.Error())
				continue
			}
			h.sendAnswerResult(conn, orch.Engine())

		case "advance":
			result, err := orch.Advance(ctx)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			if result == nil {
				h.sendQuestion(conn, orch, rnd)
				continue
			}
			report, err := orch.Report(ctx)
			if err != nil {
				writeError(conn, err.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[app.Report]{Type: "result", Payload: report})

		case "stats":
			engine := orch.Engine()
			if engine == nil {
				writeError(conn, domain.ErrNoSession.Error())
				continue
			}
			_ = conn.WriteJSON(outboundMessage[app.SessionStats]{Type: "stats", Payload: engine.Stats()})

		case "history":
			_ = conn.WriteJSON(outboundMessage[[]domain.HistoryEntry]{Type: "history", Payload: orch.History(ctx)})

		default:
			writeError(conn, "unknown message type: "+inbound.Type)
		}
	}
}

func (h *WSHandler) sendReady(ctx context.Context, conn *websocket.Conn, orch *app.Orchestrator) error {
	bank, err := h.banks.GetBank(ctx)
	if err != nil {
		writeError(conn, err.Error())
		return err
	}

	counts := bank.CountByCategory()
	payload := readyPayload{TotalQuestions: bank.Len()}
	for _, category := range bank.Categories() {
		payload.Categories = append(payload.Categories, categoryInfo{Category: category, Count: counts[category]})
	}
	if session, ok := orch.ResumableSession(ctx); ok {
		payload.Session = &sessionSummary{
			Progress:    session.CurrentIndex + 1,
			Total:       len(session.QuestionIDs),
			Categories:  session.Config.Categories,
			LastUpdated: session.LastUpdated.Format(time.RFC3339),
		}
	}
	return conn.WriteJSON(outboundMessage[readyPayload]{Type: "ready", Payload: payload})
}

func (h *WSHandler) sendQuestion(conn *websocket.Conn, orch *app.Orchestrator, rnd *rand.Rand) {
	engine := orch.Engine()
	question, ok := engine.Current()
	if !ok {
		return
	}
	index, total := engine.Progress()
	_ = conn.WriteJSON(outboundMessage[questionPayload]{
		Type: "question",
		Payload: questionPayload{
			Index:      index,
			Total:      total,
			Category:   question.Category,
			Content:    question.Content,
			IsMultiple: question.IsMultiple,
			Choices:    engine.DisplayChoices(rnd),
		},
	})
}

func (h *WSHandler) sendAnswerResult(conn *websocket.Conn, engine *app.Engine) {
	question, ok := engine.Current()
	if !ok {
		return
	}
	index, _ := engine.Progress()
	record := engine.Session().Answers[index]
	helpURL := ""
	if len(question.Choices) > 0 {
		helpURL = question.Choices[0].HelpURL
	}
	_ = conn.WriteJSON(outboundMessage[answerResultPayload]{
		Type: "answerResult",
		Payload: answerResultPayload{
			Correct:       record.IsCorrect,
			CorrectLabels: question.CorrectLabels(),
			HelpURL:       helpURL,
		},
	})
}

func writeError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}
