package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/perspective-backend/internal/http/response"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/services"
)

type PerspectiveHandler struct {
	perspective services.PerspectiveService
}

func NewPerspectiveHandler(perspective services.PerspectiveService) *PerspectiveHandler {
	return &PerspectiveHandler{perspective: perspective}
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *PerspectiveHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	var req sessionRequest
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return uuid.Nil, false
	}
	id, err := parseUUID("sessionId", req.SessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

// POST /api/perspective/create-session
// body: { "userInput": "..." }
func (h *PerspectiveHandler) CreateSession(c *gin.Context) {
	var req struct {
		UserInput string `json:"userInput"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	s, err := h.perspective.CreateSession(c.Request.Context(), req.UserInput)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "sessionId": s.ID, "message": "Session created successfully"})
}

// POST /api/perspective/generate-quiz
func (h *PerspectiveHandler) GenerateQuiz(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	s, err := h.perspective.GenerateQuiz(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "questions": s.Quizzes, "message": "Quiz questions generated successfully"})
}

// POST /api/perspective/submit-answers
// body: { "sessionId": "...", "answers": { "<quizId>": "text" | 4 } }
func (h *PerspectiveHandler) SubmitAnswers(c *gin.Context) {
	var req struct {
		SessionID string                     `json:"sessionId"`
		Answers   map[string]json.RawMessage `json:"answers"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	id, err := parseUUID("sessionId", req.SessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	answers := make(map[uuid.UUID]string, len(req.Answers))
	for rawID, rawVal := range req.Answers {
		quizID, err := uuid.Parse(rawID)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid quiz id %q", rawID))
			return
		}
		val, err := answerText(rawVal)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		answers[quizID] = val
	}
	if _, err := h.perspective.SubmitAnswers(c.Request.Context(), id, answers); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": "Answers submitted successfully"})
}

// answerText renders a JSON answer as stored text. Numbers keep their decimal form.
func answerText(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", apierr.Validation("invalid answer value")
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	default:
		return string(raw), nil
	}
}

// POST /api/perspective/generate-cards
func (h *PerspectiveHandler) GenerateCards(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	s, err := h.perspective.GenerateCards(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":      true,
		"cards":        s.Cards,
		"pointsEarned": services.SessionCompletePoints,
		"message":      "Perspective cards generated successfully",
	})
}

// POST /api/perspective/save-to-journal
func (h *PerspectiveHandler) SaveToJournal(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	res, err := h.perspective.SaveToJournal(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":      true,
		"journalId":    res.JournalID,
		"pointsEarned": res.PointsEarned,
		"message":      "Perspective session saved to journal successfully",
	})
}

// GET /api/perspective/session/:id
func (h *PerspectiveHandler) GetSession(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	s, err := h.perspective.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "session": s})
}

// GET /api/perspective/history?limit=10
func (h *PerspectiveHandler) History(c *gin.Context) {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	sessions, err := h.perspective.History(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "sessions": sessions})
}

// chatHistoryItem accepts { role, content } or a { user, assistant } pair.
type chatHistoryItem struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// historyTurns flattens request history. A paired user turn repeating the current
// message is dropped.
func historyTurns(items []chatHistoryItem, message string) []analyzer.ChatTurn {
	out := make([]analyzer.ChatTurn, 0, len(items))
	for _, h := range items {
		if h.Role != "" && h.Content != "" {
			out = append(out, analyzer.ChatTurn{Role: h.Role, Content: h.Content})
			continue
		}
		if h.User != "" && h.User != message {
			out = append(out, analyzer.ChatTurn{Role: analyzer.ChatRoleUser, Content: h.User})
		}
		if h.Assistant != "" {
			out = append(out, analyzer.ChatTurn{Role: analyzer.ChatRoleAssistant, Content: h.Assistant})
		}
	}
	return out
}

// POST /api/perspective/chat
// body: { "sessionId": "...", "message": "...", "history": [...] }
func (h *PerspectiveHandler) Chat(c *gin.Context) {
	var req struct {
		SessionID string            `json:"sessionId"`
		Message   string            `json:"message"`
		History   []chatHistoryItem `json:"history"`
	}
	if err := bindJSON(c, &req); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if req.SessionID == "" || req.Message == "" {
		response.RespondAPIError(c, apierr.Validation("sessionId and message are required"))
		return
	}
	id, err := parseUUID("sessionId", req.SessionID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	reply, err := h.perspective.Chat(c.Request.Context(), id, req.Message, historyTurns(req.History, req.Message))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "message": reply.Message, "conversationId": reply.ConversationID})
}
