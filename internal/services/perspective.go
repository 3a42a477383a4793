package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/perspective-backend/internal/data/repos"
	types "github.com/yungbote/perspective-backend/internal/domain"
	"github.com/yungbote/perspective-backend/internal/domain/perspective"
	"github.com/yungbote/perspective-backend/internal/modules/analyzer"
	"github.com/yungbote/perspective-backend/internal/pkg/dbctx"
	"github.com/yungbote/perspective-backend/internal/platform/apierr"
	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const (
	quizSize              = 4
	cardCount             = 3
	SessionCompletePoints = 50
	maxUserInput          = 5000
	saveBasePoints        = 25
	saveBonusCap          = 25
	journalTitlePrefixLen = 50
	perspectiveEmoji      = "🧠"
	chatHistoryTurns      = 20
	maxChatMessage        = 2000
)

var perspectiveTags = []string{"perspective", "growth", "mindset", "reflection"}

// SaveResult describes a session saved into the journal.
type SaveResult struct {
	JournalID    uuid.UUID           `json:"journalId"`
	PointsEarned int                 `json:"pointsEarned"`
	Entry        *types.JournalEntry `json:"entry"`
}

// ChatReply is the coach's answer to one chat message and the id of the stored exchange.
type ChatReply struct {
	ConversationID uuid.UUID `json:"conversationId"`
	Message        string    `json:"message"`
}

type PerspectiveService interface {
	CreateSession(ctx context.Context, userInput string) (*types.PerspectiveSession, error)
	GenerateQuiz(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error)
	// SubmitAnswers stores answers keyed by quiz id. Unknown quiz ids are rejected.
	SubmitAnswers(ctx context.Context, sessionID uuid.UUID, answers map[uuid.UUID]string) (int, error)
	GenerateCards(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error)
	SaveToJournal(ctx context.Context, sessionID uuid.UUID) (*SaveResult, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error)
	History(ctx context.Context, limit int) ([]*repos.SessionWithCardCount, error)
	// Chat answers message in the context of the session's situation and cards. When
	// history is empty the session's latest stored exchanges stand in for it.
	Chat(ctx context.Context, sessionID uuid.UUID, message string, history []analyzer.ChatTurn) (*ChatReply, error)
}

type perspectiveService struct {
	db         *gorm.DB
	log        *logger.Logger
	sessions   repos.SessionRepo
	journals   repos.JournalRepo
	users      repos.UserRepo
	analyzer   analyzer.Analyzer
	milestones MilestoneChecker
	now        Clock

	// afterJournalCreate runs inside the save transaction once the journal row exists.
	afterJournalCreate func(dbc dbctx.Context, entry *types.JournalEntry) error
}

func NewPerspectiveService(
	db *gorm.DB,
	log *logger.Logger,
	sessions repos.SessionRepo,
	journals repos.JournalRepo,
	users repos.UserRepo,
	an analyzer.Analyzer,
	milestones MilestoneChecker,
	clock Clock,
) PerspectiveService {
	if clock == nil {
		clock = ClockIn(time.UTC)
	}
	return &perspectiveService{
		db:         db,
		log:        log.With("service", "PerspectiveService"),
		sessions:   sessions,
		journals:   journals,
		users:      users,
		analyzer:   an,
		milestones: milestonesOrNop(milestones),
		now:        clock,
	}
}

func (ps *perspectiveService) CreateSession(ctx context.Context, userInput string) (*types.PerspectiveSession, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, apierr.Validation("userInput is required")
	}
	if utf8.RuneCountInString(userInput) > maxUserInput {
		return nil, apierr.Validation("userInput must be at most %d characters", maxUserInput)
	}
	now := ps.now()
	s := &types.PerspectiveSession{
		UserID:    userID,
		UserInput: userInput,
		Status:    types.SessionStatusInput,
		Date:      now,
	}
	if err := ps.sessions.Create(dbctx.Context{Ctx: ctx}, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	ps.milestones.CheckQuietly(ctx, userID, now)
	return s, nil
}

func (ps *perspectiveService) load(ctx context.Context, sessionID uuid.UUID, withChildren bool) (uuid.UUID, *types.PerspectiveSession, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	s, err := ps.sessions.GetByIDForUser(dbctx.Context{Ctx: ctx}, userID, sessionID, withChildren)
	if err != nil {
		return userID, nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return userID, nil, apierr.NotFound("session")
	}
	return userID, s, nil
}

func advance(s *types.PerspectiveSession, to string) error {
	if s.Status == types.SessionStatusCompleted {
		return apierr.Validation("session is already completed")
	}
	if !perspective.CanAdvance(s.Status, to) {
		return apierr.Validation("session cannot move from %s to %s", s.Status, to)
	}
	return nil
}

func (ps *perspectiveService) GenerateQuiz(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error) {
	_, s, err := ps.load(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	if err := advance(s, types.SessionStatusUnderstanding); err != nil {
		return nil, err
	}

	questions, err := ps.analyzer.GenerateQuiz(ctx, s.UserInput)
	if err != nil {
		return nil, fmt.Errorf("generate quiz: %w", err)
	}
	if len(questions) == 0 {
		return nil, apierr.Internal(fmt.Errorf("generate quiz: no questions returned"))
	}
	if len(questions) > quizSize {
		questions = questions[:quizSize]
	}
	rows := make([]*types.PerspectiveQuiz, 0, len(questions))
	for i, q := range questions {
		rows = append(rows, &types.PerspectiveQuiz{
			Position:     i,
			QuestionText: q.Question,
			QuestionType: q.Type,
			Options:      datatypes.JSONSlice[string](q.Options),
			ScaleMin:     q.ScaleMin,
			ScaleMax:     q.ScaleMax,
			Placeholder:  q.Placeholder,
		})
	}

	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ps.sessions.ReplaceQuizzes(dbc, s.ID, rows); err != nil {
			return fmt.Errorf("store quiz: %w", err)
		}
		return ps.sessions.UpdateStatus(dbc, s.ID, types.SessionStatusUnderstanding, nil)
	}); err != nil {
		return nil, err
	}
	return ps.Get(ctx, s.ID)
}

func (ps *perspectiveService) SubmitAnswers(ctx context.Context, sessionID uuid.UUID, answers map[uuid.UUID]string) (int, error) {
	_, s, err := ps.load(ctx, sessionID, false)
	if err != nil {
		return 0, err
	}
	if s.Status == types.SessionStatusCompleted {
		return 0, apierr.Validation("session is already completed")
	}
	if len(answers) == 0 {
		return 0, apierr.Validation("answers are required")
	}

	stored := 0
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		for quizID, answer := range answers {
			ok, err := ps.sessions.SetAnswer(dbc, s.ID, quizID, strings.TrimSpace(answer))
			if err != nil {
				return fmt.Errorf("store answer: %w", err)
			}
			if !ok {
				return apierr.Validation("quiz %s does not belong to this session", quizID)
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}

func (ps *perspectiveService) GenerateCards(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error) {
	userID, s, err := ps.load(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if err := advance(s, types.SessionStatusCompleted); err != nil {
		return nil, err
	}

	answers := make([]analyzer.QuizAnswer, 0, len(s.Quizzes))
	for _, q := range s.Quizzes {
		if q.AnswerText == nil {
			continue
		}
		answers = append(answers, analyzer.QuizAnswer{Question: q.QuestionText, Answer: *q.AnswerText})
	}
	generated, err := ps.analyzer.GenerateCards(ctx, s.UserInput, answers)
	if err != nil {
		return nil, fmt.Errorf("generate cards: %w", err)
	}
	if len(generated) == 0 {
		return nil, apierr.Internal(fmt.Errorf("generate cards: no cards returned"))
	}
	if len(generated) > cardCount {
		generated = generated[:cardCount]
	}
	cards := make([]*types.PerspectiveCard, 0, len(generated))
	for i, c := range generated {
		cardType := c.CardType
		if !perspective.ValidCardType(cardType) {
			cardType = perspective.CardInsight
		}
		cards = append(cards, &types.PerspectiveCard{
			Position: i,
			Title:    c.Title,
			Content:  c.Content,
			CardType: cardType,
		})
	}

	now := ps.now()
	if err := ps.complete(ctx, userID, s.ID, cards, now); err != nil {
		return nil, err
	}

	ps.milestones.CheckQuietly(ctx, userID, now)
	return ps.Get(ctx, s.ID)
}

// complete stores the cards and credits the user in one transaction. Only the request
// that flips the session to completed gets through; the others see already_completed.
func (ps *perspectiveService) complete(ctx context.Context, userID, sessionID uuid.UUID, cards []*types.PerspectiveCard, now time.Time) error {
	return ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		ok, err := ps.sessions.MarkCompleted(dbc, sessionID, now.UTC())
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		if !ok {
			return apierr.Conflict("already_completed", "session is already completed")
		}
		if _, err := ps.sessions.CreateCards(dbc, sessionID, cards); err != nil {
			return fmt.Errorf("store cards: %w", err)
		}
		if err := ps.users.IncrementSessions(dbc, userID, 1); err != nil {
			return fmt.Errorf("count session: %w", err)
		}
		return ps.users.IncrementPoints(dbc, userID, SessionCompletePoints)
	})
}

// SavePoints is 25 plus one point per twenty characters of content, the bonus capped at 25.
func SavePoints(content string) int {
	bonus := utf8.RuneCountInString(content) / 20
	if bonus > saveBonusCap {
		bonus = saveBonusCap
	}
	return saveBasePoints + bonus
}

// JournalContent renders a session and its cards as journal markdown.
func JournalContent(userInput string, cards []types.PerspectiveCard) string {
	var b strings.Builder
	b.WriteString("**Original Situation:**\n")
	b.WriteString(userInput)
	b.WriteString("\n\n**Perspective Insights:**\n")
	for _, c := range cards {
		b.WriteString("\n### ")
		b.WriteString(c.Title)
		b.WriteString("\n")
		b.WriteString(c.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func journalTitle(userInput string) string {
	r := []rune(strings.Join(strings.Fields(userInput), " "))
	if len(r) > journalTitlePrefixLen {
		return "Perspective: " + string(r[:journalTitlePrefixLen]) + "..."
	}
	return "Perspective: " + string(r)
}

func (ps *perspectiveService) SaveToJournal(ctx context.Context, sessionID uuid.UUID) (*SaveResult, error) {
	userID, s, err := ps.load(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if s.SavedToJournal {
		return nil, apierr.Conflict("already_saved", "session has already been saved to the journal")
	}
	if len(s.Cards) == 0 {
		return nil, apierr.Validation("session has no perspective cards to save")
	}

	content := JournalContent(s.UserInput, s.Cards)
	now := ps.now()
	points := SavePoints(content)
	sid := s.ID
	entry := &types.JournalEntry{
		UserID:       userID,
		SessionID:    &sid,
		Title:        journalTitle(s.UserInput),
		Content:      content,
		MoodEmoji:    perspectiveEmoji,
		Summary:      s.Cards[0].Title,
		Tags:         datatypes.JSONSlice[string](append([]string(nil), perspectiveTags...)),
		PointsEarned: points,
		Date:         now,
	}

	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ps.journals.Create(dbc, []*types.JournalEntry{entry}); err != nil {
			return fmt.Errorf("create journal: %w", err)
		}
		if ps.afterJournalCreate != nil {
			if err := ps.afterJournalCreate(dbc, entry); err != nil {
				return err
			}
		}
		ok, err := ps.sessions.MarkSavedToJournal(dbc, s.ID, entry.ID)
		if err != nil {
			return fmt.Errorf("mark session saved: %w", err)
		}
		if !ok {
			return apierr.Conflict("already_saved", "session has already been saved to the journal")
		}
		return ps.users.IncrementPoints(dbc, userID, points)
	})
	if err != nil {
		ps.log.Warn("Save to journal rolled back", "session_id", s.ID, "user_id", userID, "error", err)
		return nil, err
	}

	ps.milestones.CheckQuietly(ctx, userID, now)
	return &SaveResult{JournalID: entry.ID, PointsEarned: points, Entry: entry}, nil
}

func (ps *perspectiveService) Get(ctx context.Context, sessionID uuid.UUID) (*types.PerspectiveSession, error) {
	_, s, err := ps.load(ctx, sessionID, true)
	return s, err
}

func (ps *perspectiveService) History(ctx context.Context, limit int) ([]*repos.SessionWithCardCount, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return ps.sessions.ListRecent(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (ps *perspectiveService) Chat(ctx context.Context, sessionID uuid.UUID, message string, history []analyzer.ChatTurn) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apierr.Validation("message is required")
	}
	if utf8.RuneCountInString(message) > maxChatMessage {
		return nil, apierr.Validation("message must be at most %d characters", maxChatMessage)
	}
	userID, s, err := ps.load(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}

	turns := chatTurns(history)
	if len(turns) == 0 {
		stored, err := ps.sessions.ListConversation(dbctx.Context{Ctx: ctx}, userID, s.ID, chatHistoryTurns)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		for _, c := range stored {
			turns = append(turns,
				analyzer.ChatTurn{Role: analyzer.ChatRoleUser, Content: c.Message},
				analyzer.ChatTurn{Role: analyzer.ChatRoleAssistant, Content: c.Response},
			)
		}
	}
	cards := make([]analyzer.Card, 0, len(s.Cards))
	for _, c := range s.Cards {
		cards = append(cards, analyzer.Card{Title: c.Title, Content: c.Content, CardType: c.CardType})
	}

	reply, err := ps.analyzer.Chat(ctx, analyzer.ChatInput{
		Situation: s.UserInput,
		Cards:     cards,
		History:   turns,
		Message:   message,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	turn := &types.Conversation{
		UserID:    userID,
		SessionID: s.ID,
		Message:   message,
		Response:  reply,
		CreatedAt: ps.now().UTC(),
	}
	if err := ps.sessions.CreateConversation(dbctx.Context{Ctx: ctx}, turn); err != nil {
		return nil, fmt.Errorf("store conversation: %w", err)
	}
	return &ChatReply{ConversationID: turn.ID, Message: reply}, nil
}

// chatTurns keeps user and assistant turns with content. "model" is read as assistant.
func chatTurns(in []analyzer.ChatTurn) []analyzer.ChatTurn {
	out := make([]analyzer.ChatTurn, 0, len(in))
	for _, t := range in {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(t.Role)) {
		case analyzer.ChatRoleUser:
			out = append(out, analyzer.ChatTurn{Role: analyzer.ChatRoleUser, Content: content})
		case analyzer.ChatRoleAssistant, "model":
			out = append(out, analyzer.ChatTurn{Role: analyzer.ChatRoleAssistant, Content: content})
		}
	}
	return out
}
