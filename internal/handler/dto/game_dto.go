package dto

import (
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// QuestionResponse is a question as shown to a player. Answer and the answer
// history are only filled for closed rounds.
type QuestionResponse struct {
	Round         int                          `json:"round"`
	Question      string                       `json:"question"`
	Choices       []string                     `json:"choices"`
	Topic         string                       `json:"topic,omitempty"`
	Answer        string                       `json:"answer,omitempty"`
	PlayerAnswers map[uint]entity.PlayerAnswer `json:"player_answers,omitempty"`
	ClosedAt      *time.Time                   `json:"closed_at,omitempty"`
}

// PlayerResponse is one participant. CurrentAnswer is only shown to its owner.
type PlayerResponse struct {
	UserID        uint       `json:"user_id"`
	Score         int        `json:"score"`
	IsReady       bool       `json:"is_ready"`
	HasAnswered   bool       `json:"has_answered"`
	CurrentAnswer *string    `json:"current_answer,omitempty"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
	HasForfeited  bool       `json:"has_forfeited"`
	WantsRematch  bool       `json:"wants_rematch"`
	IsCreator     bool       `json:"is_creator"`
}

// GameResponse is the full game snapshot returned to a participant.
type GameResponse struct {
	Code              string             `json:"code"`
	CreatorID         uint               `json:"creator_id"`
	Config            entity.GameConfig  `json:"config"`
	Status            string             `json:"status"`
	CurrentRound      int                `json:"current_round"`
	NumRounds         int                `json:"num_rounds"`
	CurrentQuestion   *QuestionResponse  `json:"current_question"`
	QuestionStartTime *time.Time         `json:"question_start_time,omitempty"`
	RoundStartTime    *time.Time         `json:"round_start_time,omitempty"`
	QuestionDeadline  *time.Time         `json:"question_deadline,omitempty"`
	Rounds            []QuestionResponse `json:"rounds"`
	Players           []PlayerResponse   `json:"players"`
	WinnerID          *uint              `json:"winner_id"`
	IsTie             bool               `json:"is_tie"`
	RematchCode       *string            `json:"rematch_code,omitempty"`
	SourceGameCode    *string            `json:"source_game_code,omitempty"`
	Version           int                `json:"version"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	FinishedAt        *time.Time         `json:"finished_at,omitempty"`
}

// NewGameResponse builds the snapshot of g as seen by viewerID.
func NewGameResponse(g *entity.Game, viewerID uint) *GameResponse {
	resp := &GameResponse{
		Code:              g.Code,
		CreatorID:         g.CreatorID,
		Config:            g.Config(),
		Status:            g.Status,
		CurrentRound:      g.CurrentRound,
		NumRounds:         g.NumRounds,
		QuestionStartTime: g.QuestionStartTime,
		RoundStartTime:    g.RoundStartTime,
		Rounds:            make([]QuestionResponse, 0, len(g.GameQuestions)),
		Players:           make([]PlayerResponse, 0, len(g.Players)),
		WinnerID:          g.WinnerID,
		IsTie:             g.IsTie,
		RematchCode:       g.RematchCode,
		SourceGameCode:    g.SourceGameCode,
		Version:           g.Version,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
		FinishedAt:        g.FinishedAt,
	}

	if g.CurrentQuestion != nil && g.IsActive() {
		resp.CurrentQuestion = &QuestionResponse{
			Round:    g.CurrentRound,
			Question: g.CurrentQuestion.Text,
			Choices:  g.CurrentQuestion.Choices,
			Topic:    g.CurrentQuestion.Topic,
		}
		if deadline, ok := g.QuestionDeadline(); ok {
			resp.QuestionDeadline = &deadline
		}
	}

	for i := range g.GameQuestions {
		q := &g.GameQuestions[i]
		if !q.IsClosed() && !g.IsTerminal() {
			continue
		}
		resp.Rounds = append(resp.Rounds, QuestionResponse{
			Round:         i + 1,
			Question:      q.Text,
			Choices:       q.Choices,
			Topic:         q.Topic,
			Answer:        q.Answer,
			PlayerAnswers: q.PlayerAnswers,
			ClosedAt:      q.ClosedAt,
		})
	}

	for i := range g.Players {
		resp.Players = append(resp.Players, NewPlayerResponse(g, &g.Players[i], viewerID))
	}
	return resp
}

// NewPlayerResponse converts p; the open answer is only visible to p itself.
func NewPlayerResponse(g *entity.Game, p *entity.Player, viewerID uint) PlayerResponse {
	resp := PlayerResponse{
		UserID:       p.UserID,
		Score:        p.Score,
		IsReady:      p.IsReady,
		HasAnswered:  p.HasAnswered(),
		HasForfeited: p.HasForfeited,
		WantsRematch: p.WantsRematch,
		IsCreator:    g.IsCreator(p.UserID),
	}
	if p.UserID == viewerID {
		resp.CurrentAnswer = p.CurrentAnswer
		resp.AnsweredAt = p.AnsweredAt
	}
	return resp
}

// JoinGameResponse is returned by POST /games/:code/join.
type JoinGameResponse struct {
	Game          *GameResponse `json:"game"`
	AlreadyJoined bool          `json:"already_joined"`
}

// SubmitAnswerResponse is returned by POST /games/:code/answer.
type SubmitAnswerResponse struct {
	IsCorrect bool          `json:"is_correct"`
	Awarded   bool          `json:"awarded"`
	Score     int           `json:"score"`
	Game      *GameResponse `json:"game"`
}

// NewSubmitAnswerResponse builds the answer outcome for viewerID.
func NewSubmitAnswerResponse(g *entity.Game, isCorrect, awarded bool, score int, viewerID uint) *SubmitAnswerResponse {
	return &SubmitAnswerResponse{
		IsCorrect: isCorrect,
		Awarded:   awarded,
		Score:     score,
		Game:      NewGameResponse(g, viewerID),
	}
}

// NextRoundResponse describes either the newly opened round or the final result.
type NextRoundResponse struct {
	Advanced        bool              `json:"advanced"`
	GameFinished    bool              `json:"game_finished"`
	CurrentRound    int               `json:"current_round"`
	CurrentQuestion *QuestionResponse `json:"current_question,omitempty"`
	WinnerID        *uint             `json:"winner_id,omitempty"`
	IsTie           bool              `json:"is_tie"`
	Players         []PlayerResponse  `json:"players,omitempty"`
	Game            *GameResponse     `json:"game"`
}

// NewNextRoundResponse describes g after a next-round call. advanced is false
// when the call found the round already closed.
func NewNextRoundResponse(g *entity.Game, advanced bool, viewerID uint) *NextRoundResponse {
	game := NewGameResponse(g, viewerID)
	resp := &NextRoundResponse{
		Advanced:     advanced,
		GameFinished: g.IsTerminal(),
		CurrentRound: game.CurrentRound,
		Game:         game,
	}
	if g.IsTerminal() {
		resp.WinnerID = g.WinnerID
		resp.IsTie = g.IsTie
		resp.Players = game.Players
	} else {
		resp.CurrentQuestion = game.CurrentQuestion
	}
	return resp
}

// ForfeitResponse is returned by POST /games/:code/forfeit.
type ForfeitResponse struct {
	WinnerID *uint         `json:"winner_id"`
	Game     *GameResponse `json:"game"`
}

// RematchRequestResponse is returned by POST /games/:code/rematch.
type RematchRequestResponse struct {
	RematchReadyCount int           `json:"rematch_ready_count"`
	RematchCode       string        `json:"rematch_code,omitempty"`
	Game              *GameResponse `json:"game"`
}

// CreateRematchResponse is returned by POST /games/:code/rematch/create.
type CreateRematchResponse struct {
	NewCode string            `json:"new_code"`
	Config  entity.GameConfig `json:"config"`
	Created bool              `json:"created"`
}

// GameSummaryResponse is one entry of the caller's game history.
type GameSummaryResponse struct {
	Code          string     `json:"code"`
	Category      string     `json:"category"`
	Topic         string     `json:"topic,omitempty"`
	Mode          string     `json:"mode"`
	NumRounds     int        `json:"num_rounds"`
	Status        string     `json:"status"`
	Result        string     `json:"result"`
	MyScore       int        `json:"my_score"`
	OpponentID    *uint      `json:"opponent_id,omitempty"`
	OpponentScore int        `json:"opponent_score"`
	WinnerID      *uint      `json:"winner_id,omitempty"`
	IsTie         bool       `json:"is_tie"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Results of a game from the viewer's point of view
const (
	ResultWon  = "won"
	ResultLost = "lost"
	ResultTie  = "tie"
	ResultNone = "none"
)

// NewGameSummaryResponse summarises a terminal game for userID.
func NewGameSummaryResponse(g *entity.Game, userID uint) GameSummaryResponse {
	resp := GameSummaryResponse{
		Code:       g.Code,
		Category:   g.Category,
		Topic:      g.Topic,
		Mode:       g.Mode,
		NumRounds:  g.NumRounds,
		Status:     g.Status,
		WinnerID:   g.WinnerID,
		IsTie:      g.IsTie,
		FinishedAt: g.FinishedAt,
	}
	if p := g.Player(userID); p != nil {
		resp.MyScore = p.Score
	}
	if o := g.Opponent(userID); o != nil {
		id := o.UserID
		resp.OpponentID = &id
		resp.OpponentScore = o.Score
	}

	switch {
	case g.IsTie:
		resp.Result = ResultTie
	case g.WinnerID == nil:
		resp.Result = ResultNone
	case *g.WinnerID == userID:
		resp.Result = ResultWon
	default:
		resp.Result = ResultLost
	}
	return resp
}

// TopicsResponse is returned by GET /questions/topics.
type TopicsResponse struct {
	Category string   `json:"category"`
	Topics   []string `json:"topics"`
}
