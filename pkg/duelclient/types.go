package duelclient

import "time"

// Game statuses as reported by the server
const (
	StatusWaiting   = "waiting"
	StatusActive    = "active"
	StatusFinished  = "finished"
	StatusForfeited = "forfeited"
)

// Config is the immutable part of a game.
type Config struct {
	Category     string `json:"category"`
	Topic        string `json:"topic,omitempty"`
	NumRounds    int    `json:"num_rounds"`
	Mode         string `json:"mode"`
	TimeLimitSec int    `json:"time_limit_sec,omitempty"`
}

// Question is the open question or a closed round.
type Question struct {
	Round    int      `json:"round"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Topic    string   `json:"topic,omitempty"`
	// Only set for closed rounds
	Answer string `json:"answer,omitempty"`
}

// Player is one participant as seen by the caller.
type Player struct {
	UserID        uint    `json:"user_id"`
	Score         int     `json:"score"`
	IsReady       bool    `json:"is_ready"`
	HasAnswered   bool    `json:"has_answered"`
	CurrentAnswer *string `json:"current_answer,omitempty"`
	HasForfeited  bool    `json:"has_forfeited"`
	WantsRematch  bool    `json:"wants_rematch"`
	IsCreator     bool    `json:"is_creator"`
}

// Game is the snapshot returned by every game endpoint.
type Game struct {
	Code             string     `json:"code"`
	CreatorID        uint       `json:"creator_id"`
	Config           Config     `json:"config"`
	Status           string     `json:"status"`
	CurrentRound     int        `json:"current_round"`
	NumRounds        int        `json:"num_rounds"`
	CurrentQuestion  *Question  `json:"current_question"`
	QuestionDeadline *time.Time `json:"question_deadline,omitempty"`
	Rounds           []Question `json:"rounds"`
	Players          []Player   `json:"players"`
	WinnerID         *uint      `json:"winner_id"`
	IsTie            bool       `json:"is_tie"`
	RematchCode      *string    `json:"rematch_code,omitempty"`
	Version          int        `json:"version"`
}

// IsTerminal reports whether the game is finished or forfeited.
func (g *Game) IsTerminal() bool {
	return g.Status == StatusFinished || g.Status == StatusForfeited
}

// Player returns the participant with userID, or nil.
func (g *Game) Player(userID uint) *Player {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// CreateGameParams are the settings of a new game.
type CreateGameParams struct {
	Category     string `json:"category"`
	Topic        string `json:"topic,omitempty"`
	NumRounds    int    `json:"num_rounds"`
	Mode         string `json:"mode,omitempty"`
	TimeLimitSec int    `json:"time_limit_sec,omitempty"`
}

// JoinResult is returned by Join.
type JoinResult struct {
	Game          *Game `json:"game"`
	AlreadyJoined bool  `json:"already_joined"`
}

// AnswerResult is returned by SubmitAnswer.
type AnswerResult struct {
	IsCorrect bool  `json:"is_correct"`
	Awarded   bool  `json:"awarded"`
	Score     int   `json:"score"`
	Game      *Game `json:"game"`
}

// RoundResult is returned by NextRound.
type RoundResult struct {
	Advanced     bool  `json:"advanced"`
	GameFinished bool  `json:"game_finished"`
	CurrentRound int   `json:"current_round"`
	WinnerID     *uint `json:"winner_id,omitempty"`
	IsTie        bool  `json:"is_tie"`
	Game         *Game `json:"game"`
}

// ForfeitResult is returned by Forfeit.
type ForfeitResult struct {
	WinnerID *uint `json:"winner_id"`
	Game     *Game `json:"game"`
}

// RematchRequestResult is returned by RequestRematch.
type RematchRequestResult struct {
	ReadyCount  int    `json:"rematch_ready_count"`
	RematchCode string `json:"rematch_code,omitempty"`
	Game        *Game  `json:"game"`
}

// RematchResult is returned by CreateRematch.
type RematchResult struct {
	NewCode string `json:"new_code"`
	Config  Config `json:"config"`
	Created bool   `json:"created"`
}

// GameSummary is one entry of History.
type GameSummary struct {
	Code          string     `json:"code"`
	Category      string     `json:"category"`
	Mode          string     `json:"mode"`
	NumRounds     int        `json:"num_rounds"`
	Status        string     `json:"status"`
	Result        string     `json:"result"`
	MyScore       int        `json:"my_score"`
	OpponentScore int        `json:"opponent_score"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}
