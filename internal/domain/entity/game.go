package entity

import (
	"time"
)

// Game statuses
const (
	GameStatusWaiting   = "waiting"
	GameStatusActive    = "active"
	GameStatusFinished  = "finished"
	GameStatusForfeited = "forfeited"
)

// Game modes
const (
	GameModeFast  = "fast"
	GameModeTimed = "timed"
)

// Question categories
const (
	CategoryMath    = "math"
	CategoryEnglish = "english"
)

const (
	GameCodeLength = 6
	MinRounds      = 3
	MaxRounds      = 10
	MaxPlayers     = 2
)

// GameConfig is the part of a game fixed at creation and copied into rematches.
type GameConfig struct {
	Category     string `json:"category"`
	Topic        string `json:"topic,omitempty"`
	NumRounds    int    `json:"num_rounds"`
	Mode         string `json:"mode"`
	TimeLimitSec int    `json:"time_limit_sec,omitempty"`
}

// Game is one 1v1 match.
type Game struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Code      string `gorm:"size:6;not null;uniqueIndex" json:"code"`
	CreatorID uint   `gorm:"not null;index" json:"creator_id"`

	Category     string `gorm:"size:20;not null" json:"category"`
	Topic        string `gorm:"size:100;not null;default:''" json:"topic,omitempty"`
	NumRounds    int    `gorm:"not null" json:"num_rounds"`
	Mode         string `gorm:"size:10;not null" json:"mode"`
	TimeLimitSec int    `gorm:"not null;default:0" json:"time_limit_sec,omitempty"`

	Status            string       `gorm:"size:20;not null;default:'waiting';index" json:"status"`
	CurrentRound      int          `gorm:"not null;default:0" json:"current_round"`
	CurrentQuestion   *Question    `gorm:"type:jsonb" json:"current_question"`
	QuestionStartTime *time.Time   `json:"question_start_time,omitempty"`
	RoundStartTime    *time.Time   `json:"round_start_time,omitempty"`
	Questions         IntArray     `gorm:"type:jsonb;not null" json:"questions"`
	GameQuestions     QuestionList `gorm:"type:jsonb;not null" json:"game_questions"`

	WinnerID       *uint      `json:"winner_id,omitempty"`
	IsTie          bool       `gorm:"not null;default:false" json:"is_tie"`
	RematchCode    *string    `gorm:"size:6;uniqueIndex" json:"rematch_code,omitempty"`
	SourceGameCode *string    `gorm:"size:6" json:"source_game_code,omitempty"`
	Version        int        `gorm:"not null;default:0" json:"version"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`

	Players   []Player  `gorm:"foreignKey:GameID" json:"players"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the GORM table name
func (Game) TableName() string {
	return "games"
}

// NewGame builds a waiting game with the creator as its only player.
func NewGame(code string, creatorID uint, cfg GameConfig, now time.Time) *Game {
	return &Game{
		Code:          code,
		CreatorID:     creatorID,
		Category:      cfg.Category,
		Topic:         cfg.Topic,
		NumRounds:     cfg.NumRounds,
		Mode:          cfg.Mode,
		TimeLimitSec:  cfg.TimeLimitSec,
		Status:        GameStatusWaiting,
		Questions:     IntArray{},
		GameQuestions: QuestionList{},
		Players:       []Player{*NewPlayer(creatorID, now)},
	}
}

// Config returns the immutable settings of the game.
func (g *Game) Config() GameConfig {
	return GameConfig{
		Category:     g.Category,
		Topic:        g.Topic,
		NumRounds:    g.NumRounds,
		Mode:         g.Mode,
		TimeLimitSec: g.TimeLimitSec,
	}
}

// IsWaiting reports whether the game is in the lobby.
func (g *Game) IsWaiting() bool {
	return g.Status == GameStatusWaiting
}

// IsActive reports whether rounds are being played.
func (g *Game) IsActive() bool {
	return g.Status == GameStatusActive
}

// IsTerminal reports whether the game is finished or forfeited.
func (g *Game) IsTerminal() bool {
	return g.Status == GameStatusFinished || g.Status == GameStatusForfeited
}

// IsTimed reports whether scoring is deferred to round end.
func (g *Game) IsTimed() bool {
	return g.Mode == GameModeTimed
}

// IsCreator reports whether userID created the game.
func (g *Game) IsCreator(userID uint) bool {
	return g.CreatorID == userID
}

// Player returns the player record of userID, or nil.
func (g *Game) Player(userID uint) *Player {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}

// Opponent returns the other player of userID, or nil.
func (g *Game) Opponent(userID uint) *Player {
	for i := range g.Players {
		if g.Players[i].UserID != userID {
			return &g.Players[i]
		}
	}
	return nil
}

// HasPlayer reports whether userID participates in the game.
func (g *Game) HasPlayer(userID uint) bool {
	return g.Player(userID) != nil
}

// QuestionDeadline returns when the current question stops accepting answers in timed mode.
func (g *Game) QuestionDeadline() (time.Time, bool) {
	if !g.IsTimed() || g.TimeLimitSec <= 0 || g.QuestionStartTime == nil {
		return time.Time{}, false
	}
	return g.QuestionStartTime.Add(time.Duration(g.TimeLimitSec) * time.Second), true
}

// RoundQuestion returns the recorded question body for round (1-indexed), or nil.
func (g *Game) RoundQuestion(round int) *Question {
	if round < 1 || round > len(g.GameQuestions) {
		return nil
	}
	return &g.GameQuestions[round-1]
}

// Clone returns a deep copy of the game and its players.
func (g *Game) Clone() *Game {
	c := *g
	if g.CurrentQuestion != nil {
		q := g.CurrentQuestion.Clone()
		c.CurrentQuestion = &q
	}
	c.QuestionStartTime = cloneTime(g.QuestionStartTime)
	c.RoundStartTime = cloneTime(g.RoundStartTime)
	c.FinishedAt = cloneTime(g.FinishedAt)
	if g.WinnerID != nil {
		w := *g.WinnerID
		c.WinnerID = &w
	}
	if g.RematchCode != nil {
		r := *g.RematchCode
		c.RematchCode = &r
	}
	if g.SourceGameCode != nil {
		s := *g.SourceGameCode
		c.SourceGameCode = &s
	}
	c.Questions = append(IntArray{}, g.Questions...)
	c.GameQuestions = make(QuestionList, len(g.GameQuestions))
	for i := range g.GameQuestions {
		c.GameQuestions[i] = g.GameQuestions[i].Clone()
	}
	c.Players = make([]Player, len(g.Players))
	for i := range g.Players {
		c.Players[i] = g.Players[i].Clone()
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
