package entity

import "time"

// Player is one participant's state inside a game.
type Player struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	GameID        uint       `gorm:"not null;uniqueIndex:idx_game_players_game_user" json:"game_id"`
	UserID        uint       `gorm:"not null;uniqueIndex:idx_game_players_game_user;index" json:"user_id"`
	Score         int        `gorm:"not null;default:0" json:"score"`
	IsReady       bool       `gorm:"not null;default:false" json:"is_ready"`
	CurrentAnswer *string    `gorm:"size:500" json:"current_answer,omitempty"`
	AnsweredAt    *time.Time `json:"answered_at,omitempty"`
	HasForfeited  bool       `gorm:"not null;default:false" json:"has_forfeited"`
	WantsRematch  bool       `gorm:"not null;default:false" json:"wants_rematch"`
	JoinedAt      time.Time  `gorm:"not null" json:"joined_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName returns the GORM table name
func (Player) TableName() string {
	return "game_players"
}

// NewPlayer returns a player with fresh state.
func NewPlayer(userID uint, now time.Time) *Player {
	return &Player{UserID: userID, JoinedAt: now}
}

// HasAnswered reports whether the player answered the open round.
func (p *Player) HasAnswered() bool {
	return p.CurrentAnswer != nil
}

// SetAnswer stores the answer for the open round.
func (p *Player) SetAnswer(answer string, at time.Time) {
	p.CurrentAnswer = &answer
	p.AnsweredAt = &at
}

// ClearAnswer resets the per-round answer.
func (p *Player) ClearAnswer() {
	p.CurrentAnswer = nil
	p.AnsweredAt = nil
}

// Clone returns a deep copy.
func (p Player) Clone() Player {
	c := p
	if p.CurrentAnswer != nil {
		a := *p.CurrentAnswer
		c.CurrentAnswer = &a
	}
	c.AnsweredAt = cloneTime(p.AnsweredAt)
	return c
}
