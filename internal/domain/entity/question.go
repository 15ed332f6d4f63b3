package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// scanJSON decodes a JSONB column into dest. NULL and empty values leave dest untouched.
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: unexpected type %T", value)
	}

	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dest)
}

// StringArray is a []string stored as JSONB.
type StringArray []string

// Scan implements sql.Scanner for StringArray
func (o *StringArray) Scan(value interface{}) error {
	*o = StringArray{}
	return scanJSON(value, o)
}

// Value implements driver.Valuer for StringArray
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// IntArray is a []int stored as JSONB. Used for the selected question indices of a game.
type IntArray []int

// Scan implements sql.Scanner for IntArray
func (a *IntArray) Scan(value interface{}) error {
	*a = IntArray{}
	return scanJSON(value, a)
}

// Value implements driver.Valuer for IntArray
func (a IntArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

// PlayerAnswer is one player's recorded answer for a closed round.
type PlayerAnswer struct {
	Answer     string    `json:"answer"`
	IsCorrect  bool      `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Question is a question body embedded in a game. It is not a table of its own:
// it lives in games.current_question and games.game_questions.
type Question struct {
	Text          string                `json:"question"`
	Choices       []string              `json:"choices"`
	Answer        string                `json:"answer"`
	Topic         string                `json:"topic,omitempty"`
	PlayerAnswers map[uint]PlayerAnswer `json:"player_answers,omitempty"`
	ClosedAt      *time.Time            `json:"closed_at,omitempty"`
}

// Scan implements sql.Scanner so *Question can back a nullable JSONB column.
func (q *Question) Scan(value interface{}) error {
	*q = Question{}
	return scanJSON(value, q)
}

// Value implements driver.Valuer for Question
func (q Question) Value() (driver.Value, error) {
	return json.Marshal(q)
}

// IsCorrect reports whether answer matches the correct answer exactly.
func (q *Question) IsCorrect(answer string) bool {
	return answer == q.Answer
}

// IsClosed reports whether the round for this question has already been recorded.
func (q *Question) IsClosed() bool {
	return q.ClosedAt != nil
}

// Bare returns a copy without answer history.
func (q Question) Bare() Question {
	return Question{
		Text:    q.Text,
		Choices: append([]string(nil), q.Choices...),
		Answer:  q.Answer,
		Topic:   q.Topic,
	}
}

// Clone returns a deep copy, history included.
func (q Question) Clone() Question {
	c := q.Bare()
	if q.PlayerAnswers != nil {
		c.PlayerAnswers = make(map[uint]PlayerAnswer, len(q.PlayerAnswers))
		for userID, a := range q.PlayerAnswers {
			c.PlayerAnswers[userID] = a
		}
	}
	if q.ClosedAt != nil {
		t := *q.ClosedAt
		c.ClosedAt = &t
	}
	return c
}

// QuestionList is the per-game list of question bodies stored as JSONB.
type QuestionList []Question

// Scan implements sql.Scanner for QuestionList
func (l *QuestionList) Scan(value interface{}) error {
	*l = QuestionList{}
	return scanJSON(value, l)
}

// Value implements driver.Valuer for QuestionList
func (l QuestionList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}
