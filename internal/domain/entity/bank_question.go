package entity

import "time"

// BankQuestion is a row of the question bank the game pools are drawn from.
type BankQuestion struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Category  string      `gorm:"size:20;not null;index:idx_bank_questions_category_topic" json:"category"`
	Topic     string      `gorm:"size:100;not null;default:'';index:idx_bank_questions_category_topic" json:"topic"`
	Text      string      `gorm:"size:2000;not null" json:"question"`
	Choices   StringArray `gorm:"type:jsonb;not null" json:"choices"`
	Answer    string      `gorm:"size:500;not null" json:"answer"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName returns the GORM table name
func (BankQuestion) TableName() string {
	return "bank_questions"
}

// ToQuestion converts the row into the embedded game form.
func (b *BankQuestion) ToQuestion() Question {
	return Question{
		Text:    b.Text,
		Choices: append([]string(nil), b.Choices...),
		Answer:  b.Answer,
		Topic:   b.Topic,
	}
}

// HasAnswerInChoices reports whether the correct answer is one of the choices.
func (b *BankQuestion) HasAnswerInChoices() bool {
	for _, c := range b.Choices {
		if c == b.Answer {
			return true
		}
	}
	return false
}
