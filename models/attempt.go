package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttemptAnswer is one recorded answer inside an attempt. UserAnswer
// holds a single option for multiple_choice questions and a list of
// options for select_all questions.
type AttemptAnswer struct {
	QuestionID uint       `json:"question_id"`
	UserAnswer StringList `json:"user_answer"`
	IsCorrect  bool       `json:"is_correct"`
}

// AnswerList is the ordered list of recorded answers, persisted as a
// JSON column the same way as StringList.
type AnswerList []AttemptAnswer

func (l AnswerList) Value() (driver.Value, error) {
	if l == nil {
		l = AnswerList{}
	}
	data, err := json.Marshal([]AttemptAnswer(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *AnswerList) Scan(value interface{}) error {
	if value == nil {
		*l = AnswerList{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("%w: unexpected column type %T", ErrDataIntegrity, value)
	}

	var out []AttemptAnswer
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	*l = out
	return nil
}

type QuizAttempt struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	QuizID      uint       `json:"quiz_id" gorm:"not null;index"`
	TakerName   string     `json:"taker_name" gorm:"not null"`
	Score       int        `json:"score" gorm:"not null"`
	MaxScore    int        `json:"max_score" gorm:"not null"`
	Answers     AnswerList `json:"answers" gorm:"type:text;not null"`
	CompletedAt time.Time  `json:"completed_at" gorm:"not null;index"`

	// Relationships
	Quiz Quiz `json:"quiz,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
