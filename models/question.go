package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDataIntegrity marks a stored JSON column that no longer decodes.
// Callers must surface it distinctly; it must never be read as a wrong
// answer or a missing record.
var ErrDataIntegrity = errors.New("stored data is corrupt")

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeSelectAll      = "select_all"
)

// StringList is an ordered list of strings persisted as a JSON column.
// Conversion happens once at the storage edge; the rest of the code only
// ever sees []string.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
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

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrDataIntegrity, err)
	}
	*l = out
	return nil
}

type Question struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	QuizID         uint       `json:"quiz_id" gorm:"not null;index"`
	Text           string     `json:"text" gorm:"not null"`
	Type           string     `json:"type" gorm:"not null;default:'multiple_choice'"`
	Options        StringList `json:"options" gorm:"type:text;not null"`
	CorrectAnswers StringList `json:"correct_answers" gorm:"type:text;not null"`
	Hint           string     `json:"hint"`
	Order          int        `json:"order" gorm:"not null"`
	ImageURL       string     `json:"image_url"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relationships
	Quiz Quiz `json:"quiz,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// MultiSelect reports whether takers answer with a set rather than a
// single option.
func (q *Question) MultiSelect() bool {
	return q.Type == QuestionTypeSelectAll
}
