package models

import (
	"time"
)

// RetentionPeriod is how long a quiz stays reachable after creation.
// The user-facing copy "available for 7 days after creation" depends on it.
const RetentionPeriod = 7 * 24 * time.Hour

type Quiz struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	CreatorID      uint      `json:"creator_id" gorm:"not null"`
	CreatorName    string    `json:"creator_name" gorm:"not null"`
	AccessCode     string    `json:"access_code" gorm:"uniqueIndex;not null"`
	URLSlug        string    `json:"url_slug" gorm:"uniqueIndex;not null"`
	DashboardToken string    `json:"-" gorm:"uniqueIndex;not null"`
	CreatedAt      time.Time `json:"created_at"`

	// Relationships
	Creator   User          `json:"creator,omitempty" gorm:"foreignKey:CreatorID"`
	Questions []Question    `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
	Attempts  []QuizAttempt `json:"attempts,omitempty" gorm:"foreignKey:QuizID"`
}

// ExpiresAt derives the end of the retention window; it is not persisted.
func (q *Quiz) ExpiresAt() time.Time {
	return q.CreatedAt.Add(RetentionPeriod)
}

// Expired reports whether the quiz is past its retention window at the
// given instant. The boundary is inclusive: a quiz is expired at exactly
// seven days.
func (q *Quiz) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt())
}
