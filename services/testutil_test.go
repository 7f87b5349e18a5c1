package services

import (
	"path/filepath"
	"testing"
	"time"

	"knowme/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Quiz{},
		&models.Question{},
		&models.QuizAttempt{},
	))
	return db
}

func newTestQuizService(t *testing.T, db *gorm.DB) *QuizService {
	t.Helper()
	return NewQuizService(db, nil)
}

func fiveQuestions() []CreateQuestionRequest {
	return []CreateQuestionRequest{
		{Text: "Favorite color?", Options: []string{"Blue", "Red"}, CorrectAnswers: []string{"Blue"}, Order: 1},
		{Text: "Favorite food?", Options: []string{"Pizza", "Sushi"}, CorrectAnswers: []string{"Sushi"}, Order: 2},
		{Text: "Dream city?", Options: []string{"Paris", "Tokyo"}, CorrectAnswers: []string{"Paris"}, Order: 3},
		{Text: "Pet?", Options: []string{"Cat", "Dog"}, CorrectAnswers: []string{"Cat"}, Order: 4},
		{
			Text:           "Hobbies?",
			Type:           models.QuestionTypeSelectAll,
			Options:        []string{"Hiking", "Chess", "Baking"},
			CorrectAnswers: []string{"Hiking", "Chess"},
			Order:          5,
		},
	}
}

func createTestQuiz(t *testing.T, svc *QuizService, creatorName string) *models.Quiz {
	t.Helper()

	quiz, err := svc.CreateQuiz(&CreateQuizRequest{
		CreatorID:   1,
		CreatorName: creatorName,
		Questions:   fiveQuestions(),
	})
	require.NoError(t, err)
	return quiz
}

// backdateQuiz rewrites created_at so expiry paths can be exercised
// without waiting out the retention window.
func backdateQuiz(t *testing.T, db *gorm.DB, quizID uint, age time.Duration) {
	t.Helper()
	err := db.Model(&models.Quiz{}).
		Where("id = ?", quizID).
		Update("created_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}
