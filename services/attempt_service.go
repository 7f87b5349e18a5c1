package services

import (
	"errors"
	"strings"
	"time"

	"knowme/models"

	"gorm.io/gorm"
)

type AttemptService struct {
	db   *gorm.DB
	quiz *QuizService
	hub  *DashboardHub
	now  func() time.Time
}

func NewAttemptService(db *gorm.DB, quiz *QuizService, hub *DashboardHub) *AttemptService {
	return &AttemptService{
		db:   db,
		quiz: quiz,
		hub:  hub,
		now:  time.Now,
	}
}

type RecordAttemptRequest struct {
	QuizID    uint              `json:"quiz_id" binding:"required"`
	TakerName string            `json:"taker_name"`
	Score     int               `json:"score"`
	Answers   []SubmittedAnswer `json:"answers"`
}

type SubmittedAnswer struct {
	QuestionID uint        `json:"question_id" binding:"required"`
	UserAnswer AnswerValue `json:"user_answer"`
}

// RecordAttempt scores a finished run-through. The client may send a
// score but it is never trusted; every answer is re-verified against the
// stored correct set and the result is clamped to [0, questionCount].
func (s *AttemptService) RecordAttempt(req *RecordAttemptRequest) (*models.QuizAttempt, error) {
	takerName := strings.TrimSpace(req.TakerName)
	if takerName == "" {
		return nil, invalidField("taker_name", CodeBadTakerName, "taker name is required")
	}
	if len(req.Answers) == 0 {
		return nil, invalidField("answers", CodeInvalidBody, "at least one answer is required")
	}

	quiz, err := s.quiz.GetQuizByID(req.QuizID)
	if err != nil {
		return nil, err
	}

	// Correct answers are read at verification time, not quiz-creation
	// time, so a freshly added question is scored against its current
	// stored form.
	questions := make(map[uint]*models.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		questions[quiz.Questions[i].ID] = &quiz.Questions[i]
	}

	score := 0
	seen := make(map[uint]bool, len(req.Answers))
	recorded := make(models.AnswerList, 0, len(req.Answers))
	for _, answer := range req.Answers {
		question, ok := questions[answer.QuestionID]
		if !ok {
			return nil, invalidField("answers", CodeInvalidBody, "answer references a question outside this quiz")
		}
		if seen[answer.QuestionID] {
			return nil, invalidField("answers", CodeInvalidBody, "duplicate answer for the same question")
		}
		seen[answer.QuestionID] = true

		correct := VerifyAnswer(question, answer.UserAnswer)
		if correct {
			score++
		}
		recorded = append(recorded, models.AttemptAnswer{
			QuestionID: answer.QuestionID,
			UserAnswer: models.StringList(answer.UserAnswer),
			IsCorrect:  correct,
		})
	}

	maxScore := len(quiz.Questions)
	if score > maxScore {
		score = maxScore
	}
	if score < 0 {
		score = 0
	}

	attempt := models.QuizAttempt{
		QuizID:      quiz.ID,
		TakerName:   takerName,
		Score:       score,
		MaxScore:    maxScore,
		Answers:     recorded,
		CompletedAt: s.now(),
	}

	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}

	s.hub.NotifyAttempt(quiz.ID, &attempt)
	return &attempt, nil
}

// ListAttempts returns a quiz's attempts newest-first. Expired and
// missing quizzes are distinguished the same way as every read path.
func (s *AttemptService) ListAttempts(quizID uint) ([]models.QuizAttempt, error) {
	if _, err := s.quiz.GetQuizByID(quizID); err != nil {
		return nil, err
	}

	var attempts []models.QuizAttempt
	err := s.db.Where("quiz_id = ?", quizID).
		Order("completed_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (s *AttemptService) GetAttempt(id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := s.db.First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// VerifyQuestionAnswer is the single-question check behind the
// taker-facing instant feedback endpoint.
func (s *AttemptService) VerifyQuestionAnswer(questionID uint, candidate []string) (bool, error) {
	question, err := s.quiz.GetQuestion(questionID)
	if err != nil {
		return false, err
	}
	return VerifyAnswer(question, candidate), nil
}
