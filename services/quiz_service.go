package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"knowme/models"

	"gorm.io/gorm"
)

// placeholderCreatorName is a known bad default a buggy client used to
// submit instead of the real creator name. Rejecting it is a one-off
// data-quality guard, not a general banned-word policy.
const placeholderCreatorName = "emydan"

type QuizService struct {
	db    *gorm.DB
	cache *QuizCache
	now   func() time.Time
}

func NewQuizService(db *gorm.DB, cache *QuizCache) *QuizService {
	return &QuizService{
		db:    db,
		cache: cache,
		now:   time.Now,
	}
}

type CreateQuizRequest struct {
	CreatorID   uint                    `json:"creator_id" binding:"required"`
	CreatorName string                  `json:"creator_name"`
	Questions   []CreateQuestionRequest `json:"questions"`
}

type CreateQuestionRequest struct {
	Text           string   `json:"text"`
	Type           string   `json:"type"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
	Hint           string   `json:"hint"`
	Order          int      `json:"order"`
	ImageURL       string   `json:"image_url"`
}

func (s *QuizService) CreateQuiz(req *CreateQuizRequest) (*models.Quiz, error) {
	creatorName := strings.TrimSpace(req.CreatorName)
	if creatorName == "" {
		return nil, invalidField("creator_name", CodeEmptyName, "creator name is required")
	}
	if strings.EqualFold(creatorName, placeholderCreatorName) {
		return nil, invalidField("creator_name", CodePlaceholderName,
			"creator name looks like an unedited placeholder, please use your own name")
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, qReq := range req.Questions {
		question, err := buildQuestion(&qReq, i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *question)
	}

	generator := NewIdentifierGenerator(s.identifierExists)
	identifiers, err := generator.Generate(creatorName)
	if err != nil {
		return nil, err
	}

	quiz := models.Quiz{
		CreatorID:      req.CreatorID,
		CreatorName:    creatorName,
		AccessCode:     identifiers.AccessCode,
		URLSlug:        identifiers.URLSlug,
		DashboardToken: identifiers.DashboardToken,
		CreatedAt:      s.now(),
	}

	// Quiz and questions land together or not at all; a partially
	// written quiz must never become visible to readers.
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&quiz).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for i := range questions {
		questions[i].QuizID = quiz.ID
		if err := tx.Create(&questions[i]).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetQuizByID(quiz.ID)
}

// buildQuestion validates one incoming question. The correct-answer set
// must be a subset of the options; storage does not enforce that, so
// creation is the only gate.
func buildQuestion(req *CreateQuestionRequest, index int) (*models.Question, error) {
	field := fmt.Sprintf("questions[%d]", index)

	if strings.TrimSpace(req.Text) == "" {
		return nil, invalidField(field+".text", CodeInvalidBody, "question text is required")
	}

	qType := req.Type
	if qType == "" {
		qType = models.QuestionTypeMultipleChoice
	}
	if qType != models.QuestionTypeMultipleChoice && qType != models.QuestionTypeSelectAll {
		return nil, invalidField(field+".type", CodeInvalidBody, "unknown question type")
	}

	if len(req.Options) < 2 {
		return nil, invalidField(field+".options", CodeBadOptions, "at least two options are required")
	}
	if len(req.CorrectAnswers) == 0 {
		return nil, invalidField(field+".correct_answers", CodeBadAnswerSet, "at least one correct answer is required")
	}

	options := normalizeSet(req.Options)
	for _, answer := range req.CorrectAnswers {
		if _, ok := options[normalizeAnswer(answer)]; !ok {
			return nil, invalidField(field+".correct_answers", CodeBadAnswerSet,
				fmt.Sprintf("correct answer %q is not one of the options", answer))
		}
	}

	order := req.Order
	if order == 0 {
		order = index + 1
	}

	return &models.Question{
		Text:           strings.TrimSpace(req.Text),
		Type:           qType,
		Options:        req.Options,
		CorrectAnswers: req.CorrectAnswers,
		Hint:           req.Hint,
		Order:          order,
		ImageURL:       req.ImageURL,
	}, nil
}

func (s *QuizService) identifierExists(column, value string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Quiz{}).Where(column+" = ?", value).Count(&count).Error
	return count > 0, err
}

// ListQuizzes returns quizzes still inside their retention window,
// newest first.
func (s *QuizService) ListQuizzes() ([]models.Quiz, error) {
	cutoff := s.now().Add(-models.RetentionPeriod)
	var quizzes []models.Quiz
	err := s.db.Where("created_at > ?", cutoff).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

func (s *QuizService) GetQuizByID(id uint) (*models.Quiz, error) {
	return s.getQuiz("id = ?", id)
}

func (s *QuizService) GetQuizByCode(code string) (*models.Quiz, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if quiz := s.cache.Get(cacheKeyCode, code); quiz != nil {
		return s.checkExpiry(quiz)
	}

	quiz, err := s.getQuiz("access_code = ?", code)
	if err != nil {
		return nil, err
	}
	s.cache.Put(cacheKeyCode, code, quiz)
	return quiz, nil
}

// GetQuizBySlug looks up the exact slug first and falls back to a
// case-insensitive match, so hand-retyped links still resolve.
func (s *QuizService) GetQuizBySlug(slug string) (*models.Quiz, error) {
	slug = strings.TrimSpace(slug)
	if quiz := s.cache.Get(cacheKeySlug, strings.ToLower(slug)); quiz != nil {
		return s.checkExpiry(quiz)
	}

	quiz, err := s.getQuiz("url_slug = ?", slug)
	if errors.Is(err, ErrNotFound) {
		quiz, err = s.getQuiz("LOWER(url_slug) = ?", strings.ToLower(slug))
	}
	if err != nil {
		return nil, err
	}
	s.cache.Put(cacheKeySlug, strings.ToLower(slug), quiz)
	return quiz, nil
}

func (s *QuizService) GetQuizByDashboardToken(token string) (*models.Quiz, error) {
	return s.getQuiz("dashboard_token = ?", strings.TrimSpace(token))
}

func (s *QuizService) getQuiz(query string, arg interface{}) (*models.Quiz, error) {
	var quiz models.Quiz
	err := s.db.Where(query, arg).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.\"order\"")
		}).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.checkExpiry(&quiz)
}

func (s *QuizService) checkExpiry(quiz *models.Quiz) (*models.Quiz, error) {
	if quiz.Expired(s.now()) {
		return nil, ErrQuizExpired
	}
	return quiz, nil
}

// AddQuestion appends one question to an existing active quiz. The
// client creates the quiz shell first and posts questions one by one.
func (s *QuizService) AddQuestion(quizID uint, req *CreateQuestionRequest) (*models.Question, error) {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	var existing int64
	if err := s.db.Model(&models.Question{}).Where("quiz_id = ?", quiz.ID).Count(&existing).Error; err != nil {
		return nil, err
	}

	question, err := buildQuestion(req, int(existing))
	if err != nil {
		return nil, err
	}
	question.QuizID = quiz.ID

	if err := s.db.Create(question).Error; err != nil {
		return nil, err
	}
	s.cache.Invalidate(quiz)
	return question, nil
}

// GetQuestions returns a quiz's questions in display order.
func (s *QuizService) GetQuestions(quizID uint) ([]models.Question, error) {
	if _, err := s.GetQuizByID(quizID); err != nil {
		return nil, err
	}

	var questions []models.Question
	err := s.db.Where("quiz_id = ?", quizID).
		Order("\"order\"").
		Find(&questions).Error
	return questions, err
}

func (s *QuizService) GetQuestion(id uint) (*models.Question, error) {
	var question models.Question
	if err := s.db.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}
