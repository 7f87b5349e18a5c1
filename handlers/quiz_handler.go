package handlers

import (
	"net/http"
	"time"

	"knowme/models"
	"knowme/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	quizService    *services.QuizService
	attemptService *services.AttemptService
}

func NewQuizHandler(quizService *services.QuizService, attemptService *services.AttemptService) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

// publicQuestion is the taker-facing question shape: correct answers
// are stripped, everything needed to render the question stays.
type publicQuestion struct {
	ID       uint     `json:"id"`
	QuizID   uint     `json:"quiz_id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
	Hint     string   `json:"hint,omitempty"`
	Order    int      `json:"order"`
	ImageURL string   `json:"image_url,omitempty"`
}

type publicQuiz struct {
	ID          uint             `json:"id"`
	CreatorName string           `json:"creator_name"`
	AccessCode  string           `json:"access_code"`
	URLSlug     string           `json:"url_slug"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Questions   []publicQuestion `json:"questions"`
}

type quizSummary struct {
	ID          uint      `json:"id"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toPublicQuestion(q *models.Question) publicQuestion {
	return publicQuestion{
		ID:       q.ID,
		QuizID:   q.QuizID,
		Text:     q.Text,
		Type:     q.Type,
		Options:  q.Options,
		Hint:     q.Hint,
		Order:    q.Order,
		ImageURL: q.ImageURL,
	}
}

func toPublicQuiz(quiz *models.Quiz) publicQuiz {
	questions := make([]publicQuestion, 0, len(quiz.Questions))
	for i := range quiz.Questions {
		questions = append(questions, toPublicQuestion(&quiz.Questions[i]))
	}
	return publicQuiz{
		ID:          quiz.ID,
		CreatorName: quiz.CreatorName,
		AccessCode:  quiz.AccessCode,
		URLSlug:     quiz.URLSlug,
		CreatedAt:   quiz.CreatedAt,
		ExpiresAt:   quiz.ExpiresAt(),
		Questions:   questions,
	}
}

func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quiz, err := h.quizService.CreateQuiz(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	// The creator gets the dashboard token exactly once, at creation.
	c.JSON(http.StatusCreated, gin.H{
		"quiz":            toPublicQuiz(quiz),
		"dashboard_token": quiz.DashboardToken,
	})
}

func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.ListQuizzes()
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]quizSummary, 0, len(quizzes))
	for i := range quizzes {
		summaries = append(summaries, quizSummary{
			ID:          quizzes[i].ID,
			CreatorName: quizzes[i].CreatorName,
			CreatedAt:   quizzes[i].CreatedAt,
			ExpiresAt:   quizzes[i].ExpiresAt(),
		})
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *QuizHandler) GetQuizByCode(c *gin.Context) {
	quiz, err := h.quizService.GetQuizByCode(c.Param("accessCode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicQuiz(quiz))
}

func (h *QuizHandler) GetQuizBySlug(c *gin.Context) {
	quiz, err := h.quizService.GetQuizBySlug(c.Param("urlSlug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicQuiz(quiz))
}

func (h *QuizHandler) GetQuizByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuizByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPublicQuiz(quiz))
}

// GetDashboard is the creator view: the full quiz including correct
// answers, plus the ranked attempt list.
func (h *QuizHandler) GetDashboard(c *gin.Context) {
	quiz, err := h.quizService.GetQuizByDashboardToken(c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	attempts, err := h.attemptService.ListAttempts(quiz.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	noCache(c)
	c.JSON(http.StatusOK, gin.H{
		"quiz":        quiz,
		"attempts":    attempts,
		"server_time": time.Now().UTC(),
	})
}
