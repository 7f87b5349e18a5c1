package handlers

import (
	"net/http"

	"knowme/services"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	quizService    *services.QuizService
	attemptService *services.AttemptService
}

func NewQuestionHandler(quizService *services.QuizService, attemptService *services.AttemptService) *QuestionHandler {
	return &QuestionHandler{
		quizService:    quizService,
		attemptService: attemptService,
	}
}

type addQuestionRequest struct {
	QuizID uint `json:"quiz_id" binding:"required"`
	services.CreateQuestionRequest
}

func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	var req addQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	question, err := h.quizService.AddQuestion(req.QuizID, &req.CreateQuestionRequest)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// ListQuestions is the taker-facing question list; correct answers never
// leave the server here.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	quizID, ok := parseID(c, "id")
	if !ok {
		return
	}

	questions, err := h.quizService.GetQuestions(quizID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]publicQuestion, 0, len(questions))
	for i := range questions {
		out = append(out, toPublicQuestion(&questions[i]))
	}
	c.JSON(http.StatusOK, out)
}

type verifyAnswerRequest struct {
	Answer services.AnswerValue `json:"answer" binding:"required"`
}

// VerifyAnswer gives a taker instant feedback for one question without
// revealing the stored correct set.
func (h *QuestionHandler) VerifyAnswer(c *gin.Context) {
	questionID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req verifyAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isCorrect, err := h.attemptService.VerifyQuestionAnswer(questionID, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_correct": isCorrect})
}
