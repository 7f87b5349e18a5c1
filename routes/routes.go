package routes

import (
	"log"
	"net/http"

	"knowme/handlers"
	"knowme/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Access control happens via the dashboard token
	},
}

func SetupRoutes(
	router *gin.Engine,
	userHandler *handlers.UserHandler,
	quizHandler *handlers.QuizHandler,
	questionHandler *handlers.QuestionHandler,
	attemptHandler *handlers.AttemptHandler,
	uploadHandler *handlers.UploadHandler,
	hub *services.DashboardHub,
	quizService *services.QuizService,
) {
	// Users
	router.POST("/users", userHandler.CreateUser)

	// Quizzes
	quizzes := router.Group("/quizzes")
	{
		quizzes.POST("", quizHandler.CreateQuiz)
		quizzes.GET("", quizHandler.ListQuizzes)
		quizzes.GET("/code/:accessCode", quizHandler.GetQuizByCode)
		quizzes.GET("/slug/:urlSlug", quizHandler.GetQuizBySlug)
		quizzes.GET("/dashboard/:token", quizHandler.GetDashboard)
		quizzes.GET("/:id", quizHandler.GetQuizByID)
		quizzes.GET("/:id/questions", questionHandler.ListQuestions)
		quizzes.GET("/:id/attempts", attemptHandler.ListAttempts)
	}

	// Questions
	router.POST("/questions", questionHandler.AddQuestion)
	router.POST("/questions/:id/verify", questionHandler.VerifyAnswer)

	// Attempts
	router.POST("/quiz-attempts", attemptHandler.RecordAttempt)
	router.GET("/quiz-attempts/:id", attemptHandler.GetAttempt)

	// Uploads
	router.POST("/upload", uploadHandler.Upload)

	// WebSocket endpoint for the live results dashboard. The dashboard
	// token gates the upgrade the same way it gates the REST dashboard.
	router.GET("/ws/dashboard/:token", func(c *gin.Context) {
		quiz, err := quizService.GetQuizByDashboardToken(c.Param("token"))
		if err != nil {
			// Same taxonomy as the REST dashboard: gone is not 404.
			handlers.RespondError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for quiz %d: %v", quiz.ID, err)
			return
		}

		hub.RegisterClient(conn, quiz.ID)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
