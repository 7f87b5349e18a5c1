package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"knowme/handlers"
	"knowme/models"
	"knowme/routes"
	"knowme/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	hub := services.NewDashboardHub()
	go hub.Run()

	userService := services.NewUserService(db)
	quizService := services.NewQuizService(db, nil)
	attemptService := services.NewAttemptService(db, quizService, hub)

	router := gin.New()
	routes.SetupRoutes(router,
		handlers.NewUserHandler(userService),
		handlers.NewQuizHandler(quizService, attemptService),
		handlers.NewQuestionHandler(quizService, attemptService),
		handlers.NewAttemptHandler(attemptService),
		handlers.NewUploadHandler(nil),
		hub,
		quizService,
	)

	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func quizPayload(creatorName string) map[string]interface{} {
	return map[string]interface{}{
		"creator_id":   1,
		"creator_name": creatorName,
		"questions": []map[string]interface{}{
			{"text": "Favorite color?", "options": []string{"Blue", "Red"}, "correct_answers": []string{"Blue"}, "order": 1},
			{"text": "Favorite food?", "options": []string{"Pizza", "Sushi"}, "correct_answers": []string{"Sushi"}, "order": 2},
			{"text": "Dream city?", "options": []string{"Paris", "Tokyo"}, "correct_answers": []string{"Paris"}, "order": 3},
			{"text": "Pet?", "options": []string{"Cat", "Dog"}, "correct_answers": []string{"Cat"}, "order": 4},
			{"text": "Hobbies?", "type": "select_all", "options": []string{"Hiking", "Chess", "Baking"}, "correct_answers": []string{"Hiking", "Chess"}, "order": 5},
		},
	}
}

type createdQuiz struct {
	Quiz struct {
		ID        uint   `json:"id"`
		URLSlug   string `json:"url_slug"`
		Code      string `json:"access_code"`
		Questions []struct {
			ID   uint   `json:"id"`
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"questions"`
	} `json:"quiz"`
	DashboardToken string `json:"dashboard_token"`
}

func (s *testServer) createQuiz(t *testing.T, creatorName string) createdQuiz {
	t.Helper()
	w := s.do(t, http.MethodPost, "/quizzes", quizPayload(creatorName))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var out createdQuiz
	decode(t, w, &out)
	require.Len(t, out.Quiz.Questions, 5)
	return out
}

// answerFor maps the fixture question texts to their correct answers.
func answerFor(text string) interface{} {
	switch text {
	case "Favorite color?":
		return "Blue"
	case "Favorite food?":
		return "Sushi"
	case "Dream city?":
		return "Paris"
	case "Pet?":
		return "Cat"
	default:
		return []string{"Chess", "Hiking"}
	}
}

func TestCreateUserIdempotent(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/users", map[string]string{"username": "alex"})
	require.Equal(t, http.StatusCreated, w.Code)
	var first models.User
	decode(t, w, &first)

	w = s.do(t, http.MethodPost, "/users", map[string]string{"username": "alex"})
	require.Equal(t, http.StatusOK, w.Code, "repeat POST must answer 200, not 201")
	var second models.User
	decode(t, w, &second)

	assert.Equal(t, first.ID, second.ID)
}

func TestCreateUserRequiresUsername(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/users", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateQuizRejectsPlaceholderName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/quizzes", quizPayload("EmyDan"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "placeholder_name", body["code"], "placeholder rejection needs its own error code")
}

func TestQuizEndToEnd(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")

	// Fetch by slug; takers must not see correct answers.
	w := s.do(t, http.MethodGet, "/quizzes/slug/"+created.Quiz.URLSlug, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "correct_answers")

	var fetched struct {
		ID        uint `json:"id"`
		Questions []struct {
			ID   uint   `json:"id"`
			Text string `json:"text"`
		} `json:"questions"`
	}
	decode(t, w, &fetched)
	require.Len(t, fetched.Questions, 5)

	// Answer everything correctly.
	answers := make([]map[string]interface{}, 0, 5)
	for _, q := range fetched.Questions {
		answers = append(answers, map[string]interface{}{
			"question_id": q.ID,
			"user_answer": answerFor(q.Text),
		})
	}
	w = s.do(t, http.MethodPost, "/quiz-attempts", map[string]interface{}{
		"quiz_id":    fetched.ID,
		"taker_name": "Sam",
		"answers":    answers,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var attempt models.QuizAttempt
	decode(t, w, &attempt)
	assert.Equal(t, 5, attempt.Score)
	assert.Equal(t, 5, attempt.MaxScore)

	// The perfect attempt leads the sorted list.
	w = s.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/attempts", fetched.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	var list struct {
		Data       []models.QuizAttempt `json:"data"`
		ServerTime time.Time            `json:"server_time"`
		Count      int                  `json:"count"`
	}
	decode(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Sam", list.Data[0].TakerName)
	assert.False(t, list.ServerTime.IsZero())

	// The dashboard token unlocks the creator view.
	w = s.do(t, http.MethodGet, "/quizzes/dashboard/"+created.DashboardToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "correct_answers")
}

func TestQuizNotFoundVersusExpired(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")

	// Never existed: 404, no expired flag.
	w := s.do(t, http.MethodGet, "/quizzes/code/ZZZZZZ", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "expired")

	// Existed but past retention: 410 with the machine-readable flag and
	// the policy copy.
	err := s.db.Model(&models.Quiz{}).
		Where("id = ?", created.Quiz.ID).
		Update("created_at", time.Now().Add(-8*24*time.Hour)).Error
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/quizzes/code/"+created.Quiz.Code, nil)
	require.Equal(t, http.StatusGone, w.Code)

	var body struct {
		Expired bool   `json:"expired"`
		Error   string `json:"error"`
	}
	decode(t, w, &body)
	assert.True(t, body.Expired)
	assert.Contains(t, body.Error, "available for 7 days after creation")
}

func TestDashboardFeedExpiredVersusMissing(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")

	// The token check runs before the upgrade, so plain GETs see the
	// same 404/410 split as the REST dashboard.
	w := s.do(t, http.MethodGet, "/ws/dashboard/no-such-token", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	err := s.db.Model(&models.Quiz{}).
		Where("id = ?", created.Quiz.ID).
		Update("created_at", time.Now().Add(-8*24*time.Hour)).Error
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/ws/dashboard/"+created.DashboardToken, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestGetQuizRejectsNonNumericID(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/quizzes/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyAnswerEndpoint(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")
	questionID := created.Quiz.Questions[0].ID // correct answer: Blue

	w := s.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/verify", questionID),
		map[string]interface{}{"answer": " blue "})
	require.Equal(t, http.StatusOK, w.Code)
	var result struct {
		IsCorrect bool `json:"is_correct"`
	}
	decode(t, w, &result)
	assert.True(t, result.IsCorrect)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/verify", questionID),
		map[string]interface{}{"answer": "red"})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &result)
	assert.False(t, result.IsCorrect)

	w = s.do(t, http.MethodPost, "/questions/99999/verify",
		map[string]interface{}{"answer": "blue"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddAndListQuestions(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")

	w := s.do(t, http.MethodPost, "/questions", map[string]interface{}{
		"quiz_id":         created.Quiz.ID,
		"text":            "Favorite season?",
		"options":         []string{"Summer", "Winter"},
		"correct_answers": []string{"Winter"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/quizzes/%d/questions", created.Quiz.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var questions []map[string]interface{}
	decode(t, w, &questions)
	assert.Len(t, questions, 6)
	assert.NotContains(t, w.Body.String(), "correct_answers")
}

func TestGetAttemptDetail(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")

	w := s.do(t, http.MethodPost, "/quiz-attempts", map[string]interface{}{
		"quiz_id":    created.Quiz.ID,
		"taker_name": "Sam",
		"answers": []map[string]interface{}{
			{"question_id": created.Quiz.Questions[0].ID, "user_answer": "Blue"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var attempt models.QuizAttempt
	decode(t, w, &attempt)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/quiz-attempts/%d", attempt.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")

	var body struct {
		Data       models.QuizAttempt `json:"data"`
		ServerTime time.Time          `json:"server_time"`
	}
	decode(t, w, &body)
	assert.Equal(t, attempt.ID, body.Data.ID)
	assert.False(t, body.ServerTime.IsZero())

	w = s.do(t, http.MethodGet, "/quiz-attempts/99999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyAnswerCorruptDataIsServerError(t *testing.T) {
	s := newTestServer(t)
	created := s.createQuiz(t, "Alex")
	questionID := created.Quiz.Questions[0].ID

	err := s.db.Exec("UPDATE questions SET correct_answers = '{broken' WHERE id = ?", questionID).Error
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, fmt.Sprintf("/questions/%d/verify", questionID),
		map[string]interface{}{"answer": "blue"})
	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"corrupt stored data must not read as an incorrect answer")
}

func TestUploadWithoutMediaStore(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/upload", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
