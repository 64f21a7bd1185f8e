package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tribaltrek/pulse/internal/config"
	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Feedback{}, &models.AlertChannel{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	// No providers configured: analysis runs on the rule-based path.
	ai := services.NewAIService(&config.AIConfig{TimeoutSeconds: 1})
	queue := services.NewSyncQueue()
	alerts := services.NewAlertService(db, queue)
	trends := services.NewTrendMonitor(100)
	trends.SetAlertFunc(alerts.NotifyTrend)
	feedbackSvc := services.NewFeedbackService(db, ai, trends, alerts)
	statsSvc := services.NewStatsService(db)
	h := NewFeedbackHandler(feedbackSvc, statsSvc, trends)

	r := gin.New()
	api := r.Group("/api")
	api.POST("/feedback", h.Create)
	api.GET("/feedback", h.List)
	api.PUT("/feedback", h.Update)
	api.GET("/feedback/stats", h.Stats)
	api.GET("/feedback/trends", h.Trends)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func validSubmission(text string, rating int) map[string]interface{} {
	return map[string]interface{}{
		"userId":       "u-1",
		"userName":     "Asha",
		"location":     "Shillong",
		"category":     "Accommodation",
		"rating":       rating,
		"textFeedback": text,
	}
}

func TestCreateFeedback_EndToEnd(t *testing.T) {
	r := setupRouter(t)

	body := validSubmission("The homestay was clean and the hosts were wonderful", 5)
	w := postJSON(t, r, "/api/feedback", body)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, expected 201, body: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Feedback          models.Feedback `json:"feedback"`
		ChatbotResponse   string          `json:"chatbotResponse"`
		FollowUpQuestions []string        `json:"followUpQuestions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Feedback.ID == 0 {
		t.Error("created record should have an ID")
	}
	if resp.Feedback.Reference == "" {
		t.Error("created record should have a public reference")
	}
	if resp.Feedback.Sentiment != models.SentimentPositive {
		t.Errorf("Sentiment = %q, expected positive", resp.Feedback.Sentiment)
	}
	if resp.ChatbotResponse == "" {
		t.Error("response should include a chatbot reply")
	}
	if len(resp.FollowUpQuestions) == 0 {
		t.Error("response should include follow-up questions")
	}
}

func TestCreateFeedback_ValidationErrors(t *testing.T) {
	r := setupRouter(t)

	cases := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing userId", map[string]interface{}{
			"userName": "A", "location": "X", "category": "Y", "rating": 3,
		}},
		{"rating too high", validSubmission("ok", 6)},
		{"rating zero", map[string]interface{}{
			"userId": "u", "userName": "A", "location": "X", "category": "Y", "rating": 0,
		}},
	}

	for _, c := range cases {
		w := postJSON(t, r, "/api/feedback", c.body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, expected 400", c.name, w.Code)
		}
		var resp map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: failed to parse response: %v", c.name, err)
		}
		if _, ok := resp["error"]; !ok {
			t.Errorf("%s: response should carry an error message", c.name)
		}
	}
}

func TestListFeedback_ShapeAndFilters(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 3; i++ {
		postJSON(t, r, "/api/feedback", validSubmission("wonderful scenic place", 5))
	}
	postJSON(t, r, "/api/feedback", validSubmission("dirty room and rude staff", 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/feedback?limit=2", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}

	var resp struct {
		Feedbacks       []models.Feedback     `json:"feedbacks"`
		Total           int64                 `json:"total"`
		SentimentStats  map[string]int64      `json:"sentimentStats"`
		SentimentTrends []services.TrendEntry `json:"sentimentTrends"`
		HasMore         bool                  `json:"hasMore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if resp.Total != 4 {
		t.Errorf("total = %d, expected 4", resp.Total)
	}
	if len(resp.Feedbacks) != 2 {
		t.Errorf("page size = %d, expected 2", len(resp.Feedbacks))
	}
	if !resp.HasMore {
		t.Error("hasMore should be true")
	}
	if resp.SentimentStats["positive"] != 3 || resp.SentimentStats["negative"] != 1 {
		t.Errorf("sentimentStats = %v, expected 3 positive / 1 negative", resp.SentimentStats)
	}
	if len(resp.SentimentTrends) != 4 {
		t.Errorf("sentimentTrends length = %d, expected 4", len(resp.SentimentTrends))
	}

	// Sentiment filter narrows both records and stats.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/api/feedback?sentiment=negative", nil)
	r.ServeHTTP(w, req)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse filtered response: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("filtered total = %d, expected 1", resp.Total)
	}
}

func TestUpdateFeedback_VendorResponse(t *testing.T) {
	r := setupRouter(t)

	w := postJSON(t, r, "/api/feedback", validSubmission("the food was bad", 2))
	var created struct {
		Feedback models.Feedback `json:"feedback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse creation response: %v", err)
	}

	update := map[string]interface{}{
		"feedbackId":         created.Feedback.ID,
		"responseFromVendor": "We are addressing this with the kitchen team.",
	}
	data, _ := json.Marshal(update)
	w = httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/feedback", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body: %s", w.Code, w.Body.String())
	}
	var updated models.Feedback
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("failed to parse update response: %v", err)
	}
	if updated.ResponseFromVendor != "We are addressing this with the kitchen team." {
		t.Errorf("ResponseFromVendor = %q, vendor reply not merged", updated.ResponseFromVendor)
	}
}

func TestUpdateFeedback_NotFound(t *testing.T) {
	r := setupRouter(t)

	update := map[string]interface{}{"feedbackId": 999, "flagged": true}
	data, _ := json.Marshal(update)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/feedback", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, expected 404", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["error"] != "Feedback not found" {
		t.Errorf("error = %q, expected %q", resp["error"], "Feedback not found")
	}
}

func TestFeedbackStats(t *testing.T) {
	r := setupRouter(t)

	for i := 0; i < 2; i++ {
		postJSON(t, r, "/api/feedback", validSubmission(fmt.Sprintf("lovely place %d", i), 5))
	}
	postJSON(t, r, "/api/feedback", validSubmission("terrible experience", 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/feedback/stats", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", w.Code)
	}
	var stats services.OverviewStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to parse stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d, expected 3", stats.Total)
	}
	if stats.Positive != 2 || stats.Negative != 1 {
		t.Errorf("stats = %+v, expected 2 positive / 1 negative", stats)
	}
}
