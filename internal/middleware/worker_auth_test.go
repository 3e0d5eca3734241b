package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doc-intake-api/internal/models"
)

const testSecret = "test_worker_secret"

func workerRouter(secret string) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	var seenWorker string
	router := gin.New()
	router.Use(WorkerAuth(secret))
	router.POST("/claim", func(c *gin.Context) {
		claims, ok := CurrentWorker(c)
		if ok {
			seenWorker = claims.WorkerID
		}
		c.Status(http.StatusNoContent)
	})
	return router, &seenWorker
}

func TestWorkerAuthValidToken(t *testing.T) {
	token, err := IssueWorkerToken("worker-7", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router, seenWorker := workerRouter(testSecret)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
	if *seenWorker != "worker-7" {
		t.Fatalf("unexpected worker id: %s", *seenWorker)
	}
}

func TestWorkerAuthMissingHeader(t *testing.T) {
	router, _ := workerRouter(testSecret)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", nil)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestWorkerAuthMalformedHeader(t *testing.T) {
	router, _ := workerRouter(testSecret)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestWorkerAuthWrongSecret(t *testing.T) {
	token, err := IssueWorkerToken("worker-7", "other_secret", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	router, _ := workerRouter(testSecret)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestWorkerAuthExpiredToken(t *testing.T) {
	token, err := IssueWorkerToken("worker-7", testSecret, time.Nanosecond)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	router, _ := workerRouter(testSecret)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/claim", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestCurrentWorkerMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if _, ok := CurrentWorker(c); ok {
		t.Fatal("expected no worker claims")
	}

	c.Set(ContextWorkerKey, &models.WorkerClaims{WorkerID: "worker-1"})
	claims, ok := CurrentWorker(c)
	if !ok || claims.WorkerID != "worker-1" {
		t.Fatalf("unexpected claims: %+v ok=%v", claims, ok)
	}
}
