package httpresp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/gin-gonic/gin"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestStatusFor_KnownAndUnknownCodes(t *testing.T) {
	if StatusFor(apierr.CodeNotFound) != http.StatusNotFound {
		t.Error("expected CodeNotFound to map to 404")
	}
	if StatusFor(apierr.CodeRateLimit) != http.StatusTooManyRequests {
		t.Error("expected CodeRateLimit to map to 429")
	}
	if StatusFor(apierr.Code("unmapped")) != http.StatusInternalServerError {
		t.Error("expected an unmapped code to default to 500")
	}
}

func TestError_WritesUniformBodyAndAborts(t *testing.T) {
	c, w := newTestContext()
	c.Set("request_id", "req-123")

	Error(c, apierr.ErrJobNotFound)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("expected the request chain to be aborted")
	}

	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != string(apierr.CodeNotFound) {
		t.Errorf("expected error tag %q, got %q", apierr.CodeNotFound, body.Error)
	}
	if body.RequestID != "req-123" {
		t.Errorf("expected requestId to propagate, got %q", body.RequestID)
	}
}

func TestError_OmitsDetailsUnlessEnabled(t *testing.T) {
	c, w := newTestContext()
	Error(c, apierr.Wrap(apierr.CodeInternal, "boom", nil))

	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Details != "" {
		t.Errorf("expected no details by default, got %q", body.Details)
	}
}
