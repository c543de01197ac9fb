package llm

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, SmartRetry, classifyStatus(http.StatusTooManyRequests))
	assert.Equal(t, SmartRetry, classifyStatus(http.StatusServiceUnavailable))
	assert.Equal(t, ConservativeRetry, classifyStatus(http.StatusInternalServerError))
	assert.Equal(t, ConservativeRetry, classifyStatus(http.StatusGatewayTimeout))
	assert.Equal(t, NoRetry, classifyStatus(http.StatusBadRequest))
	assert.Equal(t, NoRetry, classifyStatus(http.StatusUnauthorized))
}

func TestExtractRateLimitInfo_RetryAfterSeconds(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "5")
	info := extractRateLimitInfo(h)
	assert.Equal(t, 5*time.Second, info.RetryAfter)
}

func TestExtractRateLimitInfo_NoHeaderIsZero(t *testing.T) {
	info := extractRateLimitInfo(http.Header{})
	assert.Zero(t, info.RetryAfter)
}

func TestRetryTransport_Backoff_HonorsRetryAfter(t *testing.T) {
	tr := newRetryTransport(nil, 3, time.Second, 30*time.Second)
	d := tr.backoff(0, RateLimitInfo{RetryAfter: 7 * time.Second})
	assert.Equal(t, 7*time.Second, d)
}

func TestRetryTransport_Backoff_CapsAtMaxDelay(t *testing.T) {
	tr := newRetryTransport(nil, 3, time.Second, 2*time.Second)
	d := tr.backoff(10, RateLimitInfo{})
	assert.LessOrEqual(t, d, 2*time.Second)
}

func TestCapDuration(t *testing.T) {
	assert.Equal(t, time.Second, capDuration(5*time.Second, time.Second))
	assert.Equal(t, 500*time.Millisecond, capDuration(500*time.Millisecond, time.Second))
	assert.Equal(t, time.Duration(0), capDuration(-time.Second, time.Second))
}

func TestRetryableError_Error_IncludesStatusAndAttempts(t *testing.T) {
	err := &RetryableError{StatusCode: 429, Message: "rate limited", Attempts: 3}
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "3 attempts")
}
