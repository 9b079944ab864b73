package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	handler := NewPaymentHandler(nil, "supersecret")
	body := []byte(`{"reference":"pay_123","status":"succeeded"}`)

	assert.True(t, handler.verifySignature(body, signBody("supersecret", body)))
	assert.False(t, handler.verifySignature(body, signBody("wrongsecret", body)))
	assert.False(t, handler.verifySignature(body, ""))

	// Tampered body fails against the original signature
	sig := signBody("supersecret", body)
	assert.False(t, handler.verifySignature([]byte(`{"reference":"pay_999"}`), sig))

	// Without a configured secret nothing verifies
	unconfigured := NewPaymentHandler(nil, "")
	assert.False(t, unconfigured.verifySignature(body, signBody("", body)))
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(nil, "supersecret")
	body := []byte(`{"reference":"pay_123","status":"succeeded"}`)

	tests := []struct {
		name      string
		signature string
	}{
		{"Missing Signature", ""},
		{"Wrong Signature", signBody("wrongsecret", body)},
		{"Garbage Signature", "not-hex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/webhooks/payments", bytes.NewBuffer(body))
			if tt.signature != "" {
				c.Request.Header.Set("X-Webhook-Signature", tt.signature)
			}

			handler.Webhook(c)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestWebhookRejectsInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPaymentHandler(nil, "supersecret")

	tests := []struct {
		name string
		body string
	}{
		{"Not JSON", `reference=pay_123`},
		{"Missing Reference", `{"status":"succeeded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(tt.body)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/webhooks/payments", bytes.NewBuffer(body))
			c.Request.Header.Set("X-Webhook-Signature", signBody("supersecret", body))

			handler.Webhook(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
