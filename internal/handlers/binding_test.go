package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitek/habitek-api/internal/services"
)

type TestStruct struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    TestStruct
		expectError bool
	}{
		{
			name:        "Nested Structure",
			key:         "data",
			body:        `{"data": {"name": "Alice", "age": 30}}`,
			expected:    TestStruct{Name: "Alice", Age: 30},
			expectError: false,
		},
		{
			name:        "Flat Structure",
			key:         "data",
			body:        `{"name": "Bob", "age": 25}`,
			expected:    TestStruct{Name: "Bob", Age: 25},
			expectError: false,
		},
		{
			name:        "Nested Structure with Missing Key Fallback",
			key:         "data",
			body:        `{"other": "value", "name": "Charlie", "age": 40}`,
			expected:    TestStruct{Name: "Charlie", Age: 40},
			expectError: false,
		},
		{
			name:        "Nested Structure with Different Key",
			key:         "payment",
			body:        `{"payment": {"name": "David", "age": 35}}`,
			expected:    TestStruct{Name: "David", Age: 35},
			expectError: false,
		},
		{
			name:        "Invalid JSON",
			key:         "data",
			body:        `{"name": "Eve", "age": "invalid"}`, // age is int
			expected:    TestStruct{},
			expectError: true,
		},
		{
			name:        "Nested but Invalid Content",
			key:         "data",
			body:        `{"data": {"name": "Frank", "age": "invalid"}}`,
			expected:    TestStruct{},
			expectError: true,
		},
		{
			name:        "Nested Key Present but Invalid Type",
			key:         "data",
			body:        `{"data": "some string"}`,
			expected:    TestStruct{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result TestStruct
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Not Found", services.ErrNotFound, http.StatusNotFound},
		{"Validation", fmt.Errorf("%w: amount must be positive", services.ErrValidation), http.StatusUnprocessableEntity},
		{"Conflict", services.ErrConflict, http.StatusConflict},
		{"Invalid State", services.ErrInvalidState, http.StatusConflict},
		{"Unauthorized", services.ErrUnauthorized, http.StatusForbidden},
		{"Invalid Recovery Code", services.ErrInvalidRecoveryCode, http.StatusUnprocessableEntity},
		{"Unexpected", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondServiceError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestParseListQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=3&per_page=50&search_term=torre&building_id=5&status=", nil)

	query := parseListQuery(c, "building_id", "status")

	assert.Equal(t, 3, query.Page)
	assert.Equal(t, 50, query.PerPage)
	assert.Equal(t, "torre", query.Search)
	assert.Equal(t, "5", query.Filters["building_id"])
	// Empty filter values are dropped
	_, ok := query.Filters["status"]
	assert.False(t, ok)
}

func TestParseListQueryDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/", nil)

	query := parseListQuery(c)

	assert.Equal(t, 1, query.Page)
	assert.Equal(t, 20, query.PerPage)
	assert.Empty(t, query.Filters)
}

func TestPaginationResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=2&per_page=20", nil)

	envelope := paginationResponse(parseListQuery(c), 41)

	assert.Equal(t, int64(41), envelope["total"])
	assert.Equal(t, int64(3), envelope["total_pages"])
	assert.Equal(t, 2, envelope["page"])
}
