package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsMiddleware(t *testing.T) {
	testCases := []struct {
		name           string
		origin         string
		userAgent      string
		path           string
		expectCors     bool
		expectedStatus int
	}{
		{
			name:       "AllowedOrigin",
			origin:     "https://sportlog.mvdwal.nl",
			expectCors: true,
		},
		{
			name:       "AllowedLocalhostOrigin",
			origin:     "http://localhost:5173",
			expectCors: true,
		},
		{
			name:           "NotAllowedOrigin",
			origin:         "https://www.notallowed.com",
			expectCors:     false,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:       "AllowedCurlUserAgent",
			userAgent:  "curl/8.4.0",
			expectCors: true,
		},
		{
			name:       "AllowedTestUserAgent",
			userAgent:  "test-agent",
			expectCors: true,
		},
		{
			name:           "NotAllowedUserAgent",
			userAgent:      "UnknownAgent/1.0",
			expectCors:     false,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:       "ExportPathAllowedFromAnywhere",
			path:       "/export/activities.csv",
			expectCors: true,
		},
		{
			name:           "UnknownPathUnknownAgent",
			userAgent:      "unknown-agent",
			path:           "/unknown/path",
			expectCors:     false,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := tc.path
			if path == "" {
				path = "/"
			}
			req := httptest.NewRequest("GET", path, nil)
			req.Header.Set("Origin", tc.origin)
			req.Header.Set("User-Agent", tc.userAgent)

			rr := httptest.NewRecorder()
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			Cors()(next).ServeHTTP(rr, req)

			if tc.expectCors {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, tc.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, tc.expectedStatus, rr.Code)
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
