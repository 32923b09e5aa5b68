package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v and verifies success
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// ValidationErrorResponse matches the 422 body
type ValidationErrorResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// AssertValidationErrors checks for a 422 whose errors name exactly fields.
func AssertValidationErrors(t *testing.T, resp *http.Response, fields ...string) ValidationErrorResponse {
	t.Helper()

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "unexpected status code")

	var body ValidationErrorResponse
	AssertJSONResponse(t, resp, &body)

	assert.NotEmpty(t, body.Message)
	got := make([]string, 0, len(body.Errors))
	for field := range body.Errors {
		got = append(got, field)
	}
	assert.ElementsMatch(t, fields, got, "unexpected error fields")
	return body
}

// AssertMessage checks the status and the {"message": ...} body.
func AssertMessage(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	var body struct {
		Message string `json:"message"`
	}
	AssertJSONResponse(t, resp, &body)
	assert.Equal(t, expectedMessage, body.Message, "message mismatch")
}
