package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"contextchat/internal/models"
	"contextchat/internal/services"
)

type stubChatService struct {
	reply string
	err   error
	calls int
	in    models.PromptRequest
}

func (s *stubChatService) Answer(_ context.Context, req models.PromptRequest) (string, error) {
	s.calls++
	s.in = req
	return s.reply, s.err
}

func postChat(t *testing.T, h *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var out models.PromptResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out.Message
}

// captureLog redirects the standard logger until the test ends.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestChatHandler_HappyPath(t *testing.T) {
	svc := &stubChatService{reply: "Hello!"}
	h := NewChatHandler(svc)

	rr := postChat(t, h, `{"message":"Hi","context":""}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Hello!", decodeMessage(t, rr))
	require.Equal(t, models.PromptRequest{Message: "Hi", Context: ""}, svc.in)
	require.Equal(t, 1, svc.calls)
}

func TestChatHandler_PassesContextVerbatim(t *testing.T) {
	svc := &stubChatService{reply: "ok"}
	h := NewChatHandler(svc)

	rr := postChat(t, h, `{"message":"  What changed?  ","context":"Line 1\nLine 2"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "  What changed?  ", svc.in.Message)
	require.Equal(t, "Line 1\nLine 2", svc.in.Context)
}

func TestChatHandler_UpstreamFailureIsOpaque(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		wantLog []string
	}{
		{
			"upstream unavailable",
			&services.ChatError{Kind: services.ErrorUpstreamUnavailable, Reason: "generate_content", Err: errors.New("dial tcp: connection refused")},
			[]string{"kind=UPSTREAM_UNAVAILABLE", "dial tcp: connection refused"},
		},
		{
			"upstream rejected",
			&services.ChatError{Kind: services.ErrorUpstreamRejected, Reason: "empty_response"},
			[]string{"kind=UPSTREAM_REJECTED", "empty_response"},
		},
		{
			"foreign error",
			errors.New("quota exceeded for project 1234"),
			[]string{"kind=INTERNAL_ERROR", "quota exceeded for project 1234"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLog(t)
			h := NewChatHandler(&stubChatService{err: tc.err})

			rr := postChat(t, h, `{"message":"Hi","context":""}`)

			require.Equal(t, http.StatusInternalServerError, rr.Code)
			require.Equal(t, "Error processing your request", decodeMessage(t, rr))
			for _, want := range tc.wantLog {
				require.Contains(t, logs.String(), want)
			}
		})
	}
}

func TestChatHandler_InvalidBodies(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		reason string
	}{
		{"not json", `hello`, "malformed JSON body"},
		{"truncated", `{"message":"Hi"`, "malformed JSON body"},
		{"array", `[]`, "malformed JSON body"},
		{"trailing data", `{"message":"Hi","context":""} {"junk":true} not json`, "malformed JSON body"},
		{"second object", `{"message":"Hi","context":""}{"message":"again","context":""}`, "malformed JSON body"},
		{"missing message", `{"context":"C"}`, "message is required"},
		{"null body", `null`, "message is required"},
		{"missing context", `{"message":"Hi"}`, "context is required"},
		{"message wrong type", `{"message":42,"context":""}`, "message must be a string"},
		{"context wrong type", `{"message":"Hi","context":{"a":1}}`, "context must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubChatService{reply: "unused"}
			h := NewChatHandler(svc)

			rr := postChat(t, h, tc.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Equal(t, "Invalid request: "+tc.reason, decodeMessage(t, rr))
			require.Equal(t, 0, svc.calls, "service must not be called for invalid input")
		})
	}
}

func TestChatHandler_BodyTooLarge(t *testing.T) {
	svc := &stubChatService{reply: "unused"}
	h := NewChatHandler(svc)

	body := `{"message":"` + strings.Repeat("a", maxChatBodyBytes) + `","context":""}`
	rr := postChat(t, h, body)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid request: body is too large", decodeMessage(t, rr))
	require.Equal(t, 0, svc.calls)
}

func TestChatHandler_ServiceValidationIsBadRequest(t *testing.T) {
	svc := &stubChatService{err: services.InvalidInput("message is required", nil)}
	h := NewChatHandler(svc)

	rr := postChat(t, h, `{"message":"   ","context":""}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, "Invalid request: message is required", decodeMessage(t, rr))
}
