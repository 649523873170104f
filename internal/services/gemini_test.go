package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"

	"contextchat/internal/models"
)

type fakeGenerator struct {
	resp     *genai.GenerateContentResponse
	err      error
	calls    int
	lastText string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.calls++
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			f.lastText = string(t)
		}
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: content, FinishReason: genai.FinishReasonStop}},
	}
}

func newTestGemini(gen contentGenerator) *GeminiService {
	return &GeminiService{model: gen, modelName: "test-model", limits: Limits{MaxMessageLength: 50, MaxContextLength: 200}}
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	var chatErr *ChatError
	require.ErrorAs(t, err, &chatErr)
	require.Equal(t, kind, chatErr.Kind)
}

func TestNewGeminiService_ValidatesArguments(t *testing.T) {
	_, err := NewGeminiService("", "gemini-2.0-flash", Limits{})
	require.Error(t, err)

	_, err = NewGeminiService("key", " ", Limits{})
	require.Error(t, err)
}

func TestAnswer_HappyPath(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Hello!")}
	svc := newTestGemini(gen)

	out, err := svc.Answer(context.Background(), models.PromptRequest{Message: "Hi", Context: ""})
	require.NoError(t, err)
	require.Equal(t, "Hello!", out)
	require.Equal(t, 1, gen.calls)
	require.Contains(t, gen.lastText, "Question: Hi")
}

func TestAnswer_ConcatenatesTextParts(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("Go was ", "announced in 2009.")}
	svc := newTestGemini(gen)

	out, err := svc.Answer(context.Background(), models.PromptRequest{Message: "When?", Context: "Go history"})
	require.NoError(t, err)
	require.Equal(t, "Go was announced in 2009.", out)
}

func TestAnswer_ValidationSkipsModelCall(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("unused")}
	svc := newTestGemini(gen)

	_, err := svc.Answer(context.Background(), models.PromptRequest{Message: "   "})
	expectKind(t, err, ErrorInvalidInput)
	require.Equal(t, "message is required", ReasonOf(err))

	_, err = svc.Answer(context.Background(), models.PromptRequest{Message: strings.Repeat("a", 51)})
	expectKind(t, err, ErrorInvalidInput)
	require.Equal(t, "message is too long", ReasonOf(err))

	_, err = svc.Answer(context.Background(), models.PromptRequest{Message: "ok", Context: strings.Repeat("c", 201)})
	expectKind(t, err, ErrorInvalidInput)
	require.Equal(t, "context is too long", ReasonOf(err))

	require.Equal(t, 0, gen.calls)
}

func TestAnswer_LimitsCountRunes(t *testing.T) {
	gen := &fakeGenerator{resp: textResponse("ok")}
	svc := newTestGemini(gen)

	_, err := svc.Answer(context.Background(), models.PromptRequest{Message: strings.Repeat("é", 50)})
	require.NoError(t, err)
}

func TestAnswer_EmptyResponsesAreRejected(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{"blank text", textResponse("  \n")},
		{"no content", &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonMaxTokens}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestGemini(&fakeGenerator{resp: tc.resp})
			_, err := svc.Answer(context.Background(), models.PromptRequest{Message: "Hi"})
			expectKind(t, err, ErrorUpstreamRejected)
		})
	}
}

func TestAnswer_UpstreamErrorIsWrapped(t *testing.T) {
	upstream := &googleapi.Error{Code: 503, Message: "overloaded"}
	svc := newTestGemini(&fakeGenerator{err: upstream})

	_, err := svc.Answer(context.Background(), models.PromptRequest{Message: "Hi"})
	expectKind(t, err, ErrorUpstreamUnavailable)
	require.ErrorIs(t, err, upstream)
}

func TestClassifyUpstreamError(t *testing.T) {
	apiErr404, ok := apierror.FromError(&googleapi.Error{Code: 404})
	require.True(t, ok)
	apiErr429, ok := apierror.FromError(&googleapi.Error{Code: 429})
	require.True(t, ok)

	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"blocked by safety", &genai.BlockedError{Candidate: &genai.Candidate{FinishReason: genai.FinishReasonSafety}}, ErrorUpstreamRejected},
		{"blocked prompt wrapped", fmt.Errorf("generate: %w", &genai.BlockedError{PromptFeedback: &genai.PromptFeedback{}}), ErrorUpstreamRejected},
		{"deadline", context.DeadlineExceeded, ErrorUpstreamUnavailable},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), ErrorUpstreamUnavailable},
		{"api error 404", apiErr404, ErrorUpstreamRejected},
		{"api error 429", apiErr429, ErrorUpstreamUnavailable},
		{"googleapi 400", &googleapi.Error{Code: 400}, ErrorUpstreamRejected},
		{"googleapi 403", &googleapi.Error{Code: 403}, ErrorUpstreamRejected},
		{"googleapi 500", &googleapi.Error{Code: 500}, ErrorUpstreamUnavailable},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ErrorUpstreamUnavailable},
		{"unknown", errors.New("boom"), ErrorInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, classifyUpstreamError(tc.err))
		})
	}
}

func TestKindForGRPCCode(t *testing.T) {
	require.Equal(t, ErrorUpstreamUnavailable, kindForGRPCCode(codes.Unavailable))
	require.Equal(t, ErrorUpstreamUnavailable, kindForGRPCCode(codes.ResourceExhausted))
	require.Equal(t, ErrorUpstreamRejected, kindForGRPCCode(codes.PermissionDenied))
	require.Equal(t, ErrorUpstreamRejected, kindForGRPCCode(codes.InvalidArgument))
	require.Equal(t, ErrorInternal, kindForGRPCCode(codes.Unknown))
}

func TestKindOf(t *testing.T) {
	require.Equal(t, ErrorInternal, KindOf(errors.New("plain")))
	require.Equal(t, ErrorInvalidInput, KindOf(fmt.Errorf("wrapped: %w", InvalidInput("bad", nil))))
	require.Equal(t, "", ReasonOf(errors.New("plain")))
}

func TestChatError_Message(t *testing.T) {
	err := newChatError(ErrorUpstreamRejected, "generate_content", errors.New("quota"))
	require.Equal(t, "chat: UPSTREAM_REJECTED (generate_content): quota", err.Error())

	err = newChatError(ErrorInvalidInput, "message is required", nil)
	require.Equal(t, "chat: INVALID_INPUT (message is required)", err.Error())
}
