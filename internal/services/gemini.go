package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"contextchat/internal/models"
)

// contentGenerator is the subset of *genai.GenerativeModel used for chat.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type GeminiService struct {
	client    *genai.Client
	model     contentGenerator
	modelName string
	limits    Limits
}

func NewGeminiService(apiKey, modelName string, limits Limits) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key must not be empty")
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, errors.New("gemini model name must not be empty")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiService{
		client:    client,
		model:     client.GenerativeModel(modelName),
		modelName: modelName,
		limits:    limits,
	}, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *GeminiService) ModelName() string {
	return s.modelName
}

// Answer builds the grounded prompt and makes exactly one model call.
func (s *GeminiService) Answer(ctx context.Context, req models.PromptRequest) (string, error) {
	if err := validatePromptRequest(req, s.limits); err != nil {
		return "", err
	}

	prompt := BuildChatPrompt(req.Context, req.Message)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", newChatError(classifyUpstreamError(err), "generate_content", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", newChatError(ErrorUpstreamRejected, "no_candidates", nil)
	}

	for i, cand := range resp.Candidates {
		if cand.FinishReason != genai.FinishReasonStop {
			log.Printf("WARNING: Gemini candidate %d stopped due to %s", i, cand.FinishReason)
		}
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		return "", newChatError(ErrorUpstreamRejected, "empty_response", nil)
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}

// classifyUpstreamError maps a GenerateContent failure onto an ErrorKind.
func classifyUpstreamError(err error) ErrorKind {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return ErrorUpstreamRejected
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorUpstreamUnavailable
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return kindForHTTPStatus(code)
		}
		return kindForGRPCCode(apiErr.GRPCStatus().Code())
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return kindForHTTPStatus(gErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorUpstreamUnavailable
	}

	return ErrorInternal
}

func kindForHTTPStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests, code >= 500:
		return ErrorUpstreamUnavailable
	case code >= 400:
		return ErrorUpstreamRejected
	default:
		return ErrorInternal
	}
}

func kindForGRPCCode(code codes.Code) ErrorKind {
	switch code {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Internal, codes.Aborted:
		return ErrorUpstreamUnavailable
	case codes.InvalidArgument, codes.PermissionDenied, codes.Unauthenticated, codes.FailedPrecondition, codes.NotFound:
		return ErrorUpstreamRejected
	default:
		return ErrorInternal
	}
}
