package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"contextchat/internal/chatview"
	"contextchat/internal/config"
	"contextchat/internal/services"
	"contextchat/internal/tui"
)

func main() {
	configPath := flag.String("config", config.DefaultClientConfigPath(), "path to the client config file")
	gatewayURL := flag.String("gateway", "", "gateway base URL (overrides config)")
	timeout := flag.Duration("timeout", 0, "request timeout, 0 for none (overrides config)")
	contextText := flag.String("context", "", "initial context text")
	contextFile := flag.String("context-file", "", "load context from a .txt, .md, .pdf or .docx file")
	contextYouTube := flag.String("context-youtube", "", "load context from a YouTube video transcript (URL or ID)")
	flag.Parse()

	if err := run(*configPath, *gatewayURL, *timeout, *contextText, *contextFile, *contextYouTube); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, gatewayURL string, timeout time.Duration, contextText, contextFile, contextYouTube string) error {
	cfg, err := config.LoadClientConfig(configPath)
	if err != nil {
		return err
	}
	cfg.ApplyFlags(gatewayURL, timeout)

	ctx := context.Background()

	initialContext, err := loadContext(ctx, cfg.Context, contextText, contextFile, contextYouTube)
	if err != nil {
		return err
	}

	client, err := chatview.NewClient(cfg.GatewayURL, chatview.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
	if err != nil {
		return err
	}

	// The alt screen owns stdout; logs go to a file only when asked for.
	if os.Getenv("CONTEXTCHAT_DEBUG") != "" {
		f, err := tea.LogToFile("contextchat-debug.log", "chat")
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	conv := chatview.NewConversation()
	conv.SetContext(initialContext)

	p := tea.NewProgram(tui.NewModel(ctx, conv, client), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// loadContext picks the initial context. Later sources win: config file,
// -context, -context-file, then -context-youtube.
func loadContext(ctx context.Context, fromConfig, text, file, youtube string) (string, error) {
	result := fromConfig
	if text != "" {
		result = text
	}

	if file != "" {
		fmt.Fprintf(os.Stderr, "Reading context from %s...\n", file)
		extracted, err := services.NewFileExtractService().ExtractTextFromPath(file)
		if err != nil {
			return "", fmt.Errorf("failed to load context file: %w", err)
		}
		result = extracted
	}

	if youtube != "" {
		fmt.Fprintf(os.Stderr, "Fetching transcript for %s...\n", youtube)
		fetchCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		transcript, err := services.NewYouTubeService().GetTranscript(fetchCtx, youtube)
		if err != nil {
			return "", fmt.Errorf("failed to load YouTube transcript: %w", err)
		}
		result = transcript
	}

	return strings.TrimSpace(result), nil
}
