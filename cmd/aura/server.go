package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/auravoice/aura/internal/api"
	"github.com/auravoice/aura/internal/assistant"
	"github.com/auravoice/aura/internal/automation"
	"github.com/auravoice/aura/internal/chat"
	"github.com/auravoice/aura/internal/classify"
	"github.com/auravoice/aura/internal/config"
	"github.com/auravoice/aura/internal/imagegen"
	"github.com/auravoice/aura/internal/listener"
	"github.com/auravoice/aura/internal/llm"
	"github.com/auravoice/aura/internal/realtime"
	"github.com/auravoice/aura/internal/router"
	"github.com/auravoice/aura/internal/speech"
	"github.com/auravoice/aura/internal/status"
	"github.com/auravoice/aura/internal/storage"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the aura server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running aura server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show aura system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "aura.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

// imageQueue satisfies the router's image boundary by enqueueing a background
// generation job.
type imageQueue struct {
	store *storage.Store
}

func (q imageQueue) RequestImages(prompt string) (string, error) {
	return imagegen.Enqueue(q.store, prompt)
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "aura version %s\n", version)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.Log.Level, "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Write PID file. Check if server is already running via health endpoint.
	pidPath := pidFilePath(cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("aura is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("aura is already running on port %d", cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// serverCtx is additionally cancelled by a routed exit directive.
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Open storage.
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	st := status.NewStore()

	// Build the utterance pipeline: classifier, handlers, router, assistant.
	llmClient := llm.NewClient(cfg.LLM.OpenRouterAPIKey)
	classifier := classify.New(llmClient, cfg.LLM.ClassifierModel, nil, 0)
	chatEngine := chat.New(llmClient, cfg.LLM.ChatModel, store, cfg.Assistant.Name, cfg.Assistant.UserName)

	var searcher realtime.Searcher
	if cfg.Search.SerpAPIKey != "" {
		searcher = realtime.NewSerpClient(cfg.Search.SerpAPIKey)
	} else {
		slog.Info("no SerpAPI key configured, using scrape search")
		searcher = realtime.NewScrapeClient()
	}
	realtimeEngine := realtime.New(searcher, llmClient, cfg.LLM.ChatModel, store, cfg.Assistant.Name, cfg.Assistant.UserName)

	drafter := automation.NewDrafter(llmClient, cfg.LLM.ChatModel, filepath.Join(cfg.Storage.DataDir, "content"))
	browser := automation.NewExecBrowser()
	automator := automation.New(automation.ExecRunner{}, browser, drafter)

	var speaker router.Speaker
	if cfg.Speech.Enabled {
		parts := strings.Fields(cfg.Speech.Command)
		if len(parts) == 0 {
			parts = []string{""}
		}
		speaker = speech.NewCommandSpeaker(parts[0], parts[1:]...)
	} else {
		speaker = speech.NullSpeaker{}
	}

	rtr := router.New(st, chatEngine, realtimeEngine, automator, browser, imageQueue{store: store}, speaker, store, cancel)
	asst := assistant.New(classifier, rtr, st, store)

	// Start the image generation worker.
	if cfg.Image.HFAPIKey != "" {
		generator := imagegen.NewGenerator(imagegen.NewClient(cfg.Image.HFAPIKey), filepath.Join(cfg.Storage.DataDir, "images"))
		notifier := assistant.NewImageNotifier(st, speaker)
		worker := imagegen.NewWorker(store, generator, notifier, 500*time.Millisecond)
		go worker.Run(serverCtx)
	} else {
		slog.Warn("no Hugging Face API key configured, image generation disabled")
	}

	// Start the voice loop if a transcribe command is configured.
	if parts := strings.Fields(cfg.Listener.TranscribeCommand); len(parts) > 0 {
		st.SetMic(true)
		transcriber := listener.NewCommandTranscriber(parts[0], parts[1:]...)
		lst := listener.New(st, transcriber, asst, time.Duration(cfg.Listener.PollIntervalMS)*time.Millisecond)
		go func() {
			lst.Run(serverCtx)
			cancel()
		}()
		slog.Info("voice loop started", "command", parts[0])
	} else {
		slog.Info("no transcribe command configured, voice loop disabled")
	}

	// Build HTTP handler and server.
	handler := api.NewHandler(api.Deps{
		Status:    st,
		Store:     store,
		Assistant: asst,
		Token:     os.Getenv("AURA_API_TOKEN"),
	})
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server on its own port.
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Store:     store,
		Status:    st,
		Assistant: asst,
	})
	mcpHTTP := server.NewStreamableHTTPServer(mcpSrv)
	mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)
	go func() {
		slog.Info("MCP server listening", "addr", mcpAddr)
		if err := mcpHTTP.Start(mcpAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("MCP server error", "error", err)
		}
	}()

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "aura listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal, exit directive, or server error.
	select {
	case <-serverCtx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := mcpHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Warn("MCP server shutdown", "error", err)
	}
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("aura is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop aura (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to aura (PID %d)", pid)
	return nil
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}

	// Check server health.
	serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(serverURL + "/health")
	running := false
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == 200 {
			running = true
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	// Show the live status slots if the server is up.
	if running {
		if c, err := newAPIClient(); err == nil {
			if statusResp, err := c.get(ctx, "/status"); err == nil {
				var snapshot map[string]string
				if decodeJSON(statusResp, &snapshot) == nil {
					printStatus("Assistant", "%s", snapshot["status"])
					printStatus("Microphone", "%s", snapshot["mic"])
				}
			}
		}
	}

	printStatus("Chat model", "%s", cfg.LLM.ChatModel)
	printStatus("Classifier model", "%s", cfg.LLM.ClassifierModel)
	if cfg.Search.SerpAPIKey != "" {
		printStatus("Search", "SerpAPI")
	} else {
		printStatus("Search", "scrape fallback")
	}
	if cfg.Image.HFAPIKey != "" {
		printStatus("Images", "enabled")
	} else {
		printStatus("Images", "disabled (no API key)")
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
