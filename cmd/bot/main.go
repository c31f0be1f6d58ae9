package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nebula/internal/adapter"
	"nebula/internal/agent"
	"nebula/internal/api"
	"nebula/internal/discord"
	"nebula/internal/memory"
	"nebula/internal/store"
	"nebula/internal/tokens"
	"nebula/internal/tools"
	"nebula/pkg/config"
	"nebula/pkg/logger"
)

func main() {
	// Load configuration first; the environment decides logger mode
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting Nebula...")

	if cfg.DiscordBotToken == "" {
		log.Fatal("DISCORD_TOKEN is required")
	}

	// Open the conversation store
	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer st.Close()

	// Initialize dependencies
	accountant := tokens.NewAccountant(st, cfg.MaxContextTokens)
	mem := memory.New(st, accountant)
	llm := adapter.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ModelID)
	search := tools.NewSearchClient(cfg.SearchAPIKey, cfg.SearchEngineID)
	if !search.Configured() {
		log.Warn("Web search credentials not set, search tool will report unavailable")
	}

	// Create Discord session
	dg, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		log.Fatal("Failed to create Discord session", zap.Error(err))
	}

	platform := discord.NewSessionAdapter(dg)
	executor := tools.NewExecutor(platform, st, search)
	sender := discord.NewSender(dg)

	systemPrompt := agent.LoadSystemPrompt(cfg.SystemPromptPath)
	orch := agent.NewOrchestrator(mem, llm, executor, sender, systemPrompt)

	// Register message handler
	handler := discord.NewHandler(orch, sender, log)
	dg.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		handler.HandleMessage(s, m)
	})

	// Required intents:
	// - IntentsGuilds: guild and channel metadata
	// - IntentsGuildMessages: read messages in guild channels
	// - IntentsGuildMembers: resolve members for moderation tools
	// - IntentMessageContent: read message text for mention handling
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsGuildMembers | discordgo.IntentMessageContent

	// Open connection
	if err := dg.Open(); err != nil {
		log.Fatal("Failed to open Discord connection", zap.Error(err))
	}
	defer dg.Close()

	log.Info("Nebula is running",
		zap.String("model", cfg.ModelID),
		zap.Int("max_context_tokens", cfg.MaxContextTokens),
	)

	// Status API
	statusAPI := api.New(st, accountant, log)
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: statusAPI.Router(cfg.IsProduction()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Status API listening", zap.String("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status API: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}

	log.Info("Shutting down Nebula...")
}
