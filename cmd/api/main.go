package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aria-assistant/aria/internal/api"
	"github.com/aria-assistant/aria/internal/auth"
	"github.com/aria-assistant/aria/internal/config"
	"github.com/aria-assistant/aria/internal/events"
	"github.com/aria-assistant/aria/internal/history"
	"github.com/aria-assistant/aria/internal/integrations"
	"github.com/aria-assistant/aria/internal/memory"
	"github.com/aria-assistant/aria/internal/middleware"
	"github.com/aria-assistant/aria/internal/providers"
	iredis "github.com/aria-assistant/aria/internal/redis"
	"github.com/aria-assistant/aria/internal/server"
	"github.com/aria-assistant/aria/internal/settings"
	"github.com/aria-assistant/aria/internal/speech"
	"github.com/aria-assistant/aria/internal/store"
	"github.com/aria-assistant/aria/internal/supaclient"
	"github.com/aria-assistant/aria/internal/synctask"
	"github.com/aria-assistant/aria/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// Supabase (optional; without it the assistant runs local-only)
	supaClient, err := supaclient.New(cfg.Supabase)
	if err != nil {
		slog.Error("configuring supabase client", "error", err)
		os.Exit(1)
	}

	// NATS (optional)
	var natsClient *events.Client
	if cfg.NATS.Enabled {
		natsClient, err = events.NewClient(ctx, cfg.NATS)
		if err != nil {
			slog.Error("connecting to nats", "error", err)
			os.Exit(1)
		}
		defer natsClient.Close()
	}
	var publisher *events.Publisher
	if natsClient != nil {
		publisher = events.NewPublisher(natsClient.JetStream())
	}

	// Background sync queue
	queue := synctask.New(128, publisher)
	syncHandler := synctask.NewHandler(queue)

	// Auth
	jwtManager := auth.NewJWTManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)
	encryptor, err := auth.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		slog.Error("configuring encryption", "error", err)
		os.Exit(1)
	}

	// Preference store
	prefs := store.New(redisClient)

	// Settings
	settingsSvc := settings.NewService(prefs, remoteSettings(supaClient))
	settingsHandler := settings.NewHandler(settingsSvc)

	// Chat history
	historySvc := history.NewService(
		history.NewLocalLog(redisClient),
		remoteHistory(supaClient),
		queue,
		cfg.Chat.MaxMessages,
	)

	// Providers and speech
	registry := providers.NewRegistry(cfg.Providers)
	ttsClient := tts.New(cfg.TTS.URL, cfg.TTS.APIKey, cfg.TTS.RequestTimeout)
	player := speech.NewEventPlayer(publisher, speech.DefaultVoices)
	sequencer := speech.NewSequencer(ttsClient, player, prefs)
	speechHandler := speech.NewHandler(sequencer)

	// Memories
	memorySvc := memory.NewService(memory.NewSupabaseRepository(supaClient))
	memoryHandler := memory.NewHandler(memorySvc)

	historyHandler := history.NewHandler(historySvc, registry, sequencer, memorySvc)

	// Integrations
	var integrationsHandler *integrations.Handler
	{
		repo := integrations.NewSupabaseRepository(supaClient)
		cache := integrations.NewCache(repo, cfg.Chat.CacheTTL)
		executor := integrations.NewExecutor(cfg.Providers.RequestTimeout, encryptor)
		svc := integrations.NewService(repo, cache, executor, encryptor)
		integrationsHandler = integrations.NewHandler(svc)
	}

	// Rate limiting on command execution
	rateLimiter := middleware.NewRateLimiter(redisClient,
		cfg.RateLimit.ExecuteMaxReqs, cfg.RateLimit.ExecuteWindowSec)

	// Router
	router := api.NewRouter(redisClient, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		ExecuteRateLimiter: rateLimiter.Middleware,
		SupabaseEnabled:    supaClient.Enabled(),
	}, api.HandlerSet{
		ListMessages:  historyHandler.List,
		AppendMessage: historyHandler.Append,
		ClearChat:     historyHandler.Clear,
		CompleteChat:  historyHandler.Complete,

		GetSettings:       settingsHandler.Get,
		UpdateSettings:    settingsHandler.Update,
		SyncAllSettings:   settingsHandler.SyncAll,
		ReconcileSettings: settingsHandler.Reconcile,

		ListIntegrations:  integrationsHandler.List,
		GetIntegration:    integrationsHandler.Get,
		CreateIntegration: integrationsHandler.Create,
		UpdateIntegration: integrationsHandler.Update,
		DeleteIntegration: integrationsHandler.Delete,
		ExecuteCommand:    integrationsHandler.Execute,
		CurrentOperation:  integrationsHandler.Current,

		ListMemories:   memoryHandler.List,
		SearchMemories: memoryHandler.Search,
		CreateMemory:   memoryHandler.Create,
		ClearMemories:  memoryHandler.Clear,

		Speak:        speechHandler.Speak,
		StopSpeaking: speechHandler.Stop,
		SpeechStatus: speechHandler.Status,
		ListVoices:   speechHandler.Voices,
		SaveVoice:    speechHandler.SaveVoice,

		RecentSyncTasks: syncHandler.Recent,
		GetSyncTask:     syncHandler.Get,

		AuthMiddleware: auth.Middleware(jwtManager),
	})

	// Start server
	srv := server.New(cfg.Server, router)
	srv.OnShutdown(func(ctx context.Context) {
		sequencer.StopAll()
		queue.Close(ctx)
	})
	if err := srv.Start(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// remoteSettings and remoteHistory return nil remotes when Supabase is not
// configured, which the services treat as local-only mode.
func remoteSettings(client *supaclient.Client) settings.Remote {
	if !client.Enabled() {
		return nil
	}
	return settings.NewSupabaseRemote(client)
}

func remoteHistory(client *supaclient.Client) history.Remote {
	if !client.Enabled() {
		return nil
	}
	return history.NewSupabaseRemote(client)
}

func setupLogger(cfg config.LogConfig) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
