package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"studyhub-bot/internal/bot"
	"studyhub-bot/internal/config"
	"studyhub-bot/internal/contest"
	"studyhub-bot/internal/gateway/discord"
	"studyhub-bot/internal/infra/memory"
	pgstore "studyhub-bot/internal/infra/postgres"
	rediscache "studyhub-bot/internal/infra/redis"
	"studyhub-bot/internal/quiz"
	"studyhub-bot/internal/trivia"
)

// NewStartCmd builds the CLI subcommand to start the bot.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *configPath, *port)
		},
	}
}

func runBot(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token not configured")
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	poolTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	adapter, err := discord.NewAdapter(cfg.Discord.Token)
	if err != nil {
		return err
	}

	source := trivia.NewProvider(
		trivia.NewOpenTDBClient(cfg.Trivia.BaseURL),
		trivia.NewGenerativeClient(cfg.Generative.APIKey, cfg.Generative.APIURL, cfg.Generative.Model),
	)

	var questions quiz.QuestionProvider
	if redisClient != nil {
		questions = rediscache.NewQuestionCache(redisClient, source, poolTTL)
	} else {
		questions = memory.NewQuestionCache(source, poolTTL)
	}

	var store contest.Store = memory.NewContestStore()
	if pool != nil {
		store = pgstore.NewContestStore(pool)
	}

	quizzes := quiz.NewManager(adapter, questions, quiz.Options{
		CategoryChannel: cfg.Quiz.CategoryName,
		VerifiedRole:    cfg.Quiz.VerifiedRole,
		JoinTimeout:     config.Duration(cfg.Quiz.JoinTimeout, 10*time.Minute),
		QuestionTimeout: config.Duration(cfg.Quiz.QuestionTimeout, 30*time.Second),
		ResultsGrace:    config.Duration(cfg.Quiz.ResultsGrace, 2*time.Minute),
	})

	contests := contest.NewManager(adapter, store, contest.Options{
		GuildID:       cfg.Discord.GuildID,
		RewardRole:    cfg.Contest.RewardRole,
		ReactionEmoji: cfg.Contest.ReactionEmoji,
		Duration:      config.Duration(cfg.Contest.Duration, 72*time.Hour),
		RoleDuration:  config.Duration(cfg.Contest.RoleDuration, 72*time.Hour),
		CheckInterval: config.Duration(cfg.Contest.CheckInterval, time.Minute),
	})

	dispatcher := bot.NewDispatcher(adapter, quizzes, contests, cfg.Discord.CommandPrefix, cfg.Contest.AdminRole)
	adapter.BindHandlers(dispatcher)

	if err := adapter.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer adapter.Close()

	if err := contests.Initialize(ctx); err != nil {
		log.Printf("[Contest] initialize: %v", err)
	}
	contests.Start()
	defer contests.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting studyhub-bot, health endpoint on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start health server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
