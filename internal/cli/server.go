package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	rediscache "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/ratelimit"
	transport "quiz-attempt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the attempt service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
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
		defer redisClient.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	var store app.AttemptStore = memory.NewAttemptStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewQuizLoader(pool)

		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		store = postgres.NewAttemptStore(db)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var plays app.PlayRepository
	if redisClient != nil {
		plays = rediscache.NewPlayStore(redisClient, config.TTLDuration(cfg.Play.TTL, 2*time.Hour))
	} else {
		plays = memory.NewPlayStore()
	}

	attempts := app.NewAttemptService(quizRepo, store)
	playService := app.NewPlayService(plays, quizRepo, attempts)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	rules := cfg.RateLimit.Rules()
	var limitStore ratelimit.Store
	if cfg.RateLimit.Store == "redis" && redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient)
	} else {
		mem := ratelimit.NewMemoryStore()
		go mem.Run(runCtx, cfg.RateLimit.Sweep())
		limitStore = mem
	}
	limiter := ratelimit.NewLimiter(limitStore, rules)

	handler := transport.NewRouter(transport.RouterConfig{
		Attempts:       attempts,
		Plays:          playService,
		Limiter:        limiter,
		Auth:           transport.NewAuthenticator(cfg.Auth.JWTSecret),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting attempt service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal set of quiz data; production content comes from Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			Title:        "Warm-up",
			PassingScore: 50,
			Questions: []domain.Question{
				{
					ID:             "q1",
					Prompt:         "What is 2 + 2?",
					Options:        []string{"3", "4", "5"},
					CorrectIndices: []int{1},
					Points:         1,
				},
				{
					ID:             "q2",
					Prompt:         "Which of these are prime?",
					Options:        []string{"2", "4", "7", "9"},
					CorrectIndices: []int{0, 2},
					MultipleChoice: true,
					Points:         2,
					Explanation:    "2 and 7 have no divisors other than 1 and themselves.",
				},
			},
		},
		"quiz-timed": {
			ID:           "quiz-timed",
			Title:        "Capitals sprint",
			PassingScore: 60,
			TimeLimit:    60,
			Questions: []domain.Question{
				{ID: "c1", Prompt: "Capital of France?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectIndices: []int{0}},
				{ID: "c2", Prompt: "Capital of Italy?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectIndices: []int{1}},
				{ID: "c3", Prompt: "Capital of Spain?", Options: []string{"Paris", "Rome", "Madrid"}, CorrectIndices: []int{2}},
			},
		},
	}
}
