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

	"reading-portal/internal/app"
	"reading-portal/internal/config"
	"reading-portal/internal/domain"
	"reading-portal/internal/infra/memory"
	pgcatalog "reading-portal/internal/infra/postgres"
	rediscatalog "reading-portal/internal/infra/redis"
	transport "reading-portal/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal server",
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
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.CatalogLoader = memory.NewStaticCatalogLoader(sampleCatalog())
	if pool != nil {
		loader = pgcatalog.NewCatalogLoader(pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var catalog app.Catalog
	if redisClient != nil {
		catalog = rediscatalog.NewCatalog(redisClient, loader, catalogTTL)
	} else {
		catalog = memory.NewCatalog(loader, catalogTTL)
	}

	var chatStore app.TranscriptStore
	if redisClient != nil {
		chatTTL := config.TTLDuration(cfg.Redis.ChatTTL, 24*time.Hour)
		chatStore = rediscatalog.NewChatStore(redisClient, chatTTL)
	} else {
		chatStore = memory.NewChatStore()
	}

	loadDelay := config.TTLDuration(cfg.Portal.LessonLoadDelay, 500*time.Millisecond)
	saveDelay := config.TTLDuration(cfg.Portal.SaveDelay, time.Second)

	views := app.NewLessonViews(catalog, loadDelay)
	editor := app.NewLessonEditor(catalog, app.SimulatedRemote(saveDelay))
	chat := app.NewChatService(chatStore)
	handler := transport.NewPortalHandler(catalog, views, editor, chat)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", handler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting reading portal on :%s", finalPort)
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

// sampleCatalog provides the built-in reading lessons; swap the loader for a
// Postgres-backed one in production.
func sampleCatalog() []domain.Lesson {
	base := time.Date(2024, time.September, 2, 9, 0, 0, 0, time.UTC)
	return []domain.Lesson{
		{
			ID:          "lesson-1",
			Title:       "Letter Sounds: B, D, and P",
			Description: "Learn to recognize and pronounce the letters B, D, and P through words and pictures.",
			Content:     "Welcome to today's reading lesson! We will practice the sounds B as in ball, D as in dog, and P as in pen.",
			FilePath:    "materials/letter-sounds.pdf",
			Difficulty:  domain.DifficultyEasy,
			UploadedBy:  "Ms. Johnson",
			CreatedAt:   base,
		},
		{
			ID:          "lesson-2",
			Title:       "Short Vowel Words",
			Description: "Read simple words built from short vowel sounds: bat, pen, dot, pad, big.",
			Content:     "Sound out each word slowly, then say it fast: bat, pen, dot, pad, big.",
			Difficulty:  domain.DifficultyEasy,
			UploadedBy:  "Ms. Johnson",
			CreatedAt:   base.AddDate(0, 0, 2),
		},
		{
			ID:          "lesson-3",
			Title:       "Story Time: Pat and Dot",
			Description: "A short story about Pat and a big dog named Dot, with questions to check understanding.",
			Content:     "Pat had a big dog. The dog's name was Dot. Dot can run and dig.",
			Difficulty:  domain.DifficultyMedium,
			UploadedBy:  "Mr. Alvarez",
			CreatedAt:   base.AddDate(0, 0, 5),
		},
		{
			ID:          "lesson-4",
			Title:       "Sight Words: Set One",
			Description: "Practice the first set of common sight words that appear in almost every story you will read.",
			Content:     "the, and, a, to, said, you, it, in, was, I",
			Difficulty:  domain.DifficultyMedium,
			UploadedBy:  "Mr. Alvarez",
			CreatedAt:   base.AddDate(0, 0, 7),
		},
		{
			ID:          "lesson-5",
			Title:       "Reading Comprehension: Short Stories",
			Description: "Read three short stories and answer questions about the characters and what happens in each one.",
			Content:     "Read each story twice. The first time, just read. The second time, look for the answers.",
			FilePath:    "materials/short-stories.pdf",
			Difficulty:  domain.DifficultyHard,
			UploadedBy:  "Ms. Johnson",
			CreatedAt:   base.AddDate(0, 0, 10),
		},
	}
}
