package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/moriarty/internal/ai"
	"github.com/myrjola/moriarty/internal/broker"
	"github.com/myrjola/moriarty/internal/db"
	"github.com/myrjola/moriarty/internal/detective"
	"github.com/myrjola/moriarty/internal/envstruct"
	"github.com/myrjola/moriarty/internal/errors"
	"github.com/myrjola/moriarty/internal/logging"
	"github.com/myrjola/moriarty/internal/pprofserver"
	"github.com/myrjola/moriarty/internal/repositories"
	"github.com/myrjola/moriarty/internal/scenario"
	"github.com/myrjola/moriarty/internal/scheduler"
	"github.com/myrjola/moriarty/internal/scripthost"
	"github.com/myrjola/moriarty/internal/werewolf"
)

type config struct {
	Addr          string `env:"MORIARTY_ADDR" envDefault:"localhost:4000"`
	PprofPort     string `env:"MORIARTY_PPROF_PORT" envDefault:""`
	SQLiteURL     string `env:"MORIARTY_SQLITE_URL" envDefault:"./moriarty.sqlite"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY" envDefault:""`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:""`

	ScriptIntroduction   time.Duration `env:"MORIARTY_SCRIPT_INTRODUCTION" envDefault:"5s"`
	ScriptDiscussion     time.Duration `env:"MORIARTY_SCRIPT_DISCUSSION" envDefault:"5m"`
	ScriptSpeechInterval time.Duration `env:"MORIARTY_SCRIPT_SPEECH_INTERVAL" envDefault:"30s"`
	ScriptInvestigation  time.Duration `env:"MORIARTY_SCRIPT_INVESTIGATION" envDefault:"3m"`
	ScriptFinalReasoning time.Duration `env:"MORIARTY_SCRIPT_FINAL_REASONING" envDefault:"2m"`
}

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	sessions       *repositories.SessionRepository
	characters     *repositories.CharacterRepository
	messages       *repositories.MessageRepository
	scores         *repositories.ScoreRepository
	werewolf       *werewolf.Game
	detective      *detective.Game
	scripthost     *scripthost.Game
	streams        *broker.StreamBroker[string, string]
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))

	// A missing .env file is fine, the environment may be set another way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Error("load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(context.Background(), logger, os.LookupEnv); err != nil {
		logger.Error("server exited", errors.SlogError(err))
		os.Exit(1)
	}
}

// run wires the application and serves it until the context is cancelled or a
// termination signal arrives. Tests call it directly with a fake environment.
func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	if cfg.PprofPort != "" {
		// pprof listens on localhost only so it is not open to the world.
		pprofserver.Launch(cfg.PprofPort, logger)
	}

	database, err := db.NewDatabase(cfg.SQLiteURL)
	if err != nil {
		return errors.Wrap(err, "open database")
	}
	defer func() {
		if closeErr := database.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close database", errors.SlogError(closeErr))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(database.ReadWrite.DB, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	sessions := repositories.NewSessionRepository(database, logger)
	characters := repositories.NewCharacterRepository(database, logger)
	messages := repositories.NewMessageRepository(database, logger)
	states := repositories.NewStateRepository(database, logger)
	scores := repositories.NewScoreRepository(database, logger)

	completer := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, logger)
	generator := scenario.NewGenerator(completer, logger)

	sched := scheduler.New(logger)
	defer sched.Shutdown()

	streams := broker.NewStreamBroker[string, string]()
	go streams.Run()
	defer streams.Shutdown()

	timings := scripthost.Timings{
		Introduction:   cfg.ScriptIntroduction,
		Discussion:     cfg.ScriptDiscussion,
		SpeechInterval: cfg.ScriptSpeechInterval,
		Investigation:  cfg.ScriptInvestigation,
		FinalReasoning: cfg.ScriptFinalReasoning,
	}

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		sessions:       sessions,
		characters:     characters,
		messages:       messages,
		scores:         scores,
		werewolf:       werewolf.New(sessions, characters, messages, states, completer, logger),
		detective:      detective.New(sessions, characters, messages, states, scores, generator, completer, logger),
		scripthost:     scripthost.New(sessions, characters, messages, states, generator, completer, sched, timings, logger),
		streams:        streams,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}
