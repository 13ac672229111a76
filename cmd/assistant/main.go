package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/w-h-a/assistant"
	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/extractor/html"
	"github.com/w-h-a/assistant/extractor/readability"
	"github.com/w-h-a/assistant/generator"
	anthropicgenerator "github.com/w-h-a/assistant/generator/anthropic"
	googlegenerator "github.com/w-h-a/assistant/generator/google"
	openaigenerator "github.com/w-h-a/assistant/generator/openai"
	memorymanager "github.com/w-h-a/assistant/memory_manager"
	"github.com/w-h-a/assistant/memory_manager/munin"
	"github.com/w-h-a/assistant/memory_manager/providers/embedder"
	googleembedder "github.com/w-h-a/assistant/memory_manager/providers/embedder/google"
	openaiembedder "github.com/w-h-a/assistant/memory_manager/providers/embedder/openai"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	memorystorer "github.com/w-h-a/assistant/memory_manager/providers/storer/memory"
	neo4jstorer "github.com/w-h-a/assistant/memory_manager/providers/storer/neo4j"
	postgresstorer "github.com/w-h-a/assistant/memory_manager/providers/storer/postgres"
	qdrantstorer "github.com/w-h-a/assistant/memory_manager/providers/storer/qdrant"
	sqlitestorer "github.com/w-h-a/assistant/memory_manager/providers/storer/sqlite"
	"github.com/w-h-a/assistant/retriever"
	"github.com/w-h-a/assistant/retriever/web"
	"github.com/w-h-a/assistant/searcher"
	"github.com/w-h-a/assistant/searcher/brave"
	googlesearcher "github.com/w-h-a/assistant/searcher/google"
	"github.com/w-h-a/assistant/searcher/serper"
	"github.com/w-h-a/assistant/server"
	httpserver "github.com/w-h-a/assistant/server/http"
	turnlog "github.com/w-h-a/assistant/turn_log"
	sqliteturnlog "github.com/w-h-a/assistant/turn_log/sqlite"
)

var (
	cfg struct {
		// Logging config
		LogFormat string `help:"Log output format" enum:"text,json" default:"text" env:"LOG_FORMAT"`
		LogLevel  string `help:"Minimum log level" enum:"debug,info,warn,error" default:"info" env:"LOG_LEVEL"`

		// Server config
		Address string `help:"Address the http api listens on" default:":8000" env:"ADDRESS"`

		// Generator config
		Generator          string        `help:"Generator provider" enum:"google,openai,anthropic" default:"google" env:"GENERATOR"`
		GeneratorKey       string        `help:"API Key for the generator" default:"" env:"GEMINI_API_KEY"`
		GeneratorBaseURL   string        `help:"Optional base url for openai and anthropic generators" default:"" env:"GENERATOR_BASE_URL"`
		Model              string        `help:"Model identifier for the conversational generator" default:"gemini-2.0-flash" env:"MODEL"`
		HelperModel        string        `help:"Model identifier for the query and synthesis helper" default:"gemini-2.0-pro" env:"HELPER_MODEL"`
		SystemPromptFile   string        `help:"File holding the system instruction for conversations" default:"" env:"SYSTEM_PROMPT_FILE" type:"path"`
		MaxOutputTokens    int32         `help:"Maximum output tokens per reply" default:"512"`
		Temperature        float32       `help:"Sampling temperature for conversations" default:"0.8"`
		TopP               float32       `help:"Nucleus sampling for conversations" default:"0.95"`
		TopK               int32         `help:"Top-k sampling for conversations" default:"40"`
		HelperTemperature  float32       `help:"Sampling temperature for the helper" default:"0.1"`
		HelperOutputTokens int32         `help:"Maximum output tokens for the helper" default:"512"`
		GenerateTimeout    time.Duration `help:"Timeout for each model completion" default:"15s"`

		// Memory config
		Embedder           string        `help:"Embedder provider" enum:"google,openai" default:"google" env:"EMBEDDER"`
		EmbedderKey        string        `help:"API Key for the embedder" default:"" env:"EMBEDDER_API_KEY"`
		EmbedderModel      string        `help:"Model identifier for the embedder" default:"embedding-001" env:"EMBEDDER_MODEL"`
		Storer             string        `help:"Vector store provider" enum:"sqlite,memory,postgres,qdrant,neo4j" default:"sqlite" env:"STORER"`
		StorerLocation     string        `help:"Directory, dsn or url of the vector store" default:"./chroma_db" env:"STORER_LOCATION"`
		StorerKey          string        `help:"API Key for the vector store" default:"" env:"STORER_API_KEY"`
		StorerUser         string        `help:"Username for the vector store" default:"" env:"STORER_USER"`
		StorerPassword     string        `help:"Password for the vector store" default:"" env:"STORER_PASSWORD"`
		Collection         string        `help:"Collection holding conversation memory" default:"conversation_memory"`
		VectorSize         int           `help:"Embedding dimensions for stores that need them up front" default:"768"`
		RelevanceThreshold float64       `help:"Maximum cosine distance for a memory to count as relevant" default:"0.4"`
		MemoryResults      int           `help:"Nearest memories considered per message" default:"8"`
		MemoryTimeout      time.Duration `help:"Timeout for each memory store or retrieval" default:"10s"`

		// Web config
		Searcher         string        `help:"Search provider" enum:"google,brave,serper" default:"google" env:"SEARCHER"`
		SearchKey        string        `help:"API Key for the search provider" default:"" env:"GOOGLE_SEARCH_API_KEY"`
		SearchEngineId   string        `help:"Google programmable search engine id" default:"" env:"GOOGLE_SEARCH_ENGINE_ID"`
		Extractor        string        `help:"Content extractor" enum:"html,readability" default:"html" env:"EXTRACTOR"`
		UserAgent        string        `help:"User agent for page fetches" default:"Mozilla/5.0 (compatible; assistant/1.0)"`
		NetworkTimeout   time.Duration `help:"Timeout for each search and fetch" default:"10s"`
		MaxResults       int           `help:"Search results per query" default:"5"`
		MaxExtractions   int           `help:"Search results whose pages are extracted" default:"3"`
		MaxContentLength int           `help:"Characters kept per extracted page" default:"2000"`
		Parallelism      int           `help:"Concurrent page extractions" default:"3"`

		// Conversation config
		TurnLog   string `help:"SQLite file holding the chat history" default:"./data/myai.db" env:"TURN_LOG"`
		SeedTurns int    `help:"Persisted turns a new session starts with" default:"20"`
	}
)

func main() {
	// Load optional .env before parsing so env tags see it
	_ = godotenv.Load()
	_ = kong.Parse(&cfg)

	slog.SetDefault(slog.New(logHandler(cfg.LogFormat, cfg.LogLevel)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := assistant.New(
		assistant.WithGenerator(newGenerator(
			cfg.Model,
			generator.WithSystemInstruction(systemInstruction(ctx, cfg.SystemPromptFile)),
			generator.WithMaxOutputTokens(cfg.MaxOutputTokens),
			generator.WithTemperature(cfg.Temperature),
			generator.WithTopP(cfg.TopP),
			generator.WithTopK(cfg.TopK),
		)),
		assistant.WithHelper(newGenerator(
			cfg.HelperModel,
			generator.WithSystemInstruction("You help search the web. Turn user messages into precise search queries for the latest information, and summarize search results into context for another model."),
			generator.WithMaxOutputTokens(cfg.HelperOutputTokens),
			generator.WithTemperature(cfg.HelperTemperature),
		)),
		assistant.WithMemory(munin.NewMemoryManager(
			memorymanager.WithStorer(newStorer()),
			memorymanager.WithEmbedder(newEmbedder()),
			memorymanager.WithThreshold(cfg.RelevanceThreshold),
			memorymanager.WithLimit(cfg.MemoryResults),
			memorymanager.WithTimeout(cfg.MemoryTimeout),
		)),
		assistant.WithRetriever(web.NewRetriever(
			retriever.WithSearcher(newSearcher()),
			retriever.WithExtractor(newExtractor()),
			retriever.WithMaxResults(cfg.MaxResults),
			retriever.WithParallelism(cfg.Parallelism),
		)),
		assistant.WithTurnLog(sqliteturnlog.NewTurnLog(
			turnlog.WithLocation(cfg.TurnLog),
		)),
		assistant.WithMaxExtractions(cfg.MaxExtractions),
		assistant.WithMaxContentLength(cfg.MaxContentLength),
		assistant.WithSeedTurns(cfg.SeedTurns),
		assistant.WithGenerateTimeout(cfg.GenerateTimeout),
	)
	defer a.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := httpserver.NewServer(
		httpserver.NewRouter(a, reg),
		server.WithAddress(cfg.Address),
		httpserver.WithMiddleware(recoverer),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.ErrorContext(ctx, "http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.ErrorContext(shutdownCtx, "failed to stop http server", "error", err)
	}

	a.Wait()
}

func logHandler(format string, level string) slog.Handler {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	if format == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.NewTextHandler(os.Stderr, opts)
}

func systemInstruction(ctx context.Context, path string) string {
	if len(path) == 0 {
		return "You are a helpful, friendly assistant. Answer clearly and concisely."
	}

	b, err := os.ReadFile(path)
	if err != nil {
		detail := "failed to read system prompt"
		slog.ErrorContext(ctx, detail, "error", err)
		panic(detail)
	}

	return strings.TrimSpace(string(b))
}

func newGenerator(model string, opts ...generator.Option) generator.Conversational {
	opts = append(opts,
		generator.WithApiKey(cfg.GeneratorKey),
		generator.WithModel(model),
	)

	switch cfg.Generator {
	case "openai":
		if len(cfg.GeneratorBaseURL) > 0 {
			opts = append(opts, openaigenerator.WithBaseURL(cfg.GeneratorBaseURL))
		}
		return openaigenerator.NewGenerator(opts...)
	case "anthropic":
		if len(cfg.GeneratorBaseURL) > 0 {
			opts = append(opts, anthropicgenerator.WithBaseURL(cfg.GeneratorBaseURL))
		}
		return anthropicgenerator.NewGenerator(opts...)
	default:
		return googlegenerator.NewGenerator(opts...)
	}
}

func newEmbedder() embedder.Embedder {
	key := cfg.EmbedderKey
	if len(key) == 0 {
		key = cfg.GeneratorKey
	}

	opts := []embedder.Option{
		embedder.WithApiKey(key),
		embedder.WithModel(cfg.EmbedderModel),
	}

	switch cfg.Embedder {
	case "openai":
		return openaiembedder.NewEmbedder(opts...)
	default:
		opts = append(opts, googleembedder.WithTaskType(genai.TaskTypeRetrievalQuery))
		return googleembedder.NewEmbedder(opts...)
	}
}

func newStorer() storer.Storer {
	opts := []storer.Option{
		storer.WithLocation(cfg.StorerLocation),
		storer.WithApiKey(cfg.StorerKey),
		storer.WithCollection(cfg.Collection),
		storer.WithVectorSize(cfg.VectorSize),
	}

	switch cfg.Storer {
	case "memory":
		return memorystorer.NewStorer(opts...)
	case "postgres":
		return postgresstorer.NewStorer(opts...)
	case "qdrant":
		return qdrantstorer.NewStorer(opts...)
	case "neo4j":
		opts = append(opts, neo4jstorer.WithBasicAuth(cfg.StorerUser, cfg.StorerPassword))
		return neo4jstorer.NewStorer(opts...)
	default:
		return sqlitestorer.NewStorer(opts...)
	}
}

func newSearcher() searcher.Searcher {
	opts := []searcher.Option{
		searcher.WithApiKey(cfg.SearchKey),
		searcher.WithTimeout(cfg.NetworkTimeout),
	}

	switch cfg.Searcher {
	case "brave":
		return brave.NewSearcher(opts...)
	case "serper":
		return serper.NewSearcher(opts...)
	default:
		opts = append(opts, googlesearcher.WithEngineId(cfg.SearchEngineId))
		return googlesearcher.NewSearcher(opts...)
	}
}

func newExtractor() extractor.Extractor {
	opts := []extractor.Option{
		extractor.WithUserAgent(cfg.UserAgent),
		extractor.WithTimeout(cfg.NetworkTimeout),
	}

	switch cfg.Extractor {
	case "readability":
		return readability.NewExtractor(opts...)
	default:
		return html.NewExtractor(opts...)
	}
}
