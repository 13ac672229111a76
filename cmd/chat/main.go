package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/w-h-a/assistant"
	"github.com/w-h-a/assistant/extractor"
	"github.com/w-h-a/assistant/extractor/html"
	"github.com/w-h-a/assistant/generator"
	googlegenerator "github.com/w-h-a/assistant/generator/google"
	openaigenerator "github.com/w-h-a/assistant/generator/openai"
	memorymanager "github.com/w-h-a/assistant/memory_manager"
	"github.com/w-h-a/assistant/memory_manager/munin"
	"github.com/w-h-a/assistant/memory_manager/providers/embedder"
	googleembedder "github.com/w-h-a/assistant/memory_manager/providers/embedder/google"
	openaiembedder "github.com/w-h-a/assistant/memory_manager/providers/embedder/openai"
	"github.com/w-h-a/assistant/memory_manager/providers/storer"
	sqlitestorer "github.com/w-h-a/assistant/memory_manager/providers/storer/sqlite"
	"github.com/w-h-a/assistant/retriever"
	"github.com/w-h-a/assistant/retriever/web"
	"github.com/w-h-a/assistant/searcher"
	"github.com/w-h-a/assistant/searcher/brave"
	googlesearcher "github.com/w-h-a/assistant/searcher/google"
	"github.com/w-h-a/assistant/searcher/serper"
	turnlog "github.com/w-h-a/assistant/turn_log"
	sqliteturnlog "github.com/w-h-a/assistant/turn_log/sqlite"
)

var (
	cfg struct {
		// Generator config
		Provider     string `help:"Generator and embedder provider" enum:"google,openai" default:"google" env:"PROVIDER"`
		GeneratorKey string `help:"API Key for the generator and embedder" default:"" env:"GEMINI_API_KEY"`
		Model        string `help:"Model identifier for the conversation" default:"gemini-2.0-flash"`
		HelperModel  string `help:"Model identifier for the query and synthesis helper" default:"gemini-2.0-pro"`
		Embedder     string `help:"Model identifier for the embedder" default:"embedding-001"`

		// Memory config
		MemoryLocation string `help:"Directory of the vector store" default:"./chroma_db"`

		// Web config
		Searcher       string `help:"Search provider" enum:"google,brave,serper" default:"google" env:"SEARCHER"`
		SearchKey      string `help:"API Key for the search provider" default:"" env:"GOOGLE_SEARCH_API_KEY"`
		SearchEngineId string `help:"Google programmable search engine id" default:"" env:"GOOGLE_SEARCH_ENGINE_ID"`
		Web            bool   `help:"Search the web for every message" default:"true" negatable:""`

		// Session config
		TurnLog   string `help:"SQLite file holding the chat history" default:"./data/myai.db"`
		SessionId string `help:"Optional fixed session identifier" default:""`
	}
)

func main() {
	// Parse inputs
	_ = godotenv.Load()
	_ = kong.Parse(&cfg)
	ctx := context.Background()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	// Create models
	var primary, helper generator.Conversational
	var emb embedder.Embedder

	embedderOpts := []embedder.Option{
		embedder.WithApiKey(cfg.GeneratorKey),
		embedder.WithModel(cfg.Embedder),
	}

	switch cfg.Provider {
	case "openai":
		primary = openaigenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.Model),
			generator.WithTemperature(0.8),
		)
		helper = openaigenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.HelperModel),
			generator.WithTemperature(0.1),
		)
		emb = openaiembedder.NewEmbedder(embedderOpts...)
	default:
		primary = googlegenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.Model),
			generator.WithMaxOutputTokens(512),
			generator.WithTemperature(0.8),
			generator.WithTopP(0.95),
			generator.WithTopK(40),
		)
		helper = googlegenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.HelperModel),
			generator.WithTemperature(0.1),
		)
		emb = googleembedder.NewEmbedder(embedderOpts...)
	}

	// Create memory manager
	mm := munin.NewMemoryManager(
		memorymanager.WithStorer(sqlitestorer.NewStorer(
			storer.WithLocation(cfg.MemoryLocation),
		)),
		memorymanager.WithEmbedder(emb),
	)

	// Create web retriever
	searcherOpts := []searcher.Option{searcher.WithApiKey(cfg.SearchKey)}

	var s searcher.Searcher
	switch cfg.Searcher {
	case "brave":
		s = brave.NewSearcher(searcherOpts...)
	case "serper":
		s = serper.NewSearcher(searcherOpts...)
	default:
		s = googlesearcher.NewSearcher(append(searcherOpts, googlesearcher.WithEngineId(cfg.SearchEngineId))...)
	}

	rt := web.NewRetriever(
		retriever.WithSearcher(s),
		retriever.WithExtractor(html.NewExtractor(extractor.WithUserAgent("Mozilla/5.0 (compatible; assistant/1.0)"))),
	)

	// Create assistant
	a := assistant.New(
		assistant.WithGenerator(primary),
		assistant.WithHelper(helper),
		assistant.WithMemory(mm),
		assistant.WithRetriever(rt),
		assistant.WithTurnLog(sqliteturnlog.NewTurnLog(turnlog.WithLocation(cfg.TurnLog))),
	)
	defer a.Close()

	sessionId, err := a.CreateSession(ctx, cfg.SessionId)
	if err != nil {
		log.Fatalf("❌ failed to start session: %v", err)
	}
	fmt.Printf("✅ Started Session: %s\n", sessionId)
	fmt.Println("Type a message and press enter. /web on|off toggles web search. An empty line exits.")

	withSearch := cfg.Web
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil && len(input) == 0 {
			fmt.Println("Goodbye!")
			return
		}
		input = strings.TrimSpace(input)
		if len(input) == 0 {
			fmt.Println("Goodbye!")
			return
		}

		if strings.HasPrefix(input, "/web") {
			switch strings.TrimSpace(strings.TrimPrefix(input, "/web")) {
			case "on":
				withSearch = true
			case "off":
				withSearch = false
			}
			fmt.Printf("🔎 Web search: %v\n", withSearch)
			continue
		}

		rsp, err := a.Chat(ctx, sessionId, input, withSearch)
		if err != nil {
			fmt.Println("Error generating response:", err)
			continue
		}
		fmt.Printf("%s\n", rsp.Text)
		fmt.Println("---")
	}
}
