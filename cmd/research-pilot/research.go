package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-pilot/internal/fetch"
	"github.com/pdiddy/research-pilot/internal/model"
	"github.com/pdiddy/research-pilot/internal/pipeline"
	"github.com/pdiddy/research-pilot/internal/search"
	"github.com/pdiddy/research-pilot/pkg/types"
)

const defaultUserAgent = "research-pilot/0.1"

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run the full research pipeline on a topic",
	Long: `Research runs the complete pipeline: query planning, multi-backend search,
content extraction, analysis synthesis, report assembly, and rendering.
Rendered files land in the output directory, one per requested format.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("depth", "basic", "research depth: basic, intermediate, or comprehensive")
	researchCmd.Flags().StringSlice("format", []string{"markdown"}, "output formats: markdown, pdf")
	researchCmd.Flags().Int("max-sources", 0, "cap on sources carried into the report (0 = depth default)")
	researchCmd.Flags().Bool("visualize", false, "include figure placeholders in the report")
	researchCmd.Flags().String("output-dir", "output/reports", "directory for rendered reports")
	researchCmd.Flags().String("cache-dir", "", "directory for the page cache (empty disables caching)")
	researchCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "primary model identifier")
	researchCmd.Flags().Duration("timeout", 0, "overall run budget (default 180s)")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	depth, _ := cmd.Flags().GetString("depth")
	formats, _ := cmd.Flags().GetStringSlice("format")
	maxSources, _ := cmd.Flags().GetInt("max-sources")
	visualize, _ := cmd.Flags().GetBool("visualize")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	modelName, _ := cmd.Flags().GetString("model")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	topic := types.ResearchTopic{
		Topic:                strings.TrimSpace(args[0]),
		Depth:                types.Depth(strings.ToLower(depth)),
		MaxSources:           maxSources,
		IncludeVisualization: visualize,
	}
	for _, f := range formats {
		topic.OutputFormats = append(topic.OutputFormats, types.OutputFormat(strings.ToLower(f)))
	}

	anthropicKey := secretDefault("anthropic-api-key", viper.GetString("anthropic_api_key"))
	openaiKey := secretDefault("openai-api-key", viper.GetString("openai_api_key"))

	var providers []model.Provider
	if anthropicKey != "" {
		providers = append(providers, &model.AnthropicProvider{
			APIKey: anthropicKey,
			Model:  modelName,
			Client: &http.Client{Timeout: 60 * time.Second},
		})
	}
	if openaiKey != "" {
		providers = append(providers, model.NewOpenAIProvider(openaiKey, viper.GetString("openai_model"), ""))
	}
	chain := model.NewChain(providers, 3, log)

	cfg := types.PipelineConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: defaultUserAgent,
			},
			BraveAPIKey:           secretDefault("brave-api-key", viper.GetString("brave_api_key")),
			SerperAPIKey:          secretDefault("serper-api-key", viper.GetString("serper_api_key")),
			SemanticScholarAPIKey: secretDefault("semantic-scholar-api-key", viper.GetString("semantic_scholar_api_key")),
			EnableArxiv:           viper.GetBool("enable_arxiv"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{Timeout: 15 * time.Second},
			CacheDir:   cacheDir,
		},
		Render:  types.RenderConfig{OutputDir: outputDir},
		Timeout: timeout,
	}

	client := &http.Client{Timeout: cfg.Search.Timeout}
	backends := search.DefaultBackends(cfg.Search, client)
	aggregator := search.NewAggregator(backends, cfg.Search, log)

	var cache *fetch.Cache
	if cacheDir != "" {
		var err error
		cache, err = fetch.OpenCache(cacheDir, 0)
		if err != nil {
			return fmt.Errorf("opening page cache: %w", err)
		}
		defer cache.Close()
	}
	fetcher := fetch.NewFetcher(cfg.Fetch, cache, log)

	runner := pipeline.NewRunner(chain, aggregator, fetcher, cfg, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := runner.Research(ctx, topic, func(stage pipeline.Stage, message string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", stage, message)
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}
