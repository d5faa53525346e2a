// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	websearch "github.com/poiesic/websearch"
	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/crawler"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "websearch",
		Usage: "Self-hosted web search engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "Crawl the given seed URLs and index the pages",
				Action: crawlCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "seed",
						Aliases:  []string{"s"},
						Usage:    "Seed URL to start crawling from (repeatable)",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "allow-domain",
						Usage: "Domain the crawler may fetch from (repeatable, defaults to the seed domains)",
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of concurrent fetch workers",
						Value: 6,
					},
					&cli.DurationFlag{
						Name:  "domain-delay",
						Usage: "Minimum delay between fetches to the same domain",
						Value: 1 * time.Second,
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Maximum number of pages to fetch in total",
						Value: 10000,
					},
					&cli.IntFlag{
						Name:  "max-depth",
						Usage: "Maximum link depth from the seeds",
						Value: 5,
					},
					&cli.StringFlag{
						Name:  "user-agent",
						Usage: "User-Agent header sent with every fetch",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Stemming language for indexed text",
						Value: "swedish",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Query the index and print ranked results",
				Action:    searchCommand,
				ArgsUsage: "QUERY",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "max-results",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results to print",
						Value:   10,
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "Stemming language, must match the one used at crawl time",
						Value: "swedish",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print index size and freshness",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func crawlCommand(c *cli.Context) error {
	seeds := c.StringSlice("seed")

	cfg := crawler.DefaultConfig()
	cfg.AllowedDomains = c.StringSlice("allow-domain")
	cfg.Concurrency = c.Int("concurrency")
	cfg.DomainDelay = c.Duration("domain-delay")
	cfg.MaxTotalPages = c.Int("max-pages")
	cfg.MaxDepth = uint32(c.Int("max-depth"))
	if ua := c.String("user-agent"); ua != "" {
		cfg.UserAgent = ua
	}

	// Without an explicit allow list the crawl stays on the seed domains.
	if len(cfg.AllowedDomains) == 0 {
		domains, err := seedDomains(seeds)
		if err != nil {
			return err
		}
		cfg.AllowedDomains = domains
	}

	engine, err := websearch.New(c.String("db"),
		websearch.WithCrawlConfig(cfg),
		websearch.WithLanguage(c.String("language")))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Seeds: %s\n", strings.Join(seeds, ", "))
	fmt.Fprintf(os.Stderr, "Allowed domains: %s\n", strings.Join(cfg.AllowedDomains, ", "))
	fmt.Fprintln(os.Stderr)

	if err := engine.RunCrawl(ctx, seeds); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "crawl interrupted, frontier checkpointed")
		} else {
			return fmt.Errorf("crawl failed: %w", err)
		}
	}

	status := engine.CrawlStatus()
	fmt.Fprintf(os.Stderr, "Fetched: %d  Indexed: %d  Unchanged: %d  Skipped: %d  Failed: %d\n",
		status.Fetched, status.Indexed, status.Unchanged, status.Skipped, status.Failed)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	engine, err := websearch.New(c.String("db"),
		websearch.WithLanguage(c.String("language")))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	results, elapsed, err := engine.Search(context.Background(), query, c.Int("max-results"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%2d. %s (%.2f)\n    %s\n", r.Rank, r.Title, r.Score, r.URL)
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
	}
	fmt.Printf("\n%d results in %s\n", len(results), elapsed.Round(time.Millisecond))
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := websearch.New(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	health := engine.Health()
	stats := engine.Stats()

	fmt.Printf("Documents:      %d\n", health.DocumentCount)
	fmt.Printf("Terms:          %d\n", health.TermCount)
	fmt.Printf("Index size:     %d bytes\n", health.IndexSizeBytes)
	if health.LastCrawlTime.IsZero() {
		fmt.Printf("Last crawl:     never\n")
	} else {
		fmt.Printf("Last crawl:     %s\n", health.LastCrawlTime.Format(time.RFC3339))
	}
	fmt.Printf("Queries today:  %d\n", stats.QueriesToday)
	return nil
}

func seedDomains(seeds []string) ([]string, error) {
	seen := make(map[string]struct{})
	var domains []string
	for _, seed := range seeds {
		domain := core.DomainOf(seed)
		if domain == "" {
			return nil, fmt.Errorf("invalid seed URL %q", seed)
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		domains = append(domains, domain)
	}
	return domains, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
