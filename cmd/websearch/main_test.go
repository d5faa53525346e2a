package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestCrawlCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "websearch",
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Action: crawlCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:     "seed",
						Aliases:  []string{"s"},
						Required: true,
					},
				},
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		err := app.Run([]string{"websearch", "crawl", "--seed", "https://www.kth.se"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("missing seed flag fails", func(t *testing.T) {
		err := app.Run([]string{"websearch", "crawl", "--db", "/tmp/test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "seed")
	})
}

func TestSeedDomains(t *testing.T) {
	t.Run("extracts and deduplicates", func(t *testing.T) {
		domains, err := seedDomains([]string{
			"https://www.kth.se/utbildning",
			"https://www.kth.se/student",
			"https://www.uu.se",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"www.kth.se", "www.uu.se"}, domains)
	})

	t.Run("rejects unparseable seed", func(t *testing.T) {
		_, err := seedDomains([]string{"not a url"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid seed URL")
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
