package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"coursecast/internal/config"
	"coursecast/internal/feed"
	"coursecast/internal/models"
	"coursecast/internal/overrides"
	"coursecast/internal/pipeline"
	"coursecast/internal/readinglist"
	"coursecast/internal/schedule"
	"coursecast/internal/source"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the pipeline and write the feed document",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		run, err := prepareRun(logger)
		if err != nil {
			return err
		}
		return run.generate(flagDryRun, flagOutput)
	},
}

// runContext holds everything a single generation needs. prepareRun fails
// on any configuration error before a file is processed.
type runContext struct {
	cfg     *config.Config
	root    string
	src     *source.DirSource
	deps    pipeline.Deps
	emitter *feed.Emitter
	logger  *log.Logger
}

func prepareRun(logger *log.Logger) (*runContext, error) {
	path := configPath()
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cfg.Root == "" {
		return nil, errors.New("config: root directory is required")
	}

	root, err := config.ResolvePath(path, cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	autoSpecPath, err := config.ResolvePath(path, cfg.AutoSpecPath)
	if err != nil {
		return nil, err
	}
	rules, err := schedule.LoadRules(autoSpecPath)
	if err != nil {
		return nil, err
	}

	overridesPath, err := config.ResolvePath(path, cfg.OverridesPath)
	if err != nil {
		return nil, err
	}
	ovr, err := overrides.Load(overridesPath)
	if err != nil {
		return nil, err
	}

	var readings readinglist.Store = readinglist.Empty{}
	if cfg.ReadingListPath != "" {
		rlPath, err := config.ResolvePath(path, cfg.ReadingListPath)
		if err != nil {
			return nil, err
		}
		store, err := readinglist.Open(rlPath)
		if err != nil {
			return nil, fmt.Errorf("reading list: %w", err)
		}
		readings = store
	}

	src := source.NewDir(root, logger)
	rc := &runContext{
		cfg:  cfg,
		root: root,
		src:  src,
		deps: pipeline.Deps{
			Config:    cfg,
			AutoSpec:  rules,
			Overrides: ovr,
			Readings:  readings,
			Details:   src.Details,
			Logger:    logger,
		},
		emitter: feed.New(models.ChannelMetadata{
			Title:       cfg.Feed.Title,
			Description: cfg.Feed.Description,
			Language:    cfg.Feed.Language,
			Author:      cfg.Feed.Author,
			Contact:     cfg.Feed.Contact,
			ArtworkURL:  cfg.Feed.ArtworkURL,
			Link:        cfg.Feed.Link,
		}, cfg.Feed.LinkBaseURL, cfg.Feed.PubdateYearRewrite),
		logger: logger,
	}
	return rc, nil
}

func (rc *runContext) generate(dryRun bool, output string) error {
	records, err := rc.src.ListFiles(*rc.cfg.IncludeSubfolders)
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	result, err := pipeline.Run(records, rc.deps)
	if err != nil {
		return err
	}

	printSummary(rc.logger, result.Summary)

	if dryRun {
		fmt.Println(episodeTable(result.Episodes))
		for _, ep := range result.Episodes {
			fmt.Printf("\n%s\n%s\n%s\n", ep.PublishedAt.Format(time.RFC1123Z), ep.Title, ep.Description)
		}
		return nil
	}

	document, err := rc.emitter.Render(result.Episodes)
	if err != nil {
		return fmt.Errorf("render feed: %w", err)
	}
	if err := os.WriteFile(output, document, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	rc.logger.Printf("wrote %d episodes to %s", len(result.Episodes), output)
	return nil
}

func printSummary(logger *log.Logger, s pipeline.Summary) {
	logger.Printf("listed=%d kept=%d filtered=%d skipped-overviews=%d importance-conflicts=%d",
		s.Listed, s.Kept, s.FilteredOut, s.SkippedOverviews, s.ImportantConflicts)
	for _, kind := range models.Kinds() {
		if n := s.ByKind[kind.String()]; n > 0 {
			logger.Printf("  %s: %d", kind, n)
		}
	}
}

func episodeTable(episodes []models.Episode) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"PUBLISHED", "GROUP", "KIND", "TITLE"})
	for _, ep := range episodes {
		tw.AppendRow(table.Row{
			ep.PublishedAt.Format("2006-01-02 15:04"),
			ep.GroupKey,
			ep.Kind.String(),
			ep.Title,
		})
	}
	return tw.Render()
}
