package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/marksync/internal/app"
	"github.com/MrSnakeDoc/marksync/internal/config"
	"github.com/MrSnakeDoc/marksync/internal/domain"
	"github.com/MrSnakeDoc/marksync/internal/engine"
	"github.com/MrSnakeDoc/marksync/internal/logger"
)

type bookmarkRow struct {
	ID          int64    `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	URL         string   `json:"url" yaml:"url"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type searchOutput struct {
	Total     int                `json:"total" yaml:"total"`
	Query     domain.SearchQuery `json:"query" yaml:"query"`
	Workspace string             `json:"workspace,omitempty" yaml:"workspace,omitempty"`
	Bookmarks []bookmarkRow      `json:"bookmarks" yaml:"bookmarks"`
}

var searchCmd = &cobra.Command{
	Use:   "search [text...]",
	Short: "Run one search against the server and print the results",
	Long: `Run one search against the server and print the results.

The stored credential and active workspace are used, so the results match
what the running client would show.

Examples:
  marksync search golang generics
  marksync search --tags go,dev --output yaml
  marksync search --keyword "#go or #rust" --workspace work
  marksync search --all --limit 20 --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryFromFlags(cmd, args)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		ws, _ := cmd.Flags().GetString("workspace")
		output, _ := cmd.Flags().GetString("output")
		if err := checkOutput(output); err != nil {
			return err
		}

		cfg := config.Load()
		log := logger.New(cfg.LogLevel, cfg.PrettyLog)
		defer func() { _ = log.Sync() }()

		core, err := app.NewCore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer core.Close()

		snap, err := core.SearchOnce(cmd.Context(), q, all, ws)
		if err != nil {
			return err
		}
		if ws := snap.Query.WorkspaceID; ws != "" && snap.Effective.Keyword == snap.Query.Search.Keyword {
			printWarning("workspace %q is unknown to the server or has no filter; searched without it", ws)
		}
		return renderSearch(cmd.OutOrStdout(), output, snap)
	},
}

func init() {
	f := searchCmd.Flags()
	f.String("keyword", "", "keyword expression, e.g. \"#go and not #old\"")
	f.String("tags", "", "comma-separated tags")
	f.String("title", "", "match on title")
	f.String("url", "", "match on URL")
	f.String("description", "", "match on description")
	f.String("semantic", "", "semantic search text")
	f.Float64("threshold", -1, "semantic similarity threshold between 0 and 1")
	f.Bool("exact", false, "exact matching")
	f.Int("limit", 0, "maximum number of results")
	f.Int("offset", 0, "results to skip")
	f.Bool("all", false, "list every bookmark when no predicate is set")
	f.String("workspace", "", "workspace id to search in")
	f.StringP("output", "o", "text", "output format: text, json or yaml")
}

func queryFromFlags(cmd *cobra.Command, args []string) (domain.SearchQuery, error) {
	f := cmd.Flags()
	q := domain.SearchQuery{Query: strings.Join(args, " ")}
	q.Keyword, _ = f.GetString("keyword")
	q.Tags, _ = f.GetString("tags")
	q.Title, _ = f.GetString("title")
	q.URL, _ = f.GetString("url")
	q.Description, _ = f.GetString("description")
	q.Semantic, _ = f.GetString("semantic")
	q.Exact, _ = f.GetBool("exact")
	q.Limit, _ = f.GetInt("limit")
	q.Offset, _ = f.GetInt("offset")
	if th, _ := f.GetFloat64("threshold"); th >= 0 {
		q.Threshold = &th
	}
	q = q.Canonical()
	if err := domain.Validate(q); err != nil {
		return domain.SearchQuery{}, err
	}
	return q, nil
}

func checkOutput(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
}

func renderSearch(w io.Writer, format string, snap engine.Snapshot) error {
	out := searchOutput{
		Total:     snap.Total,
		Query:     snap.Query.Search,
		Workspace: snap.Query.WorkspaceID,
		Bookmarks: make([]bookmarkRow, 0, len(snap.Bookmarks)),
	}
	for _, b := range snap.Bookmarks {
		out.Bookmarks = append(out.Bookmarks, bookmarkRow{
			ID:          b.ID,
			Title:       b.Title,
			URL:         b.URL,
			Description: b.Description,
			Tags:        b.Tags,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tURL\tTAGS")
	for _, b := range out.Bookmarks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Title, b.URL, strings.Join(b.Tags, ","))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d bookmarks\n", len(out.Bookmarks), out.Total)
	return err
}
