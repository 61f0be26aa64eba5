package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/lumen/internal"
	"github.com/starford/lumen/internal/gallery"
	"github.com/starford/lumen/internal/github"
	"github.com/starford/lumen/internal/models"
	"github.com/starford/lumen/internal/query"
	"github.com/starford/lumen/internal/registry"
	pkgconfig "github.com/starford/lumen/pkg/config"
)

func newApp(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return internal.NewApp(cfg)
}

func listSources(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	active := app.Gallery.ActiveSource()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREPOSITORY\tBRANCH\tKIND\t")
	for _, s := range app.Gallery.Sources() {
		kind := "custom"
		if s.BuiltIn {
			kind = "built-in"
		}
		marker := ""
		if s.ID == active.ID {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s/%s\t%s\t%s\t\n",
			s.ID, marker, s.DisplayName, s.Owner, s.Repo, s.Branch, kind)
	}
	return w.Flush()
}

func addSource(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	cand := registry.Candidate{
		DisplayName:        cmd.String("name"),
		Owner:              cmd.String("owner"),
		Repo:               cmd.String("repo"),
		Branch:             cmd.String("branch"),
		ExcludedFolders:    cmd.StringSlice("exclude"),
		AcceptedExtensions: cmd.StringSlice("ext"),
	}

	if raw := cmd.String("url"); raw != "" {
		ref, err := github.ParseRepoURL(raw)
		if err != nil {
			return err
		}
		cand.Owner = ref.Owner
		cand.Repo = ref.Repo
		if ref.Ref != "" {
			cand.Branch = ref.Ref
		}
		if cand.DisplayName == "" {
			cand.DisplayName = ref.Repo
		}
	}
	if cand.Branch == "" {
		cand.Branch = "main"
	}
	if len(cand.AcceptedExtensions) == 0 {
		cand.AcceptedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}
	}

	src, err := app.Gallery.AddSource(cand)
	if err != nil {
		return err
	}
	fmt.Printf("added source %s (%s/%s@%s)\n", src.ID, src.Owner, src.Repo, src.Branch)
	return nil
}

func removeSource(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: sources remove <id>")
	}
	if err := app.Gallery.RemoveSource(id); err != nil {
		return err
	}
	fmt.Printf("removed source %s (active: %s)\n", id, app.Gallery.ActiveSource().ID)
	return nil
}

func useSource(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: sources use <id>")
	}
	if err := app.Gallery.SetActive(id); err != nil {
		return err
	}
	fmt.Printf("active source is now %s\n", id)
	return nil
}

func listCategories(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	tree, err := app.Gallery.CategoryTree(ctx, cmd.String("source"))
	if err != nil {
		return err
	}
	for _, root := range tree.Roots {
		printCategory(root)
	}
	fmt.Printf("%d images total\n", tree.TotalImages())
	return nil
}

func printCategory(n *models.CategoryNode) {
	indent := strings.Repeat("  ", n.Depth)
	fmt.Printf("%s%s (%d/%d)\n", indent, n.Name, n.DirectCount, n.TotalCount)
	for _, child := range n.Children {
		printCategory(child)
	}
}

func browse(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.Gallery.Browse(ctx, gallery.BrowseRequest{
		SourceID:  cmd.String("source"),
		Category:  cmd.String("category"),
		Query:     cmd.String("query"),
		Sort:      query.SortOption(cmd.String("sort")),
		PageIndex: int(cmd.Int("page")),
		PageSize:  int(cmd.Int("page-size")),
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tSIZE\tURL\t")
	for _, img := range res.Images {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t\n", img.DisplayName, img.Category, img.ByteSize, img.RenderURL)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("page %d of %s: %d of %d images", res.PageIndex, res.Source.DisplayName, len(res.Images), res.Total)
	if res.Truncated {
		fmt.Print(" (listing truncated by remote)")
	}
	fmt.Println()
	return nil
}

func clearCache(_ context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	app.Gallery.ClearCache(cmd.String("source"))
	fmt.Println("cache cleared")
	return nil
}

func main() {
	sourceFlag := &cli.StringFlag{
		Name:  "source",
		Usage: "Source id (defaults to the active source)",
	}

	cmd := &cli.Command{
		Name:  "lumen",
		Usage: "Browse image galleries hosted in GitHub repositories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("LUMEN_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sources",
				Usage: "Manage gallery sources",
				Commands: []*cli.Command{
					{Name: "list", Usage: "List configured sources", Action: listSources},
					{
						Name:   "add",
						Usage:  "Register a custom source",
						Action: addSource,
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "url", Usage: "GitHub repository URL to parse"},
							&cli.StringFlag{Name: "name", Usage: "Display name"},
							&cli.StringFlag{Name: "owner", Usage: "Repository owner"},
							&cli.StringFlag{Name: "repo", Usage: "Repository name"},
							&cli.StringFlag{Name: "branch", Usage: "Branch or tree reference"},
							&cli.StringSliceFlag{Name: "ext", Usage: "Accepted file extension (repeatable)"},
							&cli.StringSliceFlag{Name: "exclude", Usage: "Excluded top-level folder (repeatable)"},
						},
					},
					{Name: "remove", Usage: "Remove a custom source", Action: removeSource},
					{Name: "use", Usage: "Set the active source", Action: useSource},
				},
			},
			{
				Name:   "categories",
				Usage:  "Show the category tree with image counts",
				Action: listCategories,
				Flags:  []cli.Flag{sourceFlag},
			},
			{
				Name:   "browse",
				Usage:  "List a page of images",
				Action: browse,
				Flags: []cli.Flag{
					sourceFlag,
					&cli.StringFlag{Name: "category", Usage: "Category path to filter by"},
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Free-text filter"},
					&cli.StringFlag{Name: "sort", Usage: "default|name-asc|name-desc|size-asc|size-desc", Value: "default"},
					&cli.IntFlag{Name: "page", Usage: "Zero-based page index"},
					&cli.IntFlag{Name: "page-size", Usage: "Images per page", Value: gallery.DefaultPageSize},
				},
			},
			{
				Name:  "cache",
				Usage: "Manage cached repository listings",
				Commands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Evict cached listings (one source, or all)",
						Action: clearCache,
						Flags:  []cli.Flag{sourceFlag},
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
