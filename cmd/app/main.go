package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/othala/internal"
	"github.com/starford/othala/internal/history"
	"github.com/starford/othala/internal/notebook"
	pkgconfig "github.com/starford/othala/pkg/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "othala",
		Usage: "Personal knowledge base with typed Markdown notes, a reference graph, and git-backed history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("OTHALA_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "notebook",
				Aliases: []string{"n"},
				Usage:   "Notebook directory (overrides config)",
				Sources: cli.EnvVars("OTHALA_NOTEBOOK"),
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "SQLite cache path (overrides config)",
				Sources: cli.EnvVars("OTHALA_CACHE"),
			},
		},
		Commands: []*cli.Command{
			checkCommand(),
			listCommand(),
			showCommand(),
			linksCommand(),
			backlinksCommand(),
			newCommand(),
			searchCommand(),
			exportCommand(),
			watchCommand(),
			mcpCommand(),
			gitCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the config file (when present), then applies flag
// overrides and validates.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("notebook"); v != "" {
		cfg.Notebook.Path = v
	}
	if v := cmd.String("cache"); v != "" {
		cfg.Cache.Path = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *internal.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// withNotebook opens the notebook, runs a full rebuild, and hands the
// facade to fn.
func withNotebook(ctx context.Context, cmd *cli.Command, fn func(nb *notebook.Notebook) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Notebook.Path, 0o755); err != nil {
		return fmt.Errorf("create notebook dir: %w", err)
	}
	nb, err := notebook.Open(cfg.Notebook.Path, cfg.Cache.Path, newLogger(cfg))
	if err != nil {
		return err
	}
	defer nb.Close()
	if err := nb.Rebuild(ctx); err != nil {
		return err
	}
	return fn(nb)
}

// historyService builds the git service without indexing the notebook,
// for commands that never touch note ids.
func historyService(cmd *cli.Command) (*history.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return history.NewService(cfg.Notebook.Path, newLogger(cfg)), nil
}

func printResult(res history.Result) error {
	if !res.Success {
		return cli.Exit(res.Message, 1)
	}
	fmt.Println(res.Message)
	return nil
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Index the notebook and report integrity problems",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				fmt.Printf("%d notes indexed\n", nb.Len())
				failures := nb.Failures()
				conflicts := nb.Conflicts()
				for _, f := range failures {
					fmt.Printf("failure: %v\n", f)
				}
				for _, c := range conflicts {
					fmt.Printf("conflict: %v\n", c)
				}
				for _, e := range nb.Unresolved() {
					fmt.Printf("unresolved: %s -[%s]-> %s\n", e.Source, e.Kind, e.Target)
				}
				if len(failures) > 0 || len(conflicts) > 0 {
					return cli.Exit(fmt.Sprintf("%d failures, %d conflicts", len(failures), len(conflicts)), 1)
				}
				return nil
			})
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes as 'id<TAB>type<TAB>title' lines",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Filter by note type"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				notes := nb.AllNotes()
				if typ := cmd.String("type"); typ != "" {
					notes = nb.NotesByType(typ)
				}
				for _, n := range notes {
					fmt.Printf("%s\t%s\t%s\n", n.ID(), n.Type(), n.Title())
				}
				return nil
			})
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print the raw Markdown of a note",
		ArgsUsage: "ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return cli.Exit("usage: othala show ID", 1)
			}
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				data, err := nb.NoteContent(id)
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(data)
				return err
			})
		},
	}
}

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:      "links",
		Usage:     "List the typed references a note declares",
		ArgsUsage: "ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return cli.Exit("usage: othala links ID", 1)
			}
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				edges, err := nb.Outgoing(id)
				if err != nil {
					return err
				}
				for _, e := range edges {
					suffix := ""
					if !nb.Has(e.Target) {
						suffix = "\t(unresolved)"
					}
					fmt.Printf("%s\t%s%s\n", e.Kind, e.Target, suffix)
				}
				return nil
			})
		},
	}
}

func backlinksCommand() *cli.Command {
	return &cli.Command{
		Name:      "backlinks",
		Usage:     "List the notes referencing an id",
		ArgsUsage: "ID",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return cli.Exit("usage: othala backlinks ID", 1)
			}
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				for _, e := range nb.Incoming(id) {
					fmt.Printf("%s\t%s\n", e.Source, e.Kind)
				}
				return nil
			})
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "new",
		Usage: "Create a note with a generated id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Usage: "Note title", Required: true},
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "Note type (defaults to resource)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				n, err := nb.Create(ctx, cmd.String("type"), cmd.String("title"))
				if err != nil {
					return err
				}
				rel, _ := nb.PathOf(n.ID())
				fmt.Printf("created %s (%s)\n", n.ID(), rel)
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over note titles, bodies, and tags",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of hits", Value: 20},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := strings.Join(cmd.Args().Slice(), " ")
			if query == "" {
				return cli.Exit("usage: othala search QUERY", 1)
			}
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				hits, err := nb.Search(ctx, query, int(cmd.Int("limit")))
				if err != nil {
					return err
				}
				for _, h := range hits {
					fmt.Printf("%s\t%s\t%s\n", h.ID, h.Path, h.Title)
					if h.Snippet != "" {
						fmt.Printf("\t%s\n", h.Snippet)
					}
				}
				return nil
			})
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Render the notebook as a static HTML site",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output directory", Value: "./site"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
				out := cmd.String("out")
				if err := nb.ExportHTML(out); err != nil {
					return err
				}
				fmt.Printf("exported %d notes to %s\n", nb.Len(), out)
				return nil
			})
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the notebook and keep the index and cache current",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(cfg))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the notebook to MCP clients over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.Run(ctx, internal.WithConfig(cfg), internal.WithMCPServer())
		},
	}
}

func gitCommand() *cli.Command {
	return &cli.Command{
		Name:  "git",
		Usage: "Version-control the notebook",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize version control for the notebook",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					return printResult(svc.Init(ctx))
				},
			},
			{
				Name:  "status",
				Usage: "Show outstanding changes",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					st, err := svc.Status(ctx)
					if err != nil {
						return err
					}
					if st.Empty() {
						fmt.Println("clean")
						return nil
					}
					printPaths := func(mark string, paths []string) {
						for _, p := range paths {
							fmt.Printf("%s %s\n", mark, p)
						}
					}
					printPaths("A", st.Added)
					printPaths("M", st.Modified)
					printPaths("D", st.Deleted)
					printPaths("?", st.Untracked)
					return nil
				},
			},
			{
				Name:      "commit",
				Usage:     "Record a revision; with no paths, commits every change",
				ArgsUsage: "[PATH...]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "message", Aliases: []string{"m"}, Usage: "Commit message", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					paths := cmd.Args().Slice()
					return printResult(svc.Commit(ctx, cmd.String("message"), len(paths) == 0, paths...))
				},
			},
			{
				Name:      "log",
				Usage:     "List revisions, newest first; --id follows one note across renames",
				ArgsUsage: "[PATH]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Note id to trace"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of revisions"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					limit := int(cmd.Int("limit"))
					var entries []history.Entry
					if id := cmd.String("id"); id != "" {
						err := withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
							var logErr error
							entries, logErr = nb.NoteLog(ctx, id, limit)
							return logErr
						})
						if err != nil {
							return err
						}
					} else {
						svc, err := historyService(cmd)
						if err != nil {
							return err
						}
						entries, err = svc.Log(ctx, cmd.Args().First(), limit)
						if err != nil {
							return err
						}
					}
					for _, e := range entries {
						line := fmt.Sprintf("%.8s  %s  %s  %s",
							e.Revision, e.Timestamp.Format("2006-01-02 15:04"), e.Author, e.Message)
						if e.Path != "" {
							line += "  (" + e.Path + ")"
						}
						fmt.Println(line)
					}
					return nil
				},
			},
			{
				Name:  "diff",
				Usage: "Show changes since the last revision",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					out, err := svc.Diff(ctx)
					if err != nil {
						return err
					}
					fmt.Print(out)
					return nil
				},
			},
			{
				Name:      "show",
				Usage:     "Print a file as committed at a revision",
				ArgsUsage: "REVISION PATH",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Note id instead of PATH"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					revision := cmd.Args().First()
					if revision == "" {
						return cli.Exit("usage: othala git show REVISION [PATH | --id ID]", 1)
					}
					if id := cmd.String("id"); id != "" {
						return withNotebook(ctx, cmd, func(nb *notebook.Notebook) error {
							rel, err := nb.PathOf(id)
							if err != nil {
								return err
							}
							data, err := nb.History().Show(ctx, revision, rel)
							if err != nil {
								return err
							}
							_, err = os.Stdout.Write(data)
							return err
						})
					}
					path := cmd.Args().Get(1)
					if path == "" {
						return cli.Exit("usage: othala git show REVISION [PATH | --id ID]", 1)
					}
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					data, err := svc.Show(ctx, revision, path)
					if err != nil {
						return err
					}
					_, err = os.Stdout.Write(data)
					return err
				},
			},
			{
				Name:      "checkout",
				Usage:     "Restore a file to its state at a revision",
				ArgsUsage: "PATH REVISION",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, revision := cmd.Args().Get(0), cmd.Args().Get(1)
					if path == "" || revision == "" {
						return cli.Exit("usage: othala git checkout PATH REVISION", 1)
					}
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					return printResult(svc.Checkout(ctx, path, revision))
				},
			},
			{
				Name:  "push",
				Usage: "Publish local revisions to a remote",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "remote", Usage: "Remote name", Value: "origin"},
					&cli.StringFlag{Name: "branch", Usage: "Branch name (current when empty)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					return printResult(svc.Push(ctx, cmd.String("remote"), cmd.String("branch")))
				},
			},
			{
				Name:  "pull",
				Usage: "Fetch and integrate revisions from a remote",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "remote", Usage: "Remote name", Value: "origin"},
					&cli.StringFlag{Name: "branch", Usage: "Branch name (current when empty)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					svc, err := historyService(cmd)
					if err != nil {
						return err
					}
					return printResult(svc.Pull(ctx, cmd.String("remote"), cmd.String("branch")))
				},
			},
		},
	}
}
