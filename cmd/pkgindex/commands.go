package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/maloquacious/pkgindex/internal/index"
	"github.com/maloquacious/pkgindex/internal/manifest"
	"github.com/maloquacious/pkgindex/internal/schema"
	"github.com/maloquacious/pkgindex/internal/store"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var schemaVersion string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new, empty index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := parseSchemaVersion(schemaVersion)
			if err != nil {
				return err
			}
			release, err := store.AcquireWriterLock(cfg.Index.Path, cfg.Index.LockTimeout)
			if err != nil {
				return err
			}
			defer release()

			idx, err := index.CreateNew(cfg.Index.Path, req, indexOptions()...)
			if err != nil {
				return err
			}
			defer idx.Close()
			fmt.Printf("created %s (schema %s)\n", cfg.Index.Path, idx.Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaVersion, "schema", "latest", "schema version: latest or major.minor")
	return cmd
}

func newAddCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "add MANIFEST...",
		Short: "Add manifests to the index in a single unit of work",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := manifest.ParseFiles(afero.NewOsFs(), args, cfg.Index.Workers)
			if err != nil {
				return err
			}
			entries := make([]index.Entry, 0, len(parsed))
			for _, p := range parsed {
				rel, err := relativePath(root, p.Path)
				if err != nil {
					return err
				}
				entries = append(entries, index.Entry{Manifest: p.Manifest, RelativePath: rel})
			}
			return withWriter(func(idx *index.Index) error {
				if err := idx.AddManifests(entries); err != nil {
					return err
				}
				fmt.Printf("added %d manifests\n", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory manifest paths are recorded relative to")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "update MANIFEST",
		Short: "Replace the manifest with the same id, version and channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := relativePath(root, args[0])
			if err != nil {
				return err
			}
			return withWriter(func(idx *index.Index) error {
				found, err := idx.UpdateManifestFromPath(args[0], rel)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("%s: %w", args[0], schema.ErrManifestNotFound)
				}
				fmt.Printf("updated %s\n", rel)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "directory manifest paths are recorded relative to")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove MANIFEST",
		Short: "Remove the manifest with the same id, version and channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(func(idx *index.Index) error {
				if err := idx.RemoveManifestFromPath(args[0], ""); err != nil {
					return err
				}
				fmt.Printf("removed %s\n", args[0])
				return nil
			})
		},
	}
}

func newSearchCmd() *cobra.Command {
	var (
		match      string
		inclusions []string
		filters    []string
		limit      int
		immutable  bool
	)
	cmd := &cobra.Command{
		Use:   "search [QUERY]",
		Short: "Search the index",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mt, err := schema.ParseMatchType(match)
			if err != nil {
				return err
			}
			req := schema.SearchRequest{MaximumResults: limit}
			if !cmd.Flags().Changed("limit") {
				req.MaximumResults = cfg.Search.MaxResults
			}
			if len(args) == 1 {
				req.Query = &schema.RequestMatch{Type: mt, Value: args[0]}
			}
			if req.Inclusions, err = parseFilters(inclusions, mt); err != nil {
				return err
			}
			if req.Filters, err = parseFilters(filters, mt); err != nil {
				return err
			}

			disposition := index.Read
			if immutable {
				disposition = index.Immutable
			}
			return withReader(disposition, func(idx *index.Index) error {
				res, err := idx.Search(req)
				if err != nil {
					return err
				}
				return printMatches(os.Stdout, idx, res)
			})
		},
	}
	cmd.Flags().StringVar(&match, "match", "Substring", "match type: Exact, CaseInsensitive, StartsWith or Substring")
	cmd.Flags().StringArrayVar(&inclusions, "include", nil, "also include packages where Field=value (repeatable)")
	cmd.Flags().StringArrayVar(&filters, "filter", nil, "only keep packages where Field=value (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (0 for no limit)")
	cmd.Flags().BoolVar(&immutable, "immutable", false, "open the index as immutable")
	return cmd
}

// parseFilters parses Field=value pairs.
func parseFilters(args []string, mt schema.MatchType) ([]schema.PackageMatchFilter, error) {
	var out []schema.PackageMatchFilter
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q: want Field=value", arg)
		}
		field, err := schema.ParsePackageMatchField(name)
		if err != nil {
			return nil, err
		}
		out = append(out, schema.PackageMatchFilter{Field: field, Type: mt, Value: value})
	}
	return out, nil
}

func printMatches(w io.Writer, idx *index.Index, res schema.SearchResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Id", "Name", "Version", "Matched")

	for _, m := range res.Matches {
		id, _, err := idx.GetIDStringByID(m.ID)
		if err != nil {
			return err
		}
		name, _, err := idx.GetNameStringByID(m.ID)
		if err != nil {
			return err
		}
		versions, err := idx.GetVersionsByID(m.ID)
		if err != nil {
			return err
		}
		var latest string
		if len(versions) > 0 {
			latest = versions[0].Version
		}
		if err := table.Append([]string{id, name, latest, m.Filter.String()}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	if res.Truncated {
		fmt.Fprintln(w, "(results truncated)")
	}
	return nil
}

func newVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions ID",
		Short: "List every version of a package, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(index.Read, func(idx *index.Index) error {
				res, err := idx.Search(schema.SearchRequest{
					Inclusions: []schema.PackageMatchFilter{{Field: schema.FieldID, Type: schema.MatchCaseInsensitive, Value: args[0]}},
				})
				if err != nil {
					return err
				}
				if len(res.Matches) == 0 {
					return fmt.Errorf("package %s not found", args[0])
				}
				id := res.Matches[0].ID
				versions, err := idx.GetVersionsByID(id)
				if err != nil {
					return err
				}
				for _, v := range versions {
					path, _, err := idx.GetPathStringByKey(id, v.Version, v.Channel)
					if err != nil {
						return err
					}
					channel := v.Channel
					if channel == "" {
						channel = "-"
					}
					fmt.Printf("%s\t%s\t%s\n", v.Version, channel, path)
				}
				return nil
			})
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the index schema version, last write time and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReader(index.Read, func(idx *index.Index) error {
				lastWrite, err := idx.GetLastWriteTime()
				if err != nil {
					return err
				}
				fi, err := os.Stat(cfg.Index.Path)
				if err != nil {
					return err
				}
				fmt.Printf("path:        %s\n", cfg.Index.Path)
				fmt.Printf("schema:      %s\n", idx.Version())
				if idx.ImplementationVersion() != idx.Version() {
					fmt.Printf("read as:     %s (read only)\n", idx.ImplementationVersion())
				}
				fmt.Printf("last write:  %s (%s)\n", lastWrite.UTC().Format("2006-01-02 15:04:05Z"), humanize.Time(lastWrite))
				fmt.Printf("size:        %s\n", humanize.IBytes(uint64(fi.Size())))
				return nil
			})
		},
	}
}

func newPackageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "package",
		Short: "Finalize and compact the index for distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(func(idx *index.Index) error {
				return idx.PrepareForPackaging()
			})
		},
	}
}

func newURICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uri PATH",
		Short: "Print the immutable SQLite URI for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(index.ImmutableURI(args[0]))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pkgindex version and latest schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("pkgindex %s (schema %s)\n", version.String(), schema.LatestVersion)
			return nil
		},
	}
}
