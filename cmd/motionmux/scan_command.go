package main

import (
	"github.com/spf13/cobra"

	"motionmux/internal/pairing"
	"motionmux/internal/scan"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		input   string
		recurse bool
		list    bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Classify a directory without changing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if input == "" && len(args) == 1 {
				input = args[0]
			}
			entries, err := scan.Directory(input, recurse || cfg.Migrate.Recurse)
			if err != nil {
				return err
			}
			c := pairing.Classify(entries)
			summary := pairing.Summarize(entries, c)
			if asJSON {
				return writeJSON(cmd, scanJSON(summary, c))
			}
			out := cmd.OutOrStdout()
			printSummary(out, summary)
			if list {
				printDetails(out, c)
			}
			return nil
		},
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Directory to scan (or pass it as the argument)")
	cmd.Flags().BoolVarP(&recurse, "recurse", "r", false, "Recurse into subdirectories")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List every file category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the classification as JSON")
	return cmd
}

type scanPairJSON struct {
	Base       string   `json:"base"`
	Image      string   `json:"image"`
	Video      string   `json:"video"`
	Alternates []string `json:"alternates,omitempty"`
}

func scanJSON(s pairing.Summary, c pairing.Classification) map[string]any {
	byExt := make(map[string]int, len(s.ByExtension))
	for _, ec := range s.ByExtension {
		key := ec.Ext
		if key == "" {
			key = "<noext>"
		}
		byExt[key] = ec.Count
	}
	pairs := make([]scanPairJSON, 0, len(c.Pairs))
	for _, p := range c.Pairs {
		entry := scanPairJSON{Base: p.Base, Image: p.Image.Path, Video: p.Video.Path}
		for _, alt := range p.Alternates() {
			entry.Alternates = append(entry.Alternates, alt.Path)
		}
		pairs = append(pairs, entry)
	}
	ambiguous := make(map[string][]string, len(c.Ambiguous))
	for base, refs := range c.Ambiguous {
		ambiguous[base] = paths(refs)
	}
	return map[string]any{
		"total_files":  s.TotalFiles,
		"by_extension": byExt,
		"pairs":        pairs,
		"images_only":  paths(pairing.SortedByPath(c.ImagesOnly)),
		"videos_only":  paths(pairing.SortedByPath(c.VideosOnly)),
		"others":       paths(pairing.SortedByPath(c.Others)),
		"ambiguous":    ambiguous,
	}
}

func paths(refs []pairing.FileRef) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.Path)
	}
	return out
}
