package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"motionmux/internal/migrate"
	"motionmux/internal/pairing"
)

func printSummary(out io.Writer, s pairing.Summary) {
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  Total files: %d\n", s.TotalFiles)
	if len(s.ByExtension) > 0 {
		fmt.Fprintln(out, "  By extension:")
		rows := make([][]string, 0, len(s.ByExtension))
		for _, ec := range s.ByExtension {
			ext := ec.Ext
			if ext == "" {
				ext = "<noext>"
			}
			rows = append(rows, []string{ext, strconv.Itoa(ec.Count)})
		}
		footer := []string{"Total", strconv.Itoa(s.TotalFiles)}
		fmt.Fprintln(out, indent(renderTableWithFooter([]string{"Extension", "Files"}, rows, footer, []columnAlignment{alignLeft, alignRight}), "    "))
	}
	fmt.Fprintf(out, "  Pairable basenames: %d\n", s.Pairs)
	fmt.Fprintf(out, "  Images without video: %d\n", s.ImagesOnly)
	fmt.Fprintf(out, "  Videos without image: %d\n", s.VideosOnly)
	fmt.Fprintf(out, "  Other files: %d\n", s.Others)
	fmt.Fprintf(out, "  Ambiguous basenames (multiple candidates): %d\n", s.Ambiguous)
}

func printDetails(out io.Writer, c pairing.Classification) {
	fmt.Fprintf(out, "\nPairs (image + video) (%d):\n", len(c.Pairs))
	if len(c.Pairs) > 0 {
		rows := make([][]string, 0, len(c.Pairs))
		for _, p := range c.Pairs {
			rows = append(rows, []string{p.Base, p.Image.Name(), p.Video.Name(), joinNames(p.Alternates())})
		}
		fmt.Fprintln(out, indent(renderTable([]string{"Base", "Image", "Video", "Alternates"}, rows, nil), "  "))
	}

	printPathList(out, "Images without video", c.ImagesOnly)
	printPathList(out, "Videos without image", c.VideosOnly)
	printPathList(out, "Other files", c.Others)

	bases := c.AmbiguousBases()
	fmt.Fprintf(out, "\nAmbiguous basenames (%d):\n", len(bases))
	for _, base := range bases {
		fmt.Fprintf(out, "  %s: %s\n", base, joinNames(c.Ambiguous[base]))
	}
}

func printPathList(out io.Writer, title string, refs []pairing.FileRef) {
	fmt.Fprintf(out, "\n%s (%d):\n", title, len(refs))
	for _, ref := range pairing.SortedByPath(refs) {
		fmt.Fprintf(out, "  %s\n", ref.Path)
	}
}

func printCompletion(out io.Writer, result migrate.Result) {
	if result.Interrupted {
		fmt.Fprintln(out, "\nMigration interrupted:")
	} else {
		fmt.Fprintln(out, "\nMigration complete:")
	}
	fmt.Fprintf(out, "  Motion Photos created: %d\n", result.MotionPhotosCreated)
	fmt.Fprintf(out, "  Files copied (unpaired/other): %d\n", result.FilesCopied)
	if n := result.Count(migrate.OutcomeSkippedExisting); n > 0 {
		fmt.Fprintf(out, "  Pairs skipped (output exists): %d\n", n)
	}
	if n := result.Count(migrate.OutcomeCollision); n > 0 {
		fmt.Fprintf(out, "  Copies skipped (destination exists): %d\n", n)
	}
	failures := result.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(out, "  Failures: %d\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(out, "    %s (%s): %v\n", filepath.Base(f.Source), f.Outcome, f.Err)
	}
}

func joinNames(refs []pairing.FileRef) string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name())
	}
	return strings.Join(names, ", ")
}

func indent(block, prefix string) string {
	lines := strings.Split(strings.TrimRight(block, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
