package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"evonas/internal/descriptor"
	evoapi "evonas/pkg/evonas"
)

const (
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiReset  = "\033[0m"
)

func colorize(w io.Writer, color, s string) string {
	f, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return s
	}
	return color + s + ansiReset
}

func printSampleResult(w io.Writer, result evoapi.SampleResult) {
	sum := result.Signature.Summary
	fmt.Fprintf(w, "kind=%s hidden_layers=%d params=%s\n",
		sum.Kind, sum.HiddenLayers, humanize.Comma(result.TotalParams))
	fmt.Fprintf(w, "fingerprint=%s\n", result.Signature.Fingerprint)
	if len(sum.ActivationDistribution) > 0 {
		fmt.Fprintf(w, "activations=%s\n", formatDistribution(sum.ActivationDistribution))
	}
	if len(sum.InitDistribution) > 0 {
		fmt.Fprintf(w, "inits=%s\n", formatDistribution(sum.InitDistribution))
	}
	fmt.Fprintf(w, "dropout=%t batch_norm=%t\n", sum.Dropout, sum.BatchNorm)
	fmt.Fprintf(w, "code=%s\n", result.Codified)
}

func printMutateResult(w io.Writer, desc descriptor.Descriptor, result evoapi.MutateResult) {
	for _, name := range result.Applied {
		fmt.Fprintf(w, "%s %s\n", colorize(w, ansiGreen, "applied"), name)
	}
	for _, name := range result.Blocked {
		fmt.Fprintf(w, "%s %s\n", colorize(w, ansiYellow, "blocked"), name)
	}
	sig := descriptor.ComputeSignature(desc)
	fmt.Fprintf(w, "kind=%s hidden_layers=%d params=%s fingerprint=%s\n",
		desc.Kind(), desc.HiddenLayerCount(),
		humanize.Comma(descriptor.ParamCount(desc)), sig.Fingerprint)
}

func printArchiveSummary(w io.Writer, summary evoapi.ArchiveSummary) {
	if summary.Duplicate {
		fmt.Fprintf(w, "%s id=%s fingerprint=%s\n",
			colorize(w, ansiYellow, "duplicate"), summary.ID, summary.Fingerprint)
		return
	}
	fmt.Fprintf(w, "%s id=%s fingerprint=%s\n",
		colorize(w, ansiGreen, "archived"), summary.ID, summary.Fingerprint)
}

func printArchiveItems(w io.Writer, items []evoapi.ArchiveItem) {
	for _, item := range items {
		fmt.Fprintf(w, "id=%s kind=%s fingerprint=%s created=%s\n",
			item.ID, item.Kind, item.Fingerprint, item.CreatedAtUTC)
	}
	fmt.Fprintf(w, "total=%d\n", len(items))
}

func printGenome(w io.Writer, desc descriptor.Descriptor, item evoapi.ArchiveItem) {
	sig := descriptor.ComputeSignature(desc)
	fmt.Fprintf(w, "id=%s created=%s\n", item.ID, item.CreatedAtUTC)
	fmt.Fprintf(w, "kind=%s hidden_layers=%d params=%s\n",
		desc.Kind(), desc.HiddenLayerCount(), humanize.Comma(descriptor.ParamCount(desc)))
	fmt.Fprintf(w, "fingerprint=%s\n", sig.Fingerprint)
	fmt.Fprintf(w, "code=%s\n", item.Codified)
}

func printCodified(w io.Writer, desc descriptor.Descriptor, item evoapi.ArchiveItem, maxLayers int) {
	if mlp, ok := desc.(*descriptor.MLPDescriptor); ok {
		code := descriptor.CodifyMLP(mlp, maxLayers)
		fields := make([]string, len(code))
		for i, v := range code {
			fields[i] = fmt.Sprintf("%d", v)
		}
		fmt.Fprintf(w, "dense_code=%s\n", strings.Join(fields, ","))
	}
	fmt.Fprintf(w, "code=%s\n", item.Codified)
}

func printExportEntries(w io.Writer, dir string, entries []evoapi.ExportEntry) {
	for _, entry := range entries {
		fmt.Fprintf(w, "%s id=%s kind=%s params=%s file=%s\n",
			colorize(w, ansiGreen, "exported"), entry.ID, entry.Kind,
			humanize.Comma(entry.TotalParams), entry.File)
	}
	fmt.Fprintf(w, "total=%d dir=%s\n", len(entries), dir)
}

func formatDistribution(dist map[string]int) string {
	names := make([]string, 0, len(dist))
	for name := range dist {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, dist[name]))
	}
	return strings.Join(parts, " ")
}
