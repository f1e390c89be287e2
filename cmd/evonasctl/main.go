package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"evonas/internal/storage"
	evoapi "evonas/pkg/evonas"
)

const defaultDBPath = "evonas.db"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "sample":
		return runSample(ctx, args[1:])
	case "mutate":
		return runMutate(ctx, args[1:])
	case "codify":
		return runCodify(ctx, args[1:])
	case "kinds":
		return runKinds(ctx, args[1:])
	case "operators":
		return runOperators(ctx, args[1:])
	case "archive":
		return runArchive(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evonasctl <sample|mutate|codify|kinds|operators|archive> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*evoapi.Client, error) {
	client, err := evoapi.New(evoapi.Options{StoreKind: storeKind, DBPath: dbPath})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func runSample(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	kind := fs.String("kind", "mlp", "descriptor kind: mlp|conv|tconv")
	seed := fs.Int64("seed", 0, "rng seed (0 uses wall clock)")
	configPath := fs.String("config", "", "sample request config file (json or yaml)")
	input := fs.String("input", "", "comma-separated input dimensions, e.g. 28,28,3")
	output := fs.String("output", "", "comma-separated output dimensions")
	maxLayers := fs.Int("max-layers", 0, "maximum hidden layers")
	maxWidth := fs.Int("max-width", 0, "maximum dense layer width")
	maxStride := fs.Int("max-stride", 0, "exclusive stride bound")
	maxFilter := fs.Int("max-filter", 0, "exclusive kernel size bound")
	allowDropout := fs.Bool("dropout", false, "allow dropout sampling")
	allowBatchNorm := fs.Bool("batch-norm", false, "allow batch normalization sampling")
	save := fs.Bool("save", false, "archive the sampled genome")
	jsonOut := fs.Bool("json", false, "emit the genome as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := evoapi.SampleRequest{Kind: *kind, Seed: *seed}
	if *configPath != "" {
		loaded, err := loadSampleRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		if loaded.Kind == "" {
			loaded.Kind = req.Kind
		}
		if loaded.Seed == 0 {
			loaded.Seed = req.Seed
		}
		req = loaded
	}
	if *input != "" {
		dims, err := parseDims(*input)
		if err != nil {
			return fmt.Errorf("parse -input: %w", err)
		}
		req.Input = dims
	}
	if *output != "" {
		dims, err := parseDims(*output)
		if err != nil {
			return fmt.Errorf("parse -output: %w", err)
		}
		req.Output = dims
	}
	if *maxLayers > 0 {
		req.MaxLayers = *maxLayers
	}
	if *maxWidth > 0 {
		req.MaxWidth = *maxWidth
	}
	if *maxStride > 0 {
		req.MaxStride = *maxStride
	}
	if *maxFilter > 0 {
		req.MaxFilter = *maxFilter
	}
	if *allowDropout {
		req.AllowDropout = true
	}
	if *allowBatchNorm {
		req.AllowBatchNorm = true
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	result, err := client.Sample(ctx, req)
	if err != nil {
		return err
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Descriptor)
	}

	printSampleResult(os.Stdout, result)
	if *save {
		summary, err := client.Archive(ctx, result.Descriptor)
		if err != nil {
			return err
		}
		printArchiveSummary(os.Stdout, summary)
	}
	return nil
}

func runMutate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mutate", flag.ContinueOnError)
	id := fs.String("id", "", "archived genome id to mutate")
	ops := fs.String("ops", "", "comma-separated operator names")
	steps := fs.Int("steps", 1, "passes over the operator list")
	seed := fs.Int64("seed", 0, "rng seed (0 uses wall clock)")
	save := fs.Bool("save", false, "archive the mutated genome")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("mutate requires --id")
	}
	if *ops == "" {
		return errors.New("mutate requires --ops")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	desc, _, err := client.Lookup(ctx, *id)
	if err != nil {
		return err
	}

	result, err := client.Mutate(ctx, desc, evoapi.MutateRequest{
		Operators: splitNames(*ops),
		Steps:     *steps,
		Seed:      *seed,
	})
	if err != nil {
		return err
	}

	printMutateResult(os.Stdout, desc, result)
	if *save {
		summary, err := client.Archive(ctx, desc)
		if err != nil {
			return err
		}
		printArchiveSummary(os.Stdout, summary)
	}
	return nil
}

func runCodify(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("codify", flag.ContinueOnError)
	id := fs.String("id", "", "archived genome id")
	maxLayers := fs.Int("max-layers", 10, "slot count for the dense crossover code")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("codify requires --id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	desc, item, err := client.Lookup(ctx, *id)
	if err != nil {
		return err
	}
	printCodified(os.Stdout, desc, item, *maxLayers)
	return nil
}

func runKinds(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("kinds", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	for _, kind := range client.Kinds() {
		fmt.Println(kind)
	}
	return nil
}

func runOperators(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("operators", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient("memory", "")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	for _, name := range client.Operators() {
		fmt.Println(name)
	}
	return nil
}

func runArchive(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("archive requires a subcommand: list|show|export")
	}
	switch args[0] {
	case "list":
		return runArchiveList(ctx, args[1:])
	case "show":
		return runArchiveShow(ctx, args[1:])
	case "export":
		return runArchiveExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown archive subcommand: %s", args[0]))
	}
}

func runArchiveList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive list", flag.ContinueOnError)
	limit := fs.Int("limit", 50, "max records to print (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.ListArchive(ctx, *limit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("archive is empty")
		return nil
	}
	printArchiveItems(os.Stdout, items)
	return nil
}

func runArchiveShow(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive show", flag.ContinueOnError)
	id := fs.String("id", "", "archived genome id")
	jsonOut := fs.Bool("json", false, "emit the genome as JSON")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("archive show requires --id")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	desc, item, err := client.Lookup(ctx, *id)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}
	printGenome(os.Stdout, desc, item)
	return nil
}

func runArchiveExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("archive export", flag.ContinueOnError)
	dir := fs.String("dir", "exports", "output directory for genome artifacts")
	limit := fs.Int("limit", 0, "max genomes to export (<=0 for all)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", defaultDBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	entries, err := client.ExportArchive(ctx, *dir, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("archive is empty")
		return nil
	}
	printExportEntries(os.Stdout, *dir, entries)
	return nil
}

func parseDims(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	dims := make([]int, 0, len(parts))
	for _, part := range parts {
		var d int
		if _, err := fmt.Sscanf(strings.TrimSpace(part), "%d", &d); err != nil {
			return nil, fmt.Errorf("invalid dimension %q", part)
		}
		if d <= 0 {
			return nil, fmt.Errorf("dimension must be positive: %d", d)
		}
		dims = append(dims, d)
	}
	return dims, nil
}

func splitNames(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
