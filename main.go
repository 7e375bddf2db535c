// callscope searches a selection of JavaScript or TypeScript source, and
// every function the selection reaches through the call graph, for a target
// string. Results are printed in TOON format.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hbollon/go-edlib"

	"github.com/phobologic/callscope/internal/cache"
	"github.com/phobologic/callscope/internal/config"
	"github.com/phobologic/callscope/internal/discover"
	"github.com/phobologic/callscope/internal/lang"
	"github.com/phobologic/callscope/internal/model"
	"github.com/phobologic/callscope/internal/parse"
	"github.com/phobologic/callscope/internal/ranking"
	"github.com/phobologic/callscope/internal/search"
	"github.com/phobologic/callscope/internal/textpos"
	"github.com/phobologic/callscope/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	target       string
	lines        string
	offsets      string
	fn           string
	literal      bool
	maxLine      int
	group        bool
	callers      bool
	cachePath    string
	configPath   string
	language     string
	recover      bool
	maxFileSize  int64
	maxFunctions int
	in           string
	skipTests    bool
	verbose      bool
	showVersion  bool
}

// app carries the resolved settings of one invocation.
type app struct {
	opts   options
	cfg    config.Config
	req    search.Request
	store  *cache.Store
	logger *slog.Logger
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("callscope", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options

	fs.StringVar(&o.target, "t", "", "target string to search for")
	fs.StringVar(&o.target, "target", "", "target string to search for")
	fs.StringVar(&o.lines, "lines", "", "select 1-based inclusive lines A-B (or a single line A)")
	fs.StringVar(&o.offsets, "offsets", "", "select byte offsets S:E")
	fs.StringVar(&o.fn, "fn", "", "select the definition(s) named NAME")
	fs.BoolVar(&o.literal, "literal", false, "match the target literally instead of as a regular expression")
	fs.IntVar(&o.maxLine, "max-line", textpos.DefaultMaxLineLength, "maximum excerpt width")
	fs.BoolVar(&o.group, "group", false, "group matches by function, selection first then by rank")
	fs.BoolVar(&o.callers, "callers", false, "also report the transitive callers of every seed")
	fs.StringVar(&o.cachePath, "cache", "", "cache directory")
	fs.StringVar(&o.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	fs.StringVar(&o.language, "lang", "", "force the grammar: "+strings.Join(lang.Names(), ", "))
	fs.BoolVar(&o.recover, "recover", false, "analyze files with syntax errors instead of searching the selection only;\nuse it when valid code trips a gap in the tree-sitter grammar")
	fs.Int64Var(&o.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	fs.IntVar(&o.maxFunctions, "n", 0, "maximum number of scope functions to report")
	fs.IntVar(&o.maxFunctions, "max-functions", 0, "maximum number of scope functions to report")
	fs.StringVar(&o.in, "in", "", "only report matches in functions whose name contains this substring")
	fs.BoolVar(&o.skipTests, "skip-tests", false, "skip test files in directory mode")
	fs.BoolVar(&o.verbose, "v", false, "verbose logging")
	fs.BoolVar(&o.showVersion, "V", false, "show version and exit")
	fs.BoolVar(&o.showVersion, "version", false, "show version and exit")

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if o.showVersion {
		_, _ = fmt.Fprintf(stdout, "callscope %s\n", version)
		return nil
	}

	logger := newLogger(stderr, o.verbose)
	if o.verbose {
		slog.SetDefault(logger)
	}

	cfg, err := loadConfig(fs, &o)
	if err != nil {
		return err
	}

	if fs.NArg() != 1 {
		return fmt.Errorf("expected one FILE or DIR argument, got %d", fs.NArg())
	}
	if o.target == "" {
		return fmt.Errorf("missing -t TARGET: %w", search.ErrEmptyTarget)
	}
	switch n := countSet(o.lines, o.offsets, o.fn); {
	case n == 0:
		return fmt.Errorf("one of -lines, -offsets or -fn is required: %w", search.ErrEmptySelection)
	case n > 1:
		return fmt.Errorf("-lines, -offsets and -fn are mutually exclusive")
	}

	mode := search.ModeRegex
	if cfg.Literal {
		mode = search.ModeLiteral
	}
	if _, err := search.Compile(o.target, mode); err != nil {
		return err
	}

	a := &app{
		opts: o,
		cfg:  cfg,
		req: search.Request{
			Target:  o.target,
			Options: search.Options{Mode: mode, MaxLineLength: cfg.MaxLineLength},
			Callers: o.callers,
		},
		logger: logger,
		stderr: stderr,
	}
	if o.cachePath != "" {
		if a.store, err = cache.Open(o.cachePath); err != nil {
			return err
		}
	}

	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path: %w", err)
	}

	ctx := context.Background()
	var output string
	if info.IsDir() {
		if o.fn == "" {
			return fmt.Errorf("%s: searching a directory requires -fn", fs.Arg(0))
		}
		output, err = a.searchDir(ctx, path)
	} else {
		output, err = a.searchFile(ctx, path, fs.Arg(0), info.Size())
	}
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(stdout, output)
	return nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file and applies every flag the user set
// explicitly on top of it.
func loadConfig(fs *flag.FlagSet, o *options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			cfg, _, err = config.Find(wd)
		}
	}
	if err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "literal":
			cfg.Literal = o.literal
		case "max-line":
			cfg.MaxLineLength = o.maxLine
		case "lang":
			cfg.Language = o.language
		case "recover":
			cfg.Recover = o.recover
		case "max-file-size":
			cfg.MaxFileSize = o.maxFileSize
		case "skip-tests":
			cfg.SkipTests = o.skipTests
		}
	})
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func countSet(values ...string) int {
	n := 0
	for _, v := range values {
		if v != "" {
			n++
		}
	}
	return n
}

// searchFile runs one search per selection in a single file.
func (a *app) searchFile(ctx context.Context, path, display string, size int64) (string, error) {
	if size > a.cfg.MaxFileSize {
		return "", fmt.Errorf("%s: larger than %d bytes", display, a.cfg.MaxFileSize)
	}
	l := lang.Resolve(a.cfg.Language, filepath.Ext(path))
	if l == nil {
		return "", fmt.Errorf("unsupported language %q", a.cfg.Language)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", display, err)
	}

	display = filepath.ToSlash(display)
	key := cache.NewKey(source, a.keyParts(display, l.Name)...)
	return a.withCache(key, func() (string, error) {
		p := search.Prepare(ctx, source, parse.Options{Language: l, Recover: a.cfg.Recover})
		if p.ParseErr != nil {
			_, _ = fmt.Fprintf(a.stderr, "Warning: %s: %v; searching the selection only (-recover analyzes the partial tree)\n", display, p.ParseErr)
		}

		spans, err := a.selections(p)
		if err != nil {
			return "", err
		}
		var reports []*model.Report
		for _, span := range spans {
			req := a.req
			req.Selection = span
			res, err := p.Search(req)
			if err != nil {
				return "", err
			}
			reports = append(reports, a.trim(res.Report(display, a.opts.group)))
		}
		a.logger.Debug("searched file", slog.String("file", display), slog.Int("selections", len(spans)))
		return toon.EncodeAll(reports), nil
	})
}

// selections resolves the selection flags against a prepared source.
func (a *app) selections(p *search.Prepared) ([]model.Span, error) {
	switch {
	case a.opts.lines != "":
		span, err := lineSpan(p.Source, a.opts.lines)
		if err != nil {
			return nil, err
		}
		return []model.Span{span}, nil

	case a.opts.offsets != "":
		span, err := offsetSpan(p.Source, a.opts.offsets)
		if err != nil {
			return nil, err
		}
		return []model.Span{span}, nil
	}

	defs := p.Analysis.Table.All(a.opts.fn)
	if len(defs) == 0 {
		return nil, unknownFunction(a.opts.fn, p.Analysis.Table.Names())
	}
	spans := make([]model.Span, len(defs))
	for i, d := range defs {
		spans[i] = model.Span{Start: d.Start, End: d.End}
	}
	return spans, nil
}

// lineSpan parses "A-B" or "A" as 1-based inclusive lines.
func lineSpan(source, arg string) (model.Span, error) {
	from, to, found := strings.Cut(arg, "-")
	if !found {
		to = from
	}
	a, errA := strconv.Atoi(strings.TrimSpace(from))
	b, errB := strconv.Atoi(strings.TrimSpace(to))
	if errA != nil || errB != nil {
		return model.Span{}, fmt.Errorf("-lines %q: expected A-B", arg)
	}
	ix := textpos.NewIndex(source)
	if a < 1 || b < a || b > ix.Lines() {
		return model.Span{}, fmt.Errorf("-lines %q: out of range (1-%d)", arg, ix.Lines())
	}
	return model.Span{Start: ix.LineSpan(a - 1).Start, End: ix.LineSpan(b - 1).End}, nil
}

// offsetSpan parses "S:E" as a half-open byte range.
func offsetSpan(source, arg string) (model.Span, error) {
	from, to, found := strings.Cut(arg, ":")
	if !found {
		return model.Span{}, fmt.Errorf("-offsets %q: expected S:E", arg)
	}
	s, errS := strconv.Atoi(strings.TrimSpace(from))
	e, errE := strconv.Atoi(strings.TrimSpace(to))
	if errS != nil || errE != nil {
		return model.Span{}, fmt.Errorf("-offsets %q: expected S:E", arg)
	}
	if s < 0 || e <= s || e > len(source) {
		return model.Span{}, fmt.Errorf("-offsets %q: out of range (0-%d)", arg, len(source))
	}
	return model.Span{Start: s, End: e}, nil
}

// searchDir runs the by-function search over every file under root that
// defines the -fn name.
func (a *app) searchDir(ctx context.Context, root string) (string, error) {
	var langFilter []string
	if a.cfg.Language != "" {
		langFilter = []string{a.cfg.Language}
	}
	files, err := discover.Files(root, discover.Options{
		Languages: langFilter,
		Include:   a.cfg.Include,
		Exclude:   a.cfg.Exclude,
		SkipTests: a.cfg.SkipTests,
	})
	if err != nil {
		return "", fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no parseable files found")
	}

	files = filterBySize(root, files, a.cfg.MaxFileSize, a.stderr)
	if len(files) == 0 {
		return "", fmt.Errorf("no parseable files found (all exceeded size limit)")
	}

	sources := readSources(root, files, a.stderr)
	if len(sources) == 0 {
		return "", fmt.Errorf("no files could be read")
	}
	a.logger.Debug("searching directory", slog.String("root", root), slog.Int("files", len(sources)))

	var digest bytes.Buffer
	for _, src := range sources {
		fmt.Fprintf(&digest, "%s\x00%d\x00", filepath.ToSlash(src.entry.Path), len(src.data))
		digest.Write(src.data)
	}
	key := cache.NewKey(digest.Bytes(), a.keyParts("", a.cfg.Language)...)

	return a.withCache(key, func() (string, error) {
		results := searchFilesConcurrent(ctx, sources, a.opts.fn, a.req, a.cfg.Recover, a.opts.group, a.stderr)

		var reports []*model.Report
		names := &model.NameSet{}
		for _, r := range results {
			if r.err != nil {
				return "", r.err
			}
			for _, rep := range r.reports {
				reports = append(reports, a.trim(rep))
			}
			for _, n := range r.names {
				names.Add(n)
			}
		}
		if len(reports) == 0 {
			return "", unknownFunction(a.opts.fn, names.Names())
		}
		return toon.EncodeAll(reports), nil
	})
}

type sourceFile struct {
	entry discover.FileEntry
	data  []byte
}

func readSources(root string, files []discover.FileEntry, stderr io.Writer) []sourceFile {
	var sources []sourceFile
	for _, f := range files {
		data, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", f.Path, err)
			continue
		}
		sources = append(sources, sourceFile{entry: f, data: data})
	}
	return sources
}

func filterBySize(root string, files []discover.FileEntry, maxSize int64, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > maxSize {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

type fileResult struct {
	reports []*model.Report
	names   []string
	err     error
}

// searchFilesConcurrent searches every definition named fn in every file.
// Results come back in file order.
func searchFilesConcurrent(ctx context.Context, files []sourceFile, fn string, base search.Request, keepPartial, group bool, stderr io.Writer) []fileResult {
	type result struct {
		index int
		fileResult
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	var stderrMu sync.Mutex

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range work {
				f := files[idx]
				path := filepath.ToSlash(f.entry.Path)

				// Prepare builds a fresh parser, so workers share nothing.
				p := search.Prepare(ctx, f.data, parse.Options{
					Language: lang.Languages[f.entry.Language],
					Recover:  keepPartial,
				})
				if p.ParseErr != nil {
					stderrMu.Lock()
					_, _ = fmt.Fprintf(stderr, "Warning: %s: %v\n", path, p.ParseErr)
					stderrMu.Unlock()
				}

				r := result{index: idx}
				r.names = p.Analysis.Table.Names()
				for _, def := range p.Analysis.Table.All(fn) {
					req := base
					req.Selection = model.Span{Start: def.Start, End: def.End}
					res, err := p.Search(req)
					if err != nil {
						r.err = fmt.Errorf("%s: %w", path, err)
						break
					}
					r.reports = append(r.reports, res.Report(path, group))
				}
				results <- r
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	ordered := make([]fileResult, len(files))
	for r := range results {
		ordered[r.index] = r.fileResult
	}
	return ordered
}

func (a *app) trim(rep *model.Report) *model.Report {
	if a.opts.in != "" {
		rep = ranking.FilterByFunction(rep, a.opts.in)
	}
	if a.opts.maxFunctions > 0 {
		rep = ranking.SelectFunctions(rep, a.opts.maxFunctions)
	}
	return rep
}

// keyParts lists every setting that shapes the output.
func (a *app) keyParts(file, language string) []string {
	return []string{
		version,
		file,
		language,
		a.opts.target,
		a.req.Mode.String(),
		strconv.Itoa(a.cfg.MaxLineLength),
		a.opts.lines,
		a.opts.offsets,
		a.opts.fn,
		strconv.FormatBool(a.opts.group),
		strconv.FormatBool(a.opts.callers),
		strconv.FormatBool(a.cfg.Recover),
		a.opts.in,
		strconv.Itoa(a.opts.maxFunctions),
	}
}

// withCache replays a stored result for key or computes and stores it.
func (a *app) withCache(key cache.Key, compute func() (string, error)) (string, error) {
	if a.store != nil {
		out, ok, err := a.store.Load(key)
		if err != nil {
			a.logger.Warn("cache read failed", slog.String("error", err.Error()))
		} else if ok {
			a.logger.Debug("cache hit", slog.String("key", string(key)))
			return out, nil
		}
	}

	out, err := compute()
	if err != nil {
		return "", err
	}

	if a.store != nil {
		if err := a.store.Save(key, out); err != nil {
			a.logger.Warn("cache write failed", slog.String("error", err.Error()))
		}
	}
	return out, nil
}

// unknownFunction reports a missing definition, suggesting close names.
func unknownFunction(name string, candidates []string) error {
	if s := suggest(name, candidates, 3); len(s) > 0 {
		return fmt.Errorf("no function named %q (did you mean %s?)", name, strings.Join(s, ", "))
	}
	return fmt.Errorf("no function named %q", name)
}

// suggest returns up to limit candidates at least half similar to name by
// Levenshtein distance, most similar first.
func suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name  string
		score float32
	}
	var hits []scored
	for _, c := range candidates {
		score, err := edlib.StringsSimilarity(strings.ToLower(name), strings.ToLower(c), edlib.Levenshtein)
		if err != nil || score < 0.5 {
			continue
		}
		hits = append(hits, scored{c, score})
	}
	slices.SortStableFunc(hits, func(x, y scored) int {
		switch {
		case x.score > y.score:
			return -1
		case x.score < y.score:
			return 1
		}
		return strings.Compare(x.name, y.name)
	})

	var out []string
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].name)
	}
	return out
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-t": true, "--t": true,
	"-target": true, "--target": true,
	"-lines": true, "--lines": true,
	"-offsets": true, "--offsets": true,
	"-fn": true, "--fn": true,
	"-max-line": true, "--max-line": true,
	"-cache": true, "--cache": true,
	"-config": true, "--config": true,
	"-lang": true, "--lang": true,
	"-max-file-size": true, "--max-file-size": true,
	"-n": true, "--n": true,
	"-max-functions": true, "--max-functions": true,
	"-in": true, "--in": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
