package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	sentinelStart = "<!-- callscope:start -->"
	sentinelEnd   = "<!-- callscope:end -->"
)

// runInit implements `callscope init`, which writes or refreshes a callscope
// usage section in a CLAUDE.md file.
func runInit(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("callscope init", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var dryRun bool
	flags.BoolVar(&dryRun, "dry-run", false, "print the result instead of writing the file")

	flags.Usage = func() {
		fmt.Fprintf(stderr, `Usage: callscope init [flags] [path-to-CLAUDE.md]

Write a callscope usage section to a CLAUDE.md file (default ./CLAUDE.md).
The section sits between sentinel comments and is replaced in place on later
runs; text outside it is left alone. The file is created if missing.

Flags:
`)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return err
	}

	section := generateSection()

	if dryRun && flags.NArg() == 0 {
		_, _ = fmt.Fprintln(stdout, section)
		return nil
	}

	path := "CLAUDE.md"
	if flags.NArg() > 0 {
		path = flags.Arg(0)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	updated := applySection(string(existing), section)

	if dryRun {
		_, _ = fmt.Fprint(stdout, updated)
		return nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote callscope section to %s\n", path)
	return nil
}

// generateSection returns the sentinel-wrapped callscope instructions.
func generateSection() string {
	body := `## callscope: scoped search in JS/TS

Use ` + "`callscope`" + ` when you need every place a string occurs in a piece of
JavaScript or TypeScript code *and in everything that code calls*. It
follows the call graph from the selected code, so matches buried three
helpers deep are found without grepping the whole repository.

**Availability:** check ` + "`callscope --version`" + `; skip it if not installed.

**Run it:**
` + "```" + `bash
callscope -t apiKey -fn handleRequest src/server.js   # a function and its callees
callscope -t 'fetch\(' -lines 40-75 src/client.ts      # a line range (regex target)
callscope -t 'a.b(' -literal -offsets 120:480 app.js   # literal target, byte range
callscope -t TODO -fn render --group src/              # every file defining render
callscope -t token -fn login --callers auth.js         # plus who calls login
callscope -t token -fn login --cache .callscope-cache auth.js
` + "```" + `

**All flags:** ` + "`callscope --help`" + `

**Reading the output:**

1. ` + "`scope`" + ` lists the functions searched, most central first.
2. ` + "`matches`" + ` rows carry the line, the innermost enclosing function and
   whether the hit came from the selection itself or from a reached function.
3. ` + "`callers`" + ` (with --callers) shows which functions lead into the selection.
4. A "did you mean" error means the -fn name was not defined; retry with one
   of the suggestions.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection replaces the sentinel block in content with section, or
// appends section after a blank line when there is no block.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
