package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/surveydesk/backoffice/internal/navigation"
)

// RoutesCheckOptions controls the route manifest check.
type RoutesCheckOptions struct {
	// ManifestPath overrides the embedded manifest when set.
	ManifestPath string
	// Strict fails the check when dynamic routes overlap.
	Strict     bool
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

type routesReport struct {
	Routes      int                    `json:"routes"`
	Ambiguities []navigation.Ambiguity `json:"ambiguities"`
}

func loadResolver(path string) (*navigation.Resolver, error) {
	if path == "" {
		return navigation.DefaultResolver()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := navigation.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	return navigation.NewResolver(m)
}

// CheckCommand validates the route manifest and reports overlapping dynamic
// routes. Exit codes: 0 ok, 1 invalid manifest, 2 overlaps under Strict.
func CheckCommand(opts RoutesCheckOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	resolver, err := loadResolver(opts.ManifestPath)
	if err != nil {
		fmt.Fprintf(stderr, "route manifest invalid: %v\n", err)
		return 1
	}
	report := routesReport{
		Routes:      len(resolver.Table().Nodes()),
		Ambiguities: resolver.Table().Ambiguities(),
	}
	if report.Ambiguities == nil {
		report.Ambiguities = []navigation.Ambiguity{}
	}

	if opts.JSONOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
	} else {
		fmt.Fprintf(stdout, "%d routes\n", report.Routes)
		for _, a := range report.Ambiguities {
			fmt.Fprintf(stdout, "overlap: %s shadows %s\n", a.Winner, a.Shadow)
		}
	}
	if opts.Strict && len(report.Ambiguities) > 0 {
		return 2
	}
	return 0
}

// TrailOptions controls the breadcrumb preview.
type TrailOptions struct {
	ManifestPath string
	Path         string
	Tab          string
	EntityName   string
	Stdout       io.Writer
	Stderr       io.Writer
}

// TrailCommand prints the breadcrumb trail for one path, one item per line.
// Non-navigable items are marked with an asterisk.
func TrailCommand(opts TrailOptions) int {
	stdout, stderr := writers(opts.Stdout, opts.Stderr)
	resolver, err := loadResolver(opts.ManifestPath)
	if err != nil {
		fmt.Fprintf(stderr, "route manifest invalid: %v\n", err)
		return 1
	}
	items := resolver.Resolve(opts.Path, &navigation.Context{Tab: opts.Tab, EntityName: opts.EntityName})
	if len(items) == 0 {
		fmt.Fprintf(stderr, "no route matches %s\n", opts.Path)
		items = navigation.HomeTrail()
	}
	for _, item := range items {
		if item.Navigable() {
			fmt.Fprintf(stdout, "%s\t%s\n", item.Label, item.Path)
			continue
		}
		fmt.Fprintf(stdout, "%s\t*\n", item.Label)
	}
	return 0
}

func writers(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}
