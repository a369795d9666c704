package converter

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/ginjaninja78/contribution-statements/internal/pipeline"
	"github.com/ginjaninja78/contribution-statements/internal/source"
)

const giftsCSV = `Name,Amount,DATE,Reason,Address
Alice,$100.00,2024-01-05,Fund A,1 Main St
Bob,100,2024-01-03,Fund B,
Carol,abc,2024-01-04,Fund A,
Name,Amount,DATE,Reason,Address
Alice,"$1,000.50",2024-02-01,Fund B,1 Main St
`

var fixedNow = func() time.Time { return time.Date(2025, 3, 23, 9, 0, 0, 0, time.UTC) }

func setup(t *testing.T, content string) (string, *config.MainConfig) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "gifts.csv")
	if err := os.WriteFile(input, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(dir, "out")
	return input, cfg
}

func run(t *testing.T, input string, cfg *config.MainConfig, name string, opts Options) Result {
	t.Helper()
	tpl, err := cfg.ReportTemplate(name)
	if err != nil {
		t.Fatal(err)
	}
	opts.Now = fixedNow
	return New(input, cfg, tpl, opts, nil).Run()
}

func outputFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRunSingleStatement(t *testing.T) {
	input, cfg := setup(t, giftsCSV)

	result := run(t, input, cfg, "detailed", Options{})
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	if result.Stats.RowsRead != 5 || result.Stats.RowsKept != 3 || result.Stats.RowsDropped != 2 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}
	if result.Stats.GrandTotal.StringFixed(2) != "1200.50" || result.Stats.Categories != 2 {
		t.Fatalf("unexpected totals %+v", result.Stats)
	}
	if result.Stats.Documents != 1 || result.Stats.Pages < 1 {
		t.Fatalf("unexpected document stats %+v", result.Stats)
	}

	want := filepath.Join(cfg.OutputDir, "Contribution_Statement_20250323.pdf")
	if len(result.OutputFiles) != 1 || result.OutputFiles[0] != want {
		t.Fatalf("unexpected output files %v", result.OutputFiles)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Fatal("output is not a PDF")
	}
	if result.DropLogFile != "" {
		t.Fatal("drop log written although disabled")
	}
}

func TestRunNamesOutputByStatementDate(t *testing.T) {
	input, cfg := setup(t, giftsCSV)
	cfg.AsOf = "2024-12-31"
	cfg.WriteDropLog = true

	result := run(t, input, cfg, "summary", Options{})
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	got := outputFiles(t, cfg.OutputDir)
	want := []string{"Contribution_Statement_20241231.pdf", "dropped_rows_20241231_090000.txt"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRunPerDonor(t *testing.T) {
	input, cfg := setup(t, giftsCSV+",25,2024-03-01,Fund A,\n")
	cfg.WriteDropLog = true

	result := run(t, input, cfg, "individual", Options{})
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}

	got := outputFiles(t, cfg.OutputDir)
	want := []string{
		"Alice_Contribution_Report.pdf",
		"Bob_Contribution_Report.pdf",
		"dropped_rows_20250323_090000.txt",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("got files %v, want %v", got, want)
	}
	if result.Stats.Documents != 2 || result.DropLogFile == "" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunDryRun(t *testing.T) {
	input, cfg := setup(t, giftsCSV)
	cfg.WriteDropLog = true

	result := run(t, input, cfg, "summary", Options{DryRun: true})
	if !result.Success {
		t.Fatalf("run failed: %v", result.Error)
	}
	if result.Stats.Documents != 1 || result.Stats.Pages != 1 || len(result.OutputFiles) != 0 {
		t.Fatalf("unexpected dry run result %+v", result)
	}
	if files := outputFiles(t, cfg.OutputDir); len(files) != 0 {
		t.Fatalf("dry run wrote %v", files)
	}
}

func TestRunEmptySource(t *testing.T) {
	input, cfg := setup(t, "Name,Amount,DATE,Reason\n")

	result := run(t, input, cfg, "detailed", Options{})
	if !result.Success {
		t.Fatalf("empty source must still produce a statement: %v", result.Error)
	}
	if len(result.OutputFiles) != 1 || !result.Stats.GrandTotal.IsZero() {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestRunFailures(t *testing.T) {
	input, cfg := setup(t, giftsCSV)
	cfg.MaxDroppedRatio = 0.25

	result := run(t, input, cfg, "detailed", Options{})
	if result.Success || !errors.Is(result.Error, pipeline.ErrTooManyDropped) {
		t.Fatalf("expected ErrTooManyDropped, got %v", result.Error)
	}
	if files := outputFiles(t, cfg.OutputDir); len(files) != 0 {
		t.Fatalf("failed run wrote %v", files)
	}

	result = run(t, filepath.Join(filepath.Dir(input), "missing.csv"), config.Default(), "detailed", Options{})
	if result.Success || !errors.Is(result.Error, source.ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", result.Error)
	}

	cfg = config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.PeriodStart = "2024-06-01"
	cfg.PeriodEnd = "2024-01-01"
	result = run(t, input, cfg, "detailed", Options{})
	if result.Success || result.Error == nil {
		t.Fatal("expected a period error")
	}
}
