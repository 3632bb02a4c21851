package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lactest/internal/analysis"
	"lactest/internal/api"
	"lactest/internal/config"
	"lactest/internal/importer"
	"lactest/internal/report"
	"lactest/internal/service"
	"lactest/internal/store"
	"lactest/internal/tui"
)

const usage = `Usage: lactest [command] [flags] [args]

Commands:
  (none)                              interactive test browser
  list                                list stored tests
  import [flags] <file.csv|file.fit>  store a stage test
  analyze [id]                        analyze one test, or every pending test
  analyze -file <file.csv>            analyze a CSV without storing it
  methods <id>                        compare every detection method
  override <id> <LT1|LT2> <lactate> <intensity>
  override -clear <id> <LT1|LT2>      manage manual thresholds
  report [flags] <id>                 write an HTML chart report
  delete <id>                         remove a test
  zones                               estimated zones from the athlete settings
  serve [-addr :8080]                 run the HTTP API
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd := ""
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	case "zones":
		printZones(service.NewAnalysisService(nil, cfg).EstimateZones(), cfg.Display.PaceUnit)
		return nil
	case "analyze":
		// Stateless analysis needs no database
		if len(args) > 0 && (args[0] == "-file" || args[0] == "--file") {
			return analyzeFile(cfg, args)
		}
	}

	dbPath, err := cfg.DBPath()
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	analysisSvc := service.NewAnalysisService(db, cfg)
	querySvc := service.NewQueryService(db, cfg.Display.PaceUnit)

	switch cmd {
	case "":
		app := tui.NewApp(analysisSvc, querySvc, cfg.Display.PaceUnit)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	case "list":
		return listTests(querySvc)
	case "import":
		return importTest(analysisSvc, cfg.Display.PaceUnit, args)
	case "analyze":
		return analyze(analysisSvc, cfg.Display.PaceUnit, args)
	case "methods":
		return compareMethods(analysisSvc, querySvc, args)
	case "override":
		return override(analysisSvc, args)
	case "report":
		return writeReport(querySvc, cfg.Display.PaceUnit, args)
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: lactest delete <id>")
		}
		if err := analysisSvc.DeleteTest(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted test %s\n", args[0])
		return nil
	case "serve":
		return serve(cfg, analysisSvc, querySvc, args)
	}

	fmt.Print(usage)
	return fmt.Errorf("unknown command %q", cmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Println("No config file found. Creating example config...")
		if err := config.CreateExample(); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		configDir, _ := config.GetConfigDir()
		fmt.Printf("Edit %s/config.json to set age, gender and max HR for better zones.\n\n", configDir)
		d := config.DefaultConfig()
		cfg = &d
	} else if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		configDir, _ := config.GetConfigDir()
		return nil, fmt.Errorf("config validation failed: %w (edit %s/config.json)", err, configDir)
	}
	return cfg, nil
}

func listTests(qs *service.QueryService) error {
	tests, total, err := qs.ListTests(service.TestListLimit, 0)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Println("No tests yet. Import one with 'lactest import <file>'.")
		return nil
	}

	fmt.Printf("%-36s  %-11s  %-20s  %-5s  %-22s  %-22s\n", "ID", "Date", "Athlete", "Sport", "LT1", "LT2")
	for _, ts := range tests {
		fmt.Printf("%-36s  %-11s  %-20s  %-5s  %-22s  %-22s\n",
			ts.Test.ID,
			ts.Test.TestedAt.Format("02 Jan 2006"),
			ts.Test.Athlete,
			ts.Test.Sport,
			storedCell(qs, ts.LT1),
			storedCell(qs, ts.LT2),
		)
	}
	if total > len(tests) {
		fmt.Printf("... and %d more\n", total-len(tests))
	}
	return nil
}

func storedCell(qs *service.QueryService, t *store.Threshold) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s @ %d bpm", qs.FormatIntensity(t.Value, t.Unit), t.HeartRate)
}

func importTest(svc *service.AnalysisService, paceUnit string, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	athlete := fs.String("athlete", "", "athlete name")
	sport := fs.String("sport", "", "sport (run, bike, row); FIT files carry their own")
	date := fs.String("date", "", "test date as YYYY-MM-DD; FIT files carry their own")
	notes := fs.String("notes", "", "free-text notes")
	lactates := fs.String("lactates", "", "comma-separated lactate per FIT lap, 0 to skip a lap")
	analyzeNow := fs.Bool("analyze", false, "analyze right after importing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: lactest import [flags] <file.csv|file.fit>")
	}
	path := fs.Arg(0)

	test := &store.StageTest{
		Athlete: *athlete,
		Sport:   *sport,
		Notes:   *notes,
	}
	if *date != "" {
		at, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("parsing -date: %w", err)
		}
		test.TestedAt = at.UTC()
	}

	var raw []analysis.RawStage
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit":
		values, err := parseLactates(*lactates)
		if err != nil {
			return err
		}
		ft, err := importer.ReadFIT(path, values)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		raw = ft.Stages
		test.Source = service.SourceFIT
		if test.Sport == "" {
			test.Sport = ft.Sport
		}
		if test.TestedAt.IsZero() {
			test.TestedAt = ft.Start
		}
	default:
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		raw, err = importer.ReadCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		test.Source = service.SourceCSV
	}
	if test.Sport == "" {
		test.Sport = "run"
	}

	id, err := svc.ImportTest(test, raw)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	fmt.Printf("Imported test %s (%d stages)\n", id, len(raw))

	if *analyzeNow {
		return analyze(svc, paceUnit, []string{id})
	}
	return nil
}

func parseLactates(s string) ([]float64, error) {
	if s == "" {
		return nil, errors.New("FIT import needs -lactates with one value per lap")
	}
	var values []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing lactate %q: %w", part, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func analyze(svc *service.AnalysisService, paceUnit string, args []string) error {
	if len(args) == 1 {
		res, err := svc.AnalyzeTest(args[0])
		if err != nil {
			return err
		}
		printResult(res, paceUnit)
		return nil
	}
	if len(args) > 1 {
		return errors.New("usage: lactest analyze [id]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := make(chan service.BatchProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			switch {
			case p.Error != nil:
				fmt.Printf("  error: %v\n", p.Error)
			case p.CurrentTest != "":
				fmt.Printf("[%d/%d] %s\n", p.Completed+1, p.Total, p.CurrentTest)
			}
		}
	}()

	result, err := svc.AnalyzeAll(ctx, progress)
	<-done
	if err != nil {
		return err
	}

	if result.Pending == 0 {
		fmt.Println("Every test is up to date.")
		return nil
	}
	fmt.Printf("Analyzed %d of %d tests, %d warnings, %d errors\n",
		result.Analyzed, result.Pending, result.Warnings, len(result.Errors))
	return nil
}

func analyzeFile(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	file := fs.String("file", "", "CSV file to analyze without storing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	raw, err := importer.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *file, err)
	}

	res, err := service.NewAnalysisService(nil, cfg).AnalyzeStages(raw, nil)
	if err != nil {
		return err
	}
	printResult(res, cfg.Display.PaceUnit)
	return nil
}

func printResult(res *service.Result, paceUnit string) {
	a := res.Analysis
	unit := string(res.Unit)

	fmt.Printf("Profile: %s\n\n", a.Profile.Type)
	for _, t := range []struct {
		kind analysis.Kind
		th   analysis.Threshold
	}{{analysis.LT1, a.LT1}, {analysis.LT2, a.LT2}} {
		fmt.Printf("%s  %-12s  %3d bpm  %4.1f mmol/L  %3d%% HRmax  %s (%s)\n",
			t.kind,
			service.FormatIntensity(t.th.Value, unit, paceUnit),
			t.th.HeartRate,
			t.th.Lactate,
			t.th.PercentOfMax,
			t.th.Method,
			t.th.Confidence,
		)
	}
	fmt.Println()
	printZones(res.Zones, paceUnit)

	if len(res.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range res.Warnings {
			fmt.Printf("  ! %s\n", w)
		}
	}
}

func printZones(z analysis.ZoneCalculationResult, paceUnit string) {
	fmt.Printf("Zones (%s, %s confidence, max HR %d)\n", z.Method, z.Confidence, z.MaxHR)
	for _, zone := range z.Zones {
		fmt.Printf("  Z%d %-12s  %3d-%3d bpm  %2d-%3d%%  %s\n",
			zone.Zone, zone.Name, zone.HRMin, zone.HRMax, zone.PercentMin, zone.PercentMax, zone.Intensity)
	}
	if z.Warning != "" {
		fmt.Printf("  %s\n", z.Warning)
	}
}

func compareMethods(svc *service.AnalysisService, qs *service.QueryService, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: lactest methods <id>")
	}
	results, err := svc.CompareMethods(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%-4s  %-22s  %-12s  %7s  %8s  %s\n", "Kind", "Method", "Intensity", "HR", "Lactate", "Confidence")
	for _, r := range results {
		if !r.OK {
			fmt.Printf("%-4s  %-22s  no result\n", r.Kind, r.Method)
			continue
		}
		t := r.Threshold
		fmt.Printf("%-4s  %-22s  %-12s  %3d bpm  %8.2f  %s\n",
			r.Kind, r.Method, qs.FormatIntensity(t.Value, string(t.Unit)), t.HeartRate, t.Lactate, t.Confidence)
	}
	return nil
}

func override(svc *service.AnalysisService, args []string) error {
	fs := flag.NewFlagSet("override", flag.ContinueOnError)
	clearOverride := fs.Bool("clear", false, "remove the manual threshold")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *clearOverride {
		if fs.NArg() != 2 {
			return errors.New("usage: lactest override -clear <id> <LT1|LT2>")
		}
		if err := svc.ClearOverride(fs.Arg(0), fs.Arg(1)); err != nil {
			return err
		}
		fmt.Printf("Cleared %s override. Run 'lactest analyze %s' to update results.\n", strings.ToUpper(fs.Arg(1)), fs.Arg(0))
		return nil
	}

	if fs.NArg() != 4 {
		return errors.New("usage: lactest override <id> <LT1|LT2> <lactate> <intensity>")
	}
	lactate, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		return fmt.Errorf("parsing lactate: %w", err)
	}
	intensity, err := parseIntensity(fs.Arg(3))
	if err != nil {
		return fmt.Errorf("parsing intensity: %w", err)
	}

	if err := svc.SetOverride(fs.Arg(0), fs.Arg(1), lactate, intensity); err != nil {
		return err
	}
	fmt.Printf("Set %s override. Run 'lactest analyze %s' to update results.\n", strings.ToUpper(fs.Arg(1)), fs.Arg(0))
	return nil
}

// parseIntensity accepts plain numbers and m:ss paces
func parseIntensity(s string) (float64, error) {
	if strings.Contains(s, ":") {
		return importer.ParsePace(s)
	}
	return strconv.ParseFloat(s, 64)
}

func writeReport(qs *service.QueryService, paceUnit string, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default lactest-<id>.html)")
	noOpen := fs.Bool("no-open", false, "don't open the report in a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: lactest report [-o file] [-no-open] <id>")
	}
	id := fs.Arg(0)

	detail, err := qs.GetTestDetail(id)
	if err != nil {
		return err
	}
	if detail.Stale() {
		fmt.Printf("Test %s has no current analysis; run 'lactest analyze %s' for thresholds and zones.\n", id, id)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("lactest-%s.html", id)
	}
	if err := report.WriteFile(path, report.FromDetail(detail, paceUnit)); err != nil {
		return err
	}
	fmt.Printf("Report written to %s\n", path)

	if !*noOpen {
		if err := report.Open(path); err != nil {
			fmt.Println("Open it in your browser to view the charts.")
		}
	}
	return nil
}

func serve(cfg *config.Config, analysisSvc *service.AnalysisService, querySvc *service.QueryService, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.Serve(ctx, *addr, api.NewHandler(analysisSvc, querySvc))
}
