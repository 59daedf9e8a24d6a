// Command yaslandirma drives the aging-report engine from the command line:
// it processes a report workbook into per-vehicle portfolios and manages the
// vehicle-to-personnel assignments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/assignment"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/config"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/infrastructure"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/numeric"
	"github.com/alibedirhan/Bup-Yonetim-sub000/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to ./config.yaml)")
	inPath := flag.String("in", "", "aging report workbook (.xlsx or .xls) to analyze")

	assignVehicle := flag.String("assign", "", "vehicle number to assign (requires -responsible)")
	responsible := flag.String("responsible", "", "responsible person for -assign")
	email := flag.String("email", "", "e-mail for -assign")
	phone := flag.String("phone", "", "phone for -assign")
	department := flag.String("department", "", "department for -assign")
	notes := flag.String("notes", "", "notes for -assign")

	unassignVehicle := flag.String("unassign", "", "vehicle number to unassign")
	reason := flag.String("reason", "", "reason recorded in the history for -unassign")
	listAssignments := flag.Bool("list-assignments", false, "print all assignments")
	workloads := flag.Bool("workloads", false, "print per-person workloads")
	search := flag.String("search", "", "search assignments")
	history := flag.String("history", "", "print assignment history (vehicle number or 'all')")

	exportPath := flag.String("export", "", "write all data bundles to one aggregate file")
	importPath := flag.String("import", "", "restore data bundles from an aggregate file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	svc, err := services.NewAnalysisService(logger, cfg)
	if err != nil {
		logger.Error("failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, svc, options{
		inPath:          *inPath,
		assignVehicle:   *assignVehicle,
		responsible:     *responsible,
		email:           *email,
		phone:           *phone,
		department:      *department,
		notes:           *notes,
		unassignVehicle: *unassignVehicle,
		reason:          *reason,
		listAssignments: *listAssignments,
		workloads:       *workloads,
		search:          *search,
		history:         *history,
		exportPath:      *exportPath,
		importPath:      *importPath,
	}); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, "hata:", err)
		os.Exit(1)
	}
}

type options struct {
	inPath          string
	assignVehicle   string
	responsible     string
	email           string
	phone           string
	department      string
	notes           string
	unassignVehicle string
	reason          string
	listAssignments bool
	workloads       bool
	search          string
	history         string
	exportPath      string
	importPath      string
}

func run(ctx context.Context, svc *services.AnalysisService, opts options) error {
	ran := false

	if opts.importPath != "" {
		ran = true
		report, err := svc.Import(ctx, opts.importPath)
		if err != nil {
			return err
		}
		fmt.Printf("içe aktarıldı: %d paket, atlandı: %d, başarısız: %d\n",
			len(report.Imported), len(report.Skipped), len(report.Failed))
		for name, reason := range report.Failed {
			fmt.Printf("  %s: %s\n", name, reason)
		}
	}

	if opts.assignVehicle != "" {
		ran = true
		record, err := svc.AssignVehicle(opts.assignVehicle, assignment.Info{
			Responsible: opts.responsible,
			Email:       opts.email,
			Phone:       opts.phone,
			Department:  opts.department,
			Notes:       opts.notes,
		})
		if err != nil {
			return err
		}
		fmt.Printf("araç %s -> %s\n", record.Vehicle, record.Responsible)
	}

	if opts.unassignVehicle != "" {
		ran = true
		if err := svc.UnassignVehicle(opts.unassignVehicle, opts.reason); err != nil {
			return err
		}
		fmt.Printf("araç %s ataması kaldırıldı\n", opts.unassignVehicle)
	}

	if opts.inPath != "" {
		ran = true
		if err := analyze(ctx, svc, opts.inPath); err != nil {
			return err
		}
	}

	if opts.listAssignments {
		ran = true
		printAssignments(svc.Assignments())
	}

	if opts.search != "" {
		ran = true
		printAssignments(svc.SearchAssignments(opts.search))
	}

	if opts.workloads {
		ran = true
		printWorkloads(svc.Workloads())
	}

	if opts.history != "" {
		ran = true
		vehicle := opts.history
		if vehicle == "all" {
			vehicle = ""
		}
		printHistory(svc.AssignmentHistory(vehicle, 0))
	}

	if opts.exportPath != "" {
		ran = true
		if err := svc.Export(opts.exportPath); err != nil {
			return err
		}
		fmt.Println("dışa aktarıldı:", opts.exportPath)
	}

	if !ran {
		flag.Usage()
	}
	return nil
}

func analyze(ctx context.Context, svc *services.AnalysisService, path string) error {
	result, err := svc.RunAnalysisSync(ctx, path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ARAÇ\tMÜŞTERİ\tAÇIK HESAP\tTOPLAM BAKİYE\tSORUMLU")
	for _, v := range result.Vehicles {
		responsible := "-"
		if record, err := svc.Assignment(v.Vehicle); err == nil {
			responsible = record.Responsible
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			v.Vehicle,
			v.CustomerCount,
			numeric.Format(v.OpenAccount),
			numeric.Format(v.TotalBalance),
			responsible)
	}
	return w.Flush()
}

func printAssignments(records []assignment.Record) {
	if len(records) == 0 {
		fmt.Println("atama yok")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ARAÇ\tSORUMLU\tDURUM\tTELEFON\tE-POSTA\tBİRİM")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Vehicle, r.Responsible, r.Status, r.Phone, r.Email, r.Department)
	}
	w.Flush()
}

func printWorkloads(workloads []assignment.Workload) {
	if len(workloads) == 0 {
		fmt.Println("atama yok")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SORUMLU\tARAÇ SAYISI\tAKTİF\tPASİF\tARAÇLAR")
	for _, wl := range workloads {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%v\n",
			wl.Responsible, wl.Count, wl.Active, wl.Inactive, wl.Vehicles)
	}
	w.Flush()
}

func printHistory(events []assignment.HistoryEvent) {
	if len(events) == 0 {
		fmt.Println("geçmiş boş")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ZAMAN\tARAÇ\tİŞLEM\tSORUMLU\tSEBEP")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.Vehicle, e.Action, e.Snapshot.Responsible, e.Reason)
	}
	w.Flush()
}
