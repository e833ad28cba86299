package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"db-vacancy-manager/internal/config"
	"db-vacancy-manager/internal/errors"
	"db-vacancy-manager/internal/logging"
	"db-vacancy-manager/internal/scraper"
	"db-vacancy-manager/internal/scraper/sources"
	"db-vacancy-manager/internal/session"
	"db-vacancy-manager/internal/storage"
)

type options struct {
	configFile string
	command    string
	query      string
	keywords   string
	employerID int
	output     string
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		opts options
		help bool
	)
	flag.StringVar(&opts.configFile, "config", "config.yaml", "Configuration file path")
	flag.StringVar(&opts.command, "cmd", "run", "Command to run: run, load, query, check, config, delete")
	flag.StringVar(&opts.query, "query", "", "Query for -cmd query: companies, vacancies, avg, higher, keyword")
	flag.StringVar(&opts.keywords, "keywords", "", "Space-separated keywords for -query keyword")
	flag.IntVar(&opts.employerID, "employer", 0, "Employer ID for -cmd delete")
	flag.StringVar(&opts.output, "output", "console", "Output format: console, json")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.Parse()

	// Show help if requested
	if help {
		printUsage()
		return 0
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.LoadConfig(opts.configFile)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Printf("Configuration validation failed: %v", err)
		return 1
	}

	logger, cleanup, err := logging.New(cfg.Logging)
	if err != nil {
		log.Printf("Failed to setup logging: %v", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", zap.String("cmd", opts.command))
	defer logger.Info("finished", zap.String("cmd", opts.command))

	var cmdErr error
	switch opts.command {
	case "run":
		cmdErr = runInteractiveCommand(ctx, cfg, logger)
	case "load":
		cmdErr = runLoadCommand(ctx, cfg, logger, opts.output)
	case "query":
		cmdErr = runQueryCommand(ctx, cfg, logger, opts)
	case "check":
		cmdErr = runCheckCommand(ctx, cfg, logger)
	case "config":
		runConfigCommand(cfg, opts.output)
	case "delete":
		cmdErr = runDeleteCommand(ctx, cfg, logger, opts.employerID)
	default:
		fmt.Printf("Unknown command: %s\n", opts.command)
		printUsage()
		return 1
	}

	if cmdErr != nil {
		logger.Error("command failed",
			zap.String("cmd", opts.command),
			zap.Error(cmdErr),
			zap.ByteString("stack", errors.Stack(cmdErr)))
		fmt.Printf("⚠️ Произошла ошибка: %v\n", cmdErr)
		return 1
	}
	return 0
}

// runInteractiveCommand loads fresh data and then hands over to the menu
func runInteractiveCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	fmt.Println("🔎 Добро пожаловать в систему поиска вакансий!")
	fmt.Println("\n🔄 Получаем данные о вакансиях...")

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	collector, release, err := newCollector(cfg, store, logger)
	if err != nil {
		return err
	}
	defer release()

	if _, err := collector.Load(ctx); err != nil {
		return err
	}
	fmt.Println("✅  Данные успешно загружены!")

	return session.New(store, os.Stdin, os.Stdout, logger.Named(logging.Session)).Run(ctx)
}

func runLoadCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger, output string) error {
	fmt.Println("🔄 Получаем данные о вакансиях...")

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	collector, release, err := newCollector(cfg, store, logger)
	if err != nil {
		return err
	}
	defer release()

	metrics, err := collector.Load(ctx)
	if err != nil {
		return err
	}

	if output == "json" {
		outputJSON(metrics)
	} else {
		outputConsole(metrics)
	}
	return nil
}

func runQueryCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts options) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	var result any
	var lines []string

	switch opts.query {
	case "companies":
		companies, err := store.CompaniesAndVacanciesCount(ctx)
		if err != nil {
			return err
		}
		result = companies
		for _, c := range companies {
			lines = append(lines, session.FormatCompany(c))
		}
	case "vacancies", "higher", "keyword":
		var rows []storage.VacancyRow
		switch opts.query {
		case "vacancies":
			rows, err = store.AllVacancies(ctx)
		case "higher":
			rows, err = store.VacanciesWithHigherSalary(ctx)
		default:
			keywords := strings.Fields(opts.keywords)
			if len(keywords) == 0 {
				return errors.Usage("-keywords is required for -query keyword", nil)
			}
			rows, err = store.VacanciesWithKeyword(ctx, keywords)
		}
		if err != nil {
			return err
		}
		result = rows
		for _, r := range rows {
			lines = append(lines, session.FormatVacancy(r))
		}
	case "avg":
		avg, err := store.AverageSalary(ctx)
		if err != nil {
			return err
		}
		result = map[string]float64{"average_salary": avg}
		lines = append(lines, session.FormatAverageSalary(avg))
	default:
		return errors.Usage(fmt.Sprintf("unknown query %q", opts.query), nil)
	}

	if opts.output == "json" {
		outputJSON(result)
		return nil
	}
	if len(lines) == 0 {
		fmt.Println("⚠️ По вашему запросу ничего не найдено.")
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func runCheckCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	fmt.Println("Testing hh.ru API...")

	source, release := sources.NewHeadHunterFromConfig(cfg.API, logger.Named(logging.API))
	defer release()

	start := time.Now()
	if err := source.CheckConnection(ctx); err != nil {
		fmt.Printf("❌ %s test failed: %v\n", source.GetName(), err)
		return err
	}
	fmt.Printf("✅ %s test passed in %v\n", source.GetName(), time.Since(start))
	return nil
}

func runConfigCommand(cfg *config.Config, output string) {
	masked := *cfg
	masked.Database.Password = maskString(cfg.Database.Password)
	masked.Mirror.SupabaseKey = maskString(cfg.Mirror.SupabaseKey)
	masked.Mirror.SupabaseURL = maskString(cfg.Mirror.SupabaseURL)

	if output == "json" {
		outputJSON(masked)
		return
	}

	fmt.Println("Current Configuration:")
	fmt.Printf("API URL: %s\n", masked.API.BaseURL)
	fmt.Printf("Employers: %s\n", strings.Join(masked.API.Employers, ", "))
	fmt.Printf("Paging: %d per page, %d pages max\n", masked.API.PerPage, masked.API.MaxPages)
	fmt.Printf("Database: %s@%s:%d/%s\n", masked.Database.User, masked.Database.Host, masked.Database.Port, masked.Database.Name)
	fmt.Printf("Database Password: %s\n", masked.Database.Password)
	fmt.Printf("Log: %s (%s)\n", masked.Logging.File, masked.Logging.Level)
	fmt.Printf("Mirror Enabled: %t\n", masked.Mirror.Enabled)
	fmt.Printf("Mirror URL: %s\n", masked.Mirror.SupabaseURL)
	fmt.Printf("Mirror Key: %s\n", masked.Mirror.SupabaseKey)
	fmt.Printf("Refresh Interval: %v\n", masked.Loader.RefreshInterval)
}

func runDeleteCommand(ctx context.Context, cfg *config.Config, logger *zap.Logger, employerID int) error {
	if employerID <= 0 {
		return errors.Usage("-employer must be a positive employer ID", nil)
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore(store, logger)

	if err := store.DeleteEmployer(ctx, employerID); err != nil {
		return err
	}
	fmt.Printf("✅ Работодатель %d и его вакансии удалены.\n", employerID)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*storage.PostgresStore, error) {
	return storage.NewPostgresStore(ctx, cfg.Database.DSN(), logger.Named(logging.Store))
}

func closeStore(store storage.Store, logger *zap.Logger) {
	if err := store.Close(context.Background()); err != nil {
		logger.Warn("failed to close database connection", zap.Error(err))
	}
}

// newCollector wires the hh.ru source and the optional mirror around store
func newCollector(cfg *config.Config, store storage.Store, logger *zap.Logger) (*scraper.Collector, func(), error) {
	source, release := sources.NewHeadHunterFromConfig(cfg.API, logger.Named(logging.API))

	opts := []scraper.Option{scraper.WithProgress(os.Stderr)}
	if cfg.Mirror.Enabled {
		mirror, err := storage.NewSupabaseMirror(cfg.Mirror.SupabaseURL, cfg.Mirror.SupabaseKey)
		if err != nil {
			release()
			return nil, nil, err
		}
		opts = append(opts, scraper.WithMirror(mirror))
	}

	return scraper.NewCollector(source, store, logger, opts...), release, nil
}

func outputJSON(data interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func outputConsole(metrics scraper.Metrics) {
	fmt.Println("=== Load Results ===")
	fmt.Printf("Employers Fetched: %d\n", metrics.EmployersFetched)
	fmt.Printf("Employers Parsed: %d\n", metrics.EmployersParsed)
	fmt.Printf("Employers Inserted: %d\n", metrics.EmployersInserted)
	fmt.Printf("Vacancies Fetched: %d\n", metrics.VacanciesFetched)
	fmt.Printf("Vacancies Parsed: %d\n", metrics.VacanciesParsed)
	fmt.Printf("Vacancies Inserted: %d\n", metrics.VacanciesInserted)
	fmt.Printf("Duplicates: %d\n", metrics.Duplicates)
	fmt.Printf("Orphans: %d\n", metrics.Orphans)
	fmt.Printf("Mirror Errors: %d\n", metrics.MirrorErrors)
	fmt.Printf("Load Duration: %v\n", metrics.Duration)
}

func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

func printUsage() {
	fmt.Println("Vacancy Manager CLI Tool")
	fmt.Println("Usage:")
	fmt.Println("  vacancy-manager [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  -cmd run       - Load vacancies from hh.ru and open the menu (default)")
	fmt.Println("  -cmd load      - Load vacancies from hh.ru only")
	fmt.Println("  -cmd query     - Run a single query against the database")
	fmt.Println("  -cmd check     - Test the hh.ru API connection")
	fmt.Println("  -cmd config    - Show configuration")
	fmt.Println("  -cmd delete    - Delete an employer and its vacancies")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config string   - Configuration file (default: config.yaml)")
	fmt.Println("  -query string    - companies, vacancies, avg, higher, keyword")
	fmt.Println("  -keywords string - Space-separated keywords for -query keyword")
	fmt.Println("  -employer int    - Employer ID for -cmd delete")
	fmt.Println("  -output string   - Output format: console, json (default: console)")
	fmt.Println("  -help            - Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  vacancy-manager                                        # Load and open the menu")
	fmt.Println("  vacancy-manager -cmd query -query avg                  # Average salary")
	fmt.Println("  vacancy-manager -cmd query -query keyword -keywords \"go python\" -output json")
	fmt.Println("  vacancy-manager -cmd delete -employer 1740             # Delete Яндекс")
}
