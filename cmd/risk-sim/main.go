package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/journal"
	"github.com/quantaris/risk-engine/internal/logger"
	"github.com/quantaris/risk-engine/internal/monitoring"
	"github.com/quantaris/risk-engine/internal/risk"
	"github.com/quantaris/risk-engine/pkg/reporting"
)

func main() {
	var (
		configFile   = flag.String("config", "", "Configuration file (JSON or YAML); defaults apply when omitted")
		scenarioFile = flag.String("scenario", "", "Scenario file with portfolio snapshot and trade requests")
		xlsxOut      = flag.String("xlsx", "", "Write decisions to an Excel workbook at this path")
		envFile      = flag.String("env", ".env", "Environment file path (default: .env)")
		serveMetrics = flag.Bool("metrics", false, "Keep running after the scenario and serve Prometheus metrics")
	)
	flag.Parse()

	if *scenarioFile == "" {
		log.Fatal("Please specify a scenario file with -scenario flag")
	}

	if err := loadEnvFile(*envFile); err != nil {
		log.Printf("Warning: Could not load .env file (%v), checking environment variables...", err)
	}

	fmt.Println("🛡️ Risk Engine Starting...")

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	scenario, err := loadScenario(*scenarioFile)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	fileLog, err := logger.NewLogger("risk-sim")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLog.Close()

	manager := risk.NewManager(cfg)
	for _, c := range scenario.Correlations {
		manager.Correlation().SetPair(c.SymbolA, c.SymbolB, c.Coefficient)
	}

	sink, err := journal.Open(cfg.Journal)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	if sink != nil {
		manager.SetSink(sink)
		defer sink.Close()
	}

	reporting.PrintConfig(cfg)

	snap := scenario.snapshot()
	var events []risk.DecisionEvent
	for _, req := range scenario.Requests {
		decision, err := manager.Assess(req, snap)
		if err != nil {
			fileLog.LogError("assess "+req.Symbol, err)
			fmt.Printf("⚠️ %s: invalid request: %v\n", req.Symbol, err)
			continue
		}
		fileLog.LogDecision(req, decision)
		events = append(events, risk.DecisionEvent{Time: time.Now(), Request: req, Decision: decision})
	}

	reporting.PrintDecisions(events)
	reporting.PrintSummary(reporting.Summarize(events))

	if *xlsxOut != "" {
		if err := reporting.WriteDecisionsXLSX(events, *xlsxOut); err != nil {
			log.Fatalf("Failed to write workbook: %v", err)
		}
		fmt.Printf("\n📊 Workbook written to %s\n", *xlsxOut)
	}

	if *serveMetrics {
		serve(cfg.Monitoring.PrometheusPort)
	}

	fmt.Println("✅ Scenario complete")
}

// loadConfig loads the config file or falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return config.Load(path)
}

// serve exposes /metrics and blocks until an interrupt.
func serve(port int) {
	http.Handle("/metrics", monitoring.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("📡 Metrics at http://localhost%s/metrics. Press Ctrl+C to stop...\n", addr)
	sig := <-sigChan
	fmt.Printf("\n🛑 Shutdown signal (%v) received...\n", sig)
}

// loadEnvFile loads environment variables from a file
func loadEnvFile(envFile string) error {
	if _, err := os.Stat(envFile); err != nil {
		return err
	}
	return godotenv.Load(envFile)
}
