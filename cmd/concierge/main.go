package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/concierge-services/concierge/internal/config"
	"github.com/concierge-services/concierge/internal/history"
	"github.com/concierge-services/concierge/internal/mailbox"
	"github.com/concierge-services/concierge/internal/refresh"
	"github.com/concierge-services/concierge/internal/service"
	"github.com/concierge-services/concierge/internal/web"
)

var cfgFile string

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "concierge",
		Short: "Concierge - Utility billing monitor for your inbox",
		Long: `Concierge watches an IMAP mailbox for recurring utility bills
(water, gas, electricity, telecom) and extracts structured billing data
from them.

It can detect billing senders automatically, track them as services,
and publish the latest bill of each service over a local dashboard.`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.concierge/config.yaml)")

	// Add commands
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(addServiceCmd())
	rootCmd.AddCommand(listServicesCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long:  "Create a new configuration file with your mailbox settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit()
		},
	}
}

func detectCmd() *cobra.Command {
	var limit int
	var save bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect billing services in the mailbox",
		Long: `Scan the most recent messages for recurring utility billing senders
and report the services found. Use --save to add them to the config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(limit, save)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of recent messages to scan (default from config)")
	cmd.Flags().BoolVar(&save, "save", false, "Add newly detected services to the config")

	return cmd
}

func addServiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-service",
		Short: "Add a tracked service manually",
		Long:  "Interactively add a billing service to the configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddService()
		},
	}
}

func listServicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-services",
		Short: "List all tracked services",
		Long:  "Show all billing services currently tracked in the configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListServices()
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle and print the results",
		Long:  "Scan the mailbox once and print the latest billing data for every tracked service.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard and periodic refresh loop",
		Long: `Start a local web server showing the latest bill of every tracked
service, refreshing the mailbox on a fixed interval.

The server runs locally on your machine - no data is sent to external servers.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on")

	return cmd
}

func statusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show refresh history and statistics",
		Long:  "Display recent refresh results and overall statistics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of recent refreshes to show")

	return cmd
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("📬 Concierge Configuration Setup")
	fmt.Println("================================")
	fmt.Println()

	cfg := &config.Config{}

	fmt.Println("📧 Mailbox Settings")
	fmt.Println("  (For Gmail, see https://support.google.com/accounts/answer/185833 for app password setup)")
	fmt.Println()

	cfg.Mailbox.Server = prompt(reader, "IMAP server [imap.gmail.com]: ")
	if cfg.Mailbox.Server == "" {
		cfg.Mailbox.Server = "imap.gmail.com"
	}
	portStr := prompt(reader, "IMAP port [993]: ")
	if portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port %q", portStr)
		}
		cfg.Mailbox.Port = port
	}
	cfg.Mailbox.Email = prompt(reader, "Email address: ")
	cfg.Mailbox.Password = prompt(reader, "App password: ")
	cfg.Mailbox.Folder = prompt(reader, "Folder to scan [INBOX]: ")

	configPath := resolveConfigPath()
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Configuration saved to: %s\n", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'concierge detect --save' to find billing services")
	fmt.Println("  2. Run 'concierge refresh' to extract the latest bills")
	fmt.Println("  3. Run 'concierge serve' to start the dashboard")

	return nil
}

func connect(cfg *config.Config) (*mailbox.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return mailbox.Connect(cfg.Mailbox.Server, cfg.Mailbox.Port,
		cfg.Mailbox.Email, cfg.Mailbox.Password, cfg.Mailbox.Folder)
}

func runDetect(limit int, save bool) error {
	configPath := resolveConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if limit <= 0 {
		limit = cfg.Options.ScanLimit
	}

	mbox, err := connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer mbox.Close()

	fmt.Printf("🔍 Scanning the last %d messages for billing senders...\n", limit)

	detected, err := service.Detect(mbox, limit)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if len(detected) == 0 {
		fmt.Println("No billing services found.")
		return nil
	}

	if store, err := openHistory(cfg); err == nil {
		for _, d := range detected {
			rec := &history.DetectionRecord{
				ServiceID:     d.ID,
				ServiceName:   d.Name,
				ServiceType:   string(d.Type),
				SampleFrom:    d.SampleFrom,
				SampleSubject: d.SampleSubject,
				EmailCount:    d.EmailCount,
			}
			if err := store.RecordDetection(rec); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record detection: %v\n", err)
			}
		}
		store.Close()
	}

	fmt.Printf("\n📋 Detected Services (%d)\n", len(detected))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for _, d := range detected {
		fmt.Printf("\n%s [%s]\n", d.Name, d.ID)
		fmt.Printf("  🧾 Type: %s\n", d.Type)
		fmt.Printf("  📧 From: %s\n", d.SampleFrom)
		fmt.Printf("  ✉️  Subject: %s\n", d.SampleSubject)
		fmt.Printf("  🔢 Emails: %d\n", d.EmailCount)
	}

	if !save {
		fmt.Println("\nRun again with --save to add these services to the config.")
		return nil
	}

	added := 0
	for _, d := range detected {
		rec := service.Record{
			ID:            d.ID,
			Name:          d.Name,
			Type:          d.Type,
			SampleFrom:    d.SampleFrom,
			SampleSubject: d.SampleSubject,
		}
		if err := cfg.AddService(rec); err != nil {
			continue // already tracked
		}
		added++
	}

	if added > 0 {
		if err := config.Save(configPath, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}
	fmt.Printf("\n✅ Added %d new services to %s\n", added, configPath)

	return nil
}

func runAddService() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("➕ Add Tracked Service")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	rec := service.Record{}

	rec.Name = prompt(reader, "Service name: ")
	rec.ID = service.Slug(rec.Name)
	rec.SampleFrom = prompt(reader, "Sender address of a billing email: ")
	rec.SampleSubject = prompt(reader, "Subject of a billing email (optional): ")

	typeStr := prompt(reader, "Type (water/gas/electricity/telecom) [auto]: ")
	switch strings.ToLower(typeStr) {
	case "water":
		rec.Type = service.TypeWater
	case "gas":
		rec.Type = service.TypeGas
	case "electricity":
		rec.Type = service.TypeElectricity
	case "telecom":
		rec.Type = service.TypeTelecom
	case "":
		rec.Type = service.Classify(rec.SampleFrom, rec.SampleSubject)
	default:
		return fmt.Errorf("unknown type %q", typeStr)
	}

	configPath := resolveConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.AddService(rec); err != nil {
		return err
	}

	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Printf("✅ Added %s (%s) to tracked services\n", rec.Name, rec.Type)

	return nil
}

func runListServices() error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Printf("📋 Tracked Services (%d total)\n", len(cfg.Services))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	for _, rec := range cfg.Services {
		fmt.Printf("\n%s [%s]\n", rec.Name, rec.ID)
		if rec.Type != "" {
			fmt.Printf("  🧾 Type: %s\n", rec.Type)
		}
		if rec.SampleFrom != "" {
			fmt.Printf("  📧 From: %s\n", rec.SampleFrom)
		}
		if rec.SampleSubject != "" {
			fmt.Printf("  ✉️  Subject: %s\n", rec.SampleSubject)
		}
	}

	return nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	dbPath := cfg.Options.HistoryDB
	if dbPath == "" {
		var err error
		dbPath, err = history.DefaultDBPath()
		if err != nil {
			return nil, err
		}
	}
	return history.NewStore(dbPath)
}

func newCoordinator(cfg *config.Config, store *history.Store) *refresh.Coordinator {
	dial := func() (refresh.Mailbox, error) {
		return connect(cfg)
	}
	return refresh.NewCoordinator(dial, cfg.Services, cfg.Options.ScanLimit, store)
}

func runRefresh() error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if len(cfg.Services) == 0 {
		fmt.Println("No services tracked yet. Run 'concierge detect --save' first.")
		return nil
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	coord := newCoordinator(cfg, store)

	fmt.Printf("🔄 Refreshing %d services...\n", len(cfg.Services))
	snap := coord.RefreshOnce()

	status := "✅"
	if snap.Status != refresh.StatusOK {
		status = "❌"
	}
	fmt.Printf("\n%s Mailbox status: %s\n", status, snap.Status)

	for _, rec := range cfg.Services {
		res, ok := snap.Services[rec.ID]
		if !ok {
			fmt.Printf("\n%s: no billing email found\n", rec.Name)
			continue
		}
		fmt.Printf("\n%s (%s) - bill from %s\n", res.ServiceName, res.ServiceType,
			res.LastUpdated.Format("2006-01-02"))
		for k, v := range res.Attributes {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	return nil
}

func runServe(port int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	coord := newCoordinator(cfg, store)

	interval := time.Duration(cfg.Options.RefreshMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coord.Run(ctx, interval)

	server := web.NewServer(port, coord, store)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.Start()
}

func runStatus(limit int) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	stats, err := store.GetStats()
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	fmt.Println("📊 Concierge Statistics")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()
	fmt.Printf("  Refresh results stored: %d\n", stats.TotalRefreshes)
	fmt.Printf("  Detection runs stored: %d\n", stats.TotalDetections)
	fmt.Printf("  Services seen: %d\n", stats.TrackedServices)

	records, err := store.RecentRefreshes(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent refreshes: %w", err)
	}

	if len(records) > 0 {
		fmt.Println()
		fmt.Printf("📜 Recent Refreshes (last %d)\n", limit)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		for _, r := range records {
			fmt.Printf("%s - %s (%d attributes)\n",
				r.CreatedAt.Format("2006-01-02 15:04"),
				r.ServiceName,
				r.AttributeCount,
			)
		}
	}

	detections, err := store.RecentDetections(limit)
	if err != nil {
		return fmt.Errorf("failed to get recent detections: %w", err)
	}

	if len(detections) > 0 {
		fmt.Println()
		fmt.Printf("🔍 Recent Detections (last %d)\n", limit)
		fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		for _, d := range detections {
			fmt.Printf("%s - %s [%s] from %s (%d emails)\n",
				d.CreatedAt.Format("2006-01-02 15:04"),
				d.ServiceName,
				d.ServiceType,
				d.SampleFrom,
				d.EmailCount,
			)
		}
	}

	return nil
}

func prompt(reader *bufio.Reader, message string) string {
	fmt.Print(message)
	input, err := reader.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(input)
}
