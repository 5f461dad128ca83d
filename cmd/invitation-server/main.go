package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/config"
	"wedding-invitation/internal/directory"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/invitation"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/submit"
	"wedding-invitation/internal/whatsapp"
)

type receiptStore interface {
	rsvp.ReceiptStore
	ListReceipts() ([]models.RSVPReceipt, error)
	ListByAttendance(attendance models.Attendance) ([]models.RSVPReceipt, error)
	Close() error
}

func main() {
	fmt.Println("💌 Wedding Invitation Server")
	fmt.Println("============================")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	// Load guest directory
	var dir *directory.Directory
	if cfg.GuestListFile != "" {
		dir, err = directory.Load(cfg.GuestListFile)
	} else {
		dir, err = directory.Default()
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading guest list")
	}
	log.Info().Int("guests", dir.Len()).Msg("Guest list loaded")

	// Initialize receipt storage
	store, err := openStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}
	defer store.Close()

	// Initialize form submission
	var submitter rsvp.Submitter
	if cfg.EmailJSConfigured() {
		submitter = submit.NewEmailJSSubmitter(submit.Config{
			Endpoint:   cfg.EmailJSEndpoint,
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			Timeout:    cfg.SubmitTimeout,
			Retries:    cfg.SubmitRetries,
		}, log)
	} else {
		log.Warn().Msg("EmailJS is not configured, RSVPs will only be recorded locally")
		submitter = submit.NewNoopSubmitter(log)
	}

	rsvpService := rsvp.NewService(dir, store, submitter, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize WhatsApp service
	var whatsappService *whatsapp.Service
	if cfg.WhatsAppEnabled {
		whatsappService, err = whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:      cfg.WhatsAppDataDir,
			NotifyNumber: cfg.WhatsAppNotifyNumber,
			CountryCode:  cfg.WhatsAppCountryCode,
			CoupleNames:  cfg.CoupleNames,
			WeddingDate:  cfg.WeddingDate,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing WhatsApp service")
		}

		fmt.Println("Connecting to WhatsApp...")
		if err := whatsappService.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("Error connecting to WhatsApp")
		}
		defer whatsappService.Disconnect()

		rsvpService.SetNotifier(whatsappService)
	}

	h := handler.NewHandler(rsvpService, &handler.Config{
		CoupleNames: cfg.CoupleNames,
		WeddingDate: cfg.WeddingDate,
		CeremonyAt:  cfg.CeremonyAt,
	}, log)
	e := handler.NewServer(h)

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("Serving invitation")
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	// Start interactive CLI
	if whatsappService != nil {
		go startCLI(ctx, whatsappService, dir, store, cfg)
	}

	<-ctx.Done()

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down HTTP server")
	}
	fmt.Println("Goodbye! 👋")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func openStore(cfg *config.Config) (receiptStore, error) {
	if cfg.ReceiptStore == "sqlite" {
		s, err := storage.NewSQLiteStore(filepath.Join(cfg.DataDir, "receipts.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := storage.NewStorage(filepath.Join(cfg.DataDir, "receipts.json"))
	if err != nil {
		return nil, err
	}
	return s, nil
}

func startCLI(ctx context.Context, wa *whatsapp.Service, dir *directory.Directory, store receiptStore, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. Send invitation link")
		fmt.Println("  2. View guest list")
		fmt.Println("  3. View RSVPs by attendance")
		fmt.Println("  4. Exit")
		fmt.Print("\nEnter command (1-4): ")

		if !scanner.Scan() {
			break
		}

		command := strings.TrimSpace(scanner.Text())

		switch command {
		case "1":
			sendInvitation(ctx, scanner, wa, dir, cfg)
		case "2":
			viewGuests(dir, store)
		case "3":
			viewRSVPsByAttendance(scanner, store)
		case "4":
			fmt.Println("Exiting...")
			syscall.Kill(os.Getpid(), syscall.SIGTERM)
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func sendInvitation(ctx context.Context, scanner *bufio.Scanner, wa *whatsapp.Service, dir *directory.Directory, cfg *config.Config) {
	fmt.Print("Enter guest name: ")
	if !scanner.Scan() {
		return
	}
	guest, err := dir.Lookup(strings.TrimSpace(scanner.Text()))
	if err != nil {
		fmt.Println("❌ That name is not on the guest list.")
		return
	}

	fmt.Print("Enter phone number (with country code, e.g., 94771234567): ")
	if !scanner.Scan() {
		return
	}
	phoneNumber := strings.TrimSpace(scanner.Text())

	link, err := invitation.Link(cfg.PublicBaseURL, guest.Name, 0)
	if err != nil {
		fmt.Printf("❌ Error building invitation link: %v\n", err)
		return
	}

	fmt.Printf("\nSending invitation to %s (%s)...\n", guest.Name, phoneNumber)
	if err := wa.SendInvitation(ctx, phoneNumber, guest.Name, link); err != nil {
		fmt.Printf("❌ Error sending invitation: %v\n", err)
	} else {
		fmt.Printf("✅ Invitation sent: %s\n", link)
	}
}

func viewGuests(dir *directory.Directory, store receiptStore) {
	guests := dir.Records()

	fmt.Printf("\n📋 Guest list (%d total):\n", len(guests))
	fmt.Println(strings.Repeat("-", 60))
	for _, guest := range guests {
		status := "pending"
		if r, err := store.GetReceipt(directory.ReceiptKey(guest.Name)); err == nil {
			status = string(r.Attendance)
		}
		fmt.Printf("%-30s party of %d  %-10s %s\n", guest.Name, guest.GuestCount, guest.InvitedTo, status)
	}
	fmt.Println(strings.Repeat("-", 60))
}

func viewRSVPsByAttendance(scanner *bufio.Scanner, store receiptStore) {
	fmt.Println("\nSelect attendance:")
	fmt.Println("  1. Accepted")
	fmt.Println("  2. Declined")
	fmt.Print("Enter choice (1-2): ")

	if !scanner.Scan() {
		return
	}

	var attendance models.Attendance
	switch strings.TrimSpace(scanner.Text()) {
	case "1":
		attendance = models.AttendanceAccepted
	case "2":
		attendance = models.AttendanceDeclined
	default:
		fmt.Println("Invalid choice.")
		return
	}

	receipts, err := store.ListByAttendance(attendance)
	if err != nil {
		fmt.Printf("❌ Error reading RSVPs: %v\n", err)
		return
	}
	if len(receipts) == 0 {
		fmt.Printf("\nNo RSVPs with attendance '%s'.\n", attendance)
		return
	}

	fmt.Printf("\n📋 RSVPs '%s' (%d total):\n", attendance, len(receipts))
	fmt.Println(strings.Repeat("-", 60))
	for _, r := range receipts {
		fmt.Printf("Name: %s\n", r.Name)
		fmt.Printf("Sent: %s\n", r.SubmittedAt.Format("2006-01-02 15:04:05"))
		fmt.Println(strings.Repeat("-", 60))
	}
}
