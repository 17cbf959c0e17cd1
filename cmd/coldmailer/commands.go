package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"

	"coldmailer/internal/adapters/smtp"
	"coldmailer/internal/adapters/store"
	"coldmailer/internal/adapters/template"
	"coldmailer/internal/core"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM so a
// long-running batch can be interrupted cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	dc := a.cfg.GetData()
	paths := a.cfg.GetPaths()
	for _, dir := range []string{dc.Dir, paths.Templates, paths.Attachments} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := template.SeedDefaults(paths.Templates); err != nil {
		return fmt.Errorf("failed to seed templates: %w", err)
	}

	if st, ok := a.store.(*store.Store); ok {
		existing, err := st.GetAll(context.Background())
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			if err := st.ImportAll(context.Background(), store.SampleContacts()); err != nil {
				return fmt.Errorf("failed to seed sample contacts: %w", err)
			}
			fmt.Printf("Seeded sample contacts in %s\n", st.Path())
		}
	}

	fmt.Printf("Initialized. Templates in %s, data in %s.\n", paths.Templates, dc.Dir)
	fmt.Println("Set GMAIL_EMAIL and GMAIL_APP_PASSWORD (or a .env file) before sending.")
	return nil
}

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	email := fs.String("email", "", "Contact email address (required)")
	firstName := fs.String("first-name", "", "First name (required)")
	lastName := fs.String("last-name", "", "Last name")
	title := fs.String("title", "", "Honorific title (Mr., Ms., Mrs., Dr., Prof.)")
	company := fs.String("company", "", "Company name")
	jobTitle := fs.String("job-title", "", "Job title")
	department := fs.String("department", "", "Department")
	greeting := fs.String("greeting", "", "Greeting style (formal, semi_formal, casual, professional)")
	custom := fs.String("custom", "", "Custom fields as key=value pairs, comma separated")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	customVars, err := parseKeyValues(*custom)
	if err != nil {
		return err
	}

	contact := &core.Contact{
		Email:        *email,
		FirstName:    *firstName,
		LastName:     *lastName,
		Title:        *title,
		Company:      *company,
		JobTitle:     *jobTitle,
		Department:   *department,
		CustomFields: customVars,
	}
	if *greeting != "" {
		style, err := core.ParseGreetingStyle(*greeting)
		if err != nil {
			return err
		}
		contact.GreetingStyle = style
	}

	if err := a.store.Add(context.Background(), contact); err != nil {
		return err
	}
	fmt.Printf("Added %s <%s> (%s)\n", contact.FullName(), contact.Email, contact.ID)
	return nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	statusFilter := fs.String("status", "", "Filter by status (pending, sent, replied, bounced)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	var contacts []*core.Contact
	if *statusFilter != "" {
		status, err := core.ParseStatus(*statusFilter)
		if err != nil {
			return err
		}
		contacts, err = a.store.GetByStatus(context.Background(), status)
		if err != nil {
			return err
		}
	} else {
		contacts, err = a.store.GetAll(context.Background())
		if err != nil {
			return err
		}
	}

	if len(contacts) == 0 {
		fmt.Println("No contacts found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Email", "Company", "Status", "Last Contacted"})
	for _, c := range contacts {
		lastContacted := "-"
		if c.LastContacted != nil {
			lastContacted = c.LastContacted.Format("2006-01-02 15:04")
		}
		table.Append([]string{c.FullName(), c.Email, c.Company, string(c.Status), lastContacted})
	}
	table.Render()
	return nil
}

func runSendAll(args []string) error {
	fs := flag.NewFlagSet("send-all", flag.ExitOnError)
	templateName := fs.String("template", "", "Template name (default from config)")
	custom := fs.String("custom", "", "Custom template variables as key=value pairs, comma separated")
	dryRun := fs.Bool("dry-run", false, "Render and report without sending or recording")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	customVars, err := parseKeyValues(*custom)
	if err != nil {
		return err
	}
	opts, err := a.batchOptions(*templateName, customVars, *dryRun)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.coordinator.SendAllPending(ctx, opts)
	if result != nil {
		printBatchResult(result, *dryRun)
	}
	return err
}

func runSendTo(args []string) error {
	fs := flag.NewFlagSet("send-to", flag.ExitOnError)
	to := fs.String("to", "", "Recipient email address (required)")
	templateName := fs.String("template", "", "Template name (default from config)")
	custom := fs.String("custom", "", "Custom template variables as key=value pairs, comma separated")
	dryRun := fs.Bool("dry-run", false, "Render and report without sending or recording")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("-to is required")
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	customVars, err := parseKeyValues(*custom)
	if err != nil {
		return err
	}
	opts, err := a.batchOptions(*templateName, customVars, *dryRun)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, err := a.coordinator.SendTo(ctx, *to, opts)
	if result != nil {
		printBatchResult(result, *dryRun)
	}
	return err
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	to := fs.String("to", "", "Contact email address (required)")
	templateName := fs.String("template", "", "Template name (default from config)")
	custom := fs.String("custom", "", "Custom template variables as key=value pairs, comma separated")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to == "" {
		return fmt.Errorf("-to is required")
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	contact, err := a.store.GetByEmail(context.Background(), *to)
	if err != nil {
		return err
	}
	customVars, err := parseKeyValues(*custom)
	if err != nil {
		return err
	}

	name := *templateName
	if name == "" {
		name = a.cfg.GetEmail().DefaultTemplate
	}
	msg, err := a.coordinator.Preview(contact, name, customVars)
	if err != nil {
		return err
	}

	fmt.Printf("To: %s\nSubject: %s\n\n%s\n", contact.Email, msg.Subject, msg.Body)
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	counts, err := a.store.Statistics(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Contacts:")
	for _, status := range []core.ContactStatus{core.StatusPending, core.StatusSent, core.StatusReplied, core.StatusBounced} {
		fmt.Printf("  %-8s %d\n", status, counts[status])
	}

	stats, err := a.coordinator.Governor().Statistics(ctx, time.Now(), a.cfg.GetRatePolicy())
	if err != nil {
		return err
	}
	fmt.Println("\nRate limits:")
	fmt.Printf("  Last hour  %d/%d (%d remaining)\n", stats.EmailsLastHour, stats.HourlyLimit, stats.HourlyRemaining)
	fmt.Printf("  Today      %d/%d (%d remaining)\n", stats.EmailsToday, stats.DailyLimit, stats.DailyRemaining)
	fmt.Printf("  Total sent %d\n", stats.TotalSent)
	return nil
}

func runHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum entries to show, 0 for all")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	attempts, err := a.ledger.History(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("No send history.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "Email", "Template", "Outcome", "Reason"})
	for _, att := range attempts {
		table.Append([]string{
			att.Timestamp.Format("2006-01-02 15:04:05"),
			att.Email,
			att.Template,
			string(att.Outcome),
			att.Reason,
		})
	}
	table.Render()
	return nil
}

func runTemplates(args []string) error {
	fs := flag.NewFlagSet("templates", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	names, err := a.mailer.CreateRenderer().ListTemplates()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No templates found. Run 'coldmailer init' to create the defaults.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runTestSMTP(args []string) error {
	fs := flag.NewFlagSet("test-smtp", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := signalContext()
	defer cancel()

	sc := a.cfg.GetSMTP()
	fmt.Printf("Connecting to %s:%d as %s...\n", sc.Host, sc.Port, sc.Username)
	if err := a.mailer.CreateTransmitter().TestConnection(ctx); err != nil {
		if smtp.IsAuthError(err) {
			fmt.Println("Authentication failed. Gmail requires an app password, not your account password.")
		}
		return err
	}
	fmt.Println("SMTP connection and authentication succeeded.")
	return nil
}

func runConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	to := fs.String("to", "", "Target format: csv or json (required)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to != "csv" && *to != "json" {
		return fmt.Errorf("-to must be csv or json")
	}

	a, err := newApp(*verbose)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	contacts, err := a.store.GetAll(ctx)
	if err != nil {
		return err
	}

	dir := a.cfg.GetData().Dir
	var target *store.Store
	if *to == "csv" {
		target = store.NewCSVStore(filepath.Join(dir, "contacts.csv"), a.logger)
	} else {
		target = store.NewJSONStore(filepath.Join(dir, "contacts.json"), a.logger)
	}
	if src, ok := a.store.(*store.Store); ok && src.Path() == target.Path() {
		return fmt.Errorf("contact store is already %s", *to)
	}

	if err := target.ImportAll(ctx, contacts); err != nil {
		return err
	}
	fmt.Printf("Wrote %d contacts to %s\n", len(contacts), target.Path())
	return nil
}

// parseKeyValues parses "key=value,key2=value2" into a map.
func parseKeyValues(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", pair)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func printBatchResult(result *core.BatchResult, dryRun bool) {
	if dryRun {
		for _, r := range result.Results {
			if r.Preview != "" {
				fmt.Printf("--- %s ---\n%s\n\n", r.Email, r.Preview)
			}
		}
	}
	for _, r := range result.Results {
		if r.Outcome != core.BatchSent {
			fmt.Printf("%s: %s (%s)\n", r.Email, r.Outcome, r.Reason)
		}
	}
	fmt.Printf("Total %d, sent %d, failed %d, skipped %d\n",
		result.Total, result.Sent, result.Failed, result.Skipped)
}
