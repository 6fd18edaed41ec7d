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

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"meetsync/client"
	"meetsync/domain"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables. UserID and
// Token may be left empty: the client then registers an anonymous
// account on startup, like the web app does on first visit.
type Config struct {
	ServerURL string `envconfig:"MEETSYNC_SERVER_URL" default:"http://localhost:8080"`
	MeetingID string `envconfig:"MEETSYNC_MEETING_ID"`
	UserID    string `envconfig:"MEETSYNC_USER_ID"`
	Token     string `envconfig:"MEETSYNC_TOKEN"`
	Name      string `envconfig:"MEETSYNC_NAME" default:"anonymous"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(config.ServerURL).WithCredentials(config.UserID, config.Token)

	// First visit: no credentials yet, register an anonymous account.
	if config.UserID == "" || config.Token == "" {
		creds, err := api.Register(ctx)
		if err != nil {
			return exitRuntime, fmt.Errorf("registration failed: %w", err)
		}
		config.UserID = creds.UserID
		config.Token = creds.Token
		color.Yellow.Printf("Registered as %s (token expires %s)\n",
			creds.UserID, creds.Expiration.Format(time.DateOnly))
		color.Yellow.Printf("Export MEETSYNC_USER_ID=%s MEETSYNC_TOKEN=%s to reuse this identity\n",
			creds.UserID, creds.Token)
	}

	// No meeting given: create one and print the shareable id.
	if config.MeetingID == "" {
		meeting, err := api.CreateMeeting(ctx)
		if err != nil {
			return exitRuntime, fmt.Errorf("meeting creation failed: %w", err)
		}
		config.MeetingID = string(meeting.ID)
		color.Yellow.Printf("Created meeting %s\n", config.MeetingID)
	}

	session := client.NewSession(log, client.Config{
		ServerURL: config.ServerURL,
		MeetingID: config.MeetingID,
		UserID:    config.UserID,
		Token:     config.Token,
	})
	session.SetDisplayName(config.Name)

	session.OnStateChange(func(state client.State) {
		switch state {
		case client.StateLive:
			color.Green.Printf("\n[%s] %s\n", config.MeetingID, state)
		case client.StateDisconnected:
			color.Red.Printf("\n[%s] %s, reconnecting...\n", config.MeetingID, state)
		default:
			color.Gray.Printf("\n[%s] %s\n", config.MeetingID, state)
		}
	})
	session.OnMeetingChange(renderMeeting)
	session.OnSyncError(func(message string) {
		color.Red.Printf("Sync error: %s\n", message)
	})

	errChan := make(chan error, 1)
	go func() { errChan <- session.Run(ctx) }()

	go readCommands(ctx, session)

	color.Green.Printf(">>> Joined meeting %s as %s (Ctrl+C to quit)\n", config.MeetingID, config.Name)
	fmt.Println(`Commands: "title <text>" | "add <HH:MM> <HH:MM>" (slot today, UTC) | "clear"`)

	err := <-errChan
	if err != nil && ctx.Err() == nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

// readCommands drives the session from stdin: title edits, adding an
// availability slot for today and clearing the local slice.
func readCommands(ctx context.Context, session *client.Session) {
	var slots []domain.Timeslot
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "title "):
			session.SetTitle(strings.TrimSpace(strings.TrimPrefix(line, "title ")))
		case strings.HasPrefix(line, "add "):
			slot, err := parseSlot(strings.Fields(line)[1:])
			if err != nil {
				color.Red.Printf("Bad slot: %v\n", err)
				continue
			}
			slots = append(slots, slot)
			session.SetTimes(slots)
		case line == "clear":
			slots = []domain.Timeslot{}
			session.SetTimes(slots)
		case line == "":
		default:
			color.Red.Printf("Unknown command %q\n", line)
		}
	}
}

func parseSlot(args []string) (domain.Timeslot, error) {
	if len(args) != 2 {
		return domain.Timeslot{}, fmt.Errorf("expected start and end, e.g. add 09:00 10:30")
	}
	start, err := parseTimeOfDay(args[0])
	if err != nil {
		return domain.Timeslot{}, err
	}
	end, err := parseTimeOfDay(args[1])
	if err != nil {
		return domain.Timeslot{}, err
	}
	if !start.Before(end) {
		return domain.Timeslot{}, fmt.Errorf("start must be before end")
	}
	return domain.Timeslot{Start: start, End: end}, nil
}

func parseTimeOfDay(value string) (time.Time, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("expected HH:MM, got %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("bad hour %q", parts[0])
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("bad minute %q", parts[1])
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC), nil
}

// renderMeeting prints the availability of every member as a table,
// one row per member.
func renderMeeting(meeting domain.Meeting) {
	title := meeting.Title
	if title == "" {
		title = "(untitled)"
	}
	color.Cyan.Printf("\n=== %s ===\n", title)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Member", "Name", "Availability"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, member := range meeting.Members {
		table.Append([]string{string(member.ID), member.Name, formatSlots(member.Times)})
	}
	table.Render()
}

func formatSlots(slots []domain.Timeslot) string {
	if len(slots) == 0 {
		return "-"
	}
	formatted := make([]string, 0, len(slots))
	for _, slot := range slots {
		formatted = append(formatted, fmt.Sprintf("%s → %s",
			slot.Start.Format("Mon 15:04"), slot.End.Format("15:04")))
	}
	return strings.Join(formatted, ", ")
}
