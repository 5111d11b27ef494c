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

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"

	"bell-registry/client"
	"bell-registry/domain"
	"bell-registry/domain/event"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:8080"`
	Email     string `env:"CHAT_EMAIL,required=true"`
	Password  string `env:"CHAT_PASSWORD,required=true"`
	LogLevel  string `env:"LOG_LEVEL,required=true"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the client lifecycle: login, conversation selection, the
// live event stream, and the interactive send loop.
func run() (int, error) {
	// 1. Load configuration from environment variables.
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Authenticate and pick a conversation.
	api := newAPIClient(config.ServerURL)
	if err := api.Login(config.Email, config.Password); err != nil {
		return exitRuntime, fmt.Errorf("login failed for %s: %w", config.Email, err)
	}
	color.Green.Printf(">>> Logged in as %s\n", config.Email)

	conversations, err := api.ListConversations()
	if err != nil {
		return exitRuntime, fmt.Errorf("could not list conversations: %w", err)
	}
	if len(conversations) == 0 {
		color.Yellow.Println("No conversations yet. Start one from the portal first.")
		return exitOK, nil
	}

	renderConversations(conversations)
	conversation, err := pickConversation(conversations)
	if err != nil {
		return exitConfig, err
	}

	// 4. Open the reconnecting event stream.
	controller := client.New(client.Options{
		Log:       log,
		StreamURL: config.ServerURL + "/api/messages/stream",
		Token:     api.Token(),
	})
	defer controller.Close()

	controller.Subscribe("terminal", func(e event.StreamEvent) {
		printEvent(conversation.ID, e)
	})
	controller.Start(ctx)

	color.Green.Printf(">>> Watching conversation %s (Ctrl+C to quit)\n", conversation.ID)
	color.Gray.Println("Type a message and press Enter to send.")

	// 5. Interactive send loop. Reading stdin in its own goroutine keeps
	// Ctrl+C responsive while a Scan call is blocked.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			color.Gray.Println("Stopping client...")
			return exitOK, nil
		case line, ok := <-lines:
			if !ok {
				return exitOK, nil
			}
			content := strings.TrimSpace(line)
			if content == "" {
				continue
			}
			if _, err := api.SendMessage(conversation.ID, content); err != nil {
				color.Red.Printf("Send failed: %v\n", err)
			}
		}
	}
}

func renderConversations(conversations []domain.Conversation) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Conversation", "Client", "Professional", "Status", "Last activity"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for i, c := range conversations {
		table.Append([]string{
			strconv.Itoa(i + 1),
			shortID(c.ID),
			shortID(c.ClientID),
			shortID(c.ProfessionalID),
			string(c.Status),
			c.LastMessageAt.Local().Format("02 Jan 15:04"),
		})
	}
	table.Render()
}

func pickConversation(conversations []domain.Conversation) (domain.Conversation, error) {
	fmt.Printf("Pick a conversation [1-%d]: ", len(conversations))
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return domain.Conversation{}, fmt.Errorf("no selection made")
	}
	index, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || index < 1 || index > len(conversations) {
		return domain.Conversation{}, fmt.Errorf("invalid selection %q", scanner.Text())
	}
	return conversations[index-1], nil
}

// printEvent renders stream events for the watched conversation. Events
// about other conversations still show up as a dimmed one-liner so the user
// knows something happened elsewhere.
func printEvent(conversationID string, e event.StreamEvent) {
	if e.ConversationID != "" && e.ConversationID != conversationID {
		color.Gray.Printf("(activity in conversation %s)\n", shortID(e.ConversationID))
		return
	}

	switch e.Type {
	case event.TypeNewMessage:
		data, ok := e.Data.(map[string]any)
		if !ok {
			return
		}
		sender, _ := data["senderId"].(string)
		content, _ := data["content"].(string)
		color.Cyan.Printf("[%s] %s: %s\n",
			time.Now().Format(time.TimeOnly), shortID(sender), content)
	case event.TypeMessageNotification:
		color.Yellow.Println("* new message *")
	case event.TypeConversationEnded:
		color.Red.Println("This conversation has been ended.")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
