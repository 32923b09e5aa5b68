package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Blog Simulator - Development tool for filling a local API with data

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Register users and have each of them write posts
  watch     Print post feed events as they arrive
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Three users with five posts each
  simulator populate

  # Enough posts to page through the listing
  simulator populate --users=2 --posts=12

  # Follow the feed while another terminal populates
  simulator watch`)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	users := fs.Int("users", 3, "Number of users to register")
	posts := fs.Int("posts", 5, "Number of posts per user")
	fs.Parse(args)

	if *users < 1 || *posts < 0 {
		fmt.Println("Error: --users must be at least 1 and --posts cannot be negative")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Blog Simulator: Populate ===")
	fmt.Println()

	for i := 1; i <= *users; i++ {
		email, token, err := client.RegisterUser(fmt.Sprintf("Writer%d", i))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to create user: %v\n", i, *users, err)
			os.Exit(1)
		}
		fmt.Printf("  [%d/%d] %s registered\n", i, *users, email)

		for j := 1; j <= *posts; j++ {
			title := fmt.Sprintf("Post %d by writer %d", j, i)
			if _, err := client.CreatePost(token, title, "Generated by the blog simulator."); err != nil {
				fmt.Printf("        FAILED to create post: %v\n", err)
				os.Exit(1)
			}
		}
		fmt.Printf("        %d post(s) created\n", *posts)

		if err := client.Logout(token); err != nil {
			fmt.Printf("Warning: Failed to log out %s: %v\n", email, err)
		}
	}

	page, err := client.ListPosts(1)
	if err != nil {
		fmt.Printf("Failed to list posts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Printf("  %d POST(S) ACROSS %d PAGE(S)\n", page.Total, page.LastPage)
	fmt.Println("=========================================")
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	conn, _, err := websocket.DefaultDialer.Dial(client.FeedURL(), nil)
	if err != nil {
		fmt.Printf("Failed to connect to feed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", client.FeedURL())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	for {
		var event struct {
			Type    string `json:"type"`
			Payload Post   `json:"payload"`
		}
		if err := conn.ReadJSON(&event); err != nil {
			fmt.Println("Feed closed")
			return
		}
		fmt.Printf("%-13s %s %q\n", event.Type, event.Payload.ID, event.Payload.Title)
	}
}
