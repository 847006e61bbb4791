package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/test_websocket.go <message> [user_id]")
		fmt.Println("Example: go run scripts/test_websocket.go \"tell me a joke\" alice")
		os.Exit(1)
	}

	message := os.Args[1]

	host := os.Getenv("CHATGATE_HOST")
	if host == "" {
		host = "localhost:8000"
	}

	u := url.URL{
		Scheme: "ws",
		Host:   host,
		Path:   "/api/chat/ws",
	}
	if len(os.Args) > 2 {
		q := u.Query()
		q.Set("user_id", os.Args[2])
		u.RawQuery = q.Encode()
	}

	fmt.Printf("Connecting to %s\n", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer c.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})

	// print the reply as it arrives
	go func() {
		defer close(done)
		for {
			var msg Message
			if err := c.ReadJSON(&msg); err != nil {
				log.Println("read:", err)
				return
			}

			switch msg.Type {
			case "chunk":
				fmt.Print(msg.Content)
			case "done":
				fmt.Println()
				return
			case "error":
				fmt.Printf("\nerror: %s\n", strings.TrimSpace(msg.Error+" "+msg.Message))
				return
			case "server_shutdown":
				fmt.Printf("\nserver shutting down: %s\n", msg.Message)
				return
			default:
				raw, _ := json.Marshal(msg)
				fmt.Printf("\nunexpected: %s\n", raw)
			}
		}
	}()

	if err := c.WriteJSON(Message{Type: "chat", Message: message}); err != nil {
		log.Println("write:", err)
		return
	}

	select {
	case <-done:
	case <-interrupt:
		fmt.Println("\nInterrupt received, closing connection...")
	}

	err = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		log.Println("write close:", err)
		return
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}
