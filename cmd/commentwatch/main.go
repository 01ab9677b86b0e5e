// Command commentwatch tails the live comment stream of a post. With
// -clients > 1 it opens several quiet connections and reports how many
// events each received, which is handy for checking Redis fan-out.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"inkwell/internal/notifications"

	"github.com/gorilla/websocket"
)

type counters struct {
	connected atomic.Int64
	failed    atomic.Int64
	events    atomic.Int64
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	postID := flag.Uint("post", 0, "Post ID to watch")
	token := flag.String("token", "", "Optional bearer token")
	secure := flag.Bool("tls", false, "Use wss://")
	clients := flag.Int("clients", 1, "Number of concurrent connections")
	duration := flag.Duration("duration", 0, "Stop after this long (0 runs until interrupted)")
	flag.Parse()

	if *postID == 0 {
		log.Fatal("-post is required")
	}

	target := streamURL(*host, *postID, *token, *secure)
	log.Printf("watching %s with %d client(s)", target.Redacted(), *clients)

	stop := make(chan struct{})
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var c counters
	var wg sync.WaitGroup
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			watch(target.String(), id, *clients == 1, stop, &c)
		}(i)
	}

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}
	select {
	case <-timeout:
	case <-interrupt:
	}
	close(stop)
	wg.Wait()

	log.Printf("connected=%d failed=%d events=%d", c.connected.Load(), c.failed.Load(), c.events.Load())
}

func streamURL(host string, postID uint, token string, secure bool) *url.URL {
	u := &url.URL{Scheme: "ws", Host: host, Path: fmt.Sprintf("/api/ws/posts/%d/comments", postID)}
	if secure {
		u.Scheme = "wss"
	}
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	return u
}

func watch(target string, id int, verbose bool, stop <-chan struct{}, c *counters) {
	conn, resp, err := websocket.DefaultDialer.Dial(target, nil)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		c.failed.Add(1)
		log.Printf("client %d: dial failed: %v", id, err)
		return
	}
	defer func() { _ = conn.Close() }()
	c.connected.Add(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var ev notifications.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("client %d: read: %v", id, err)
				}
				return
			}
			c.events.Add(1)
			if verbose {
				printEvent(ev)
			}
		}
	}()

	select {
	case <-stop:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	case <-done:
	}
}

func printEvent(ev notifications.Event) {
	switch ev.Type {
	case notifications.EventCommentCreated:
		if cm := ev.Payload.Comment; cm != nil {
			kind := "comment"
			if cm.IsReply {
				kind = "reply"
			}
			log.Printf("+ %s #%d by %s: %s", kind, cm.ID, cm.AuthorName, cm.Content)
			return
		}
		log.Printf("+ comment #%d", ev.Payload.CommentID)
	case notifications.EventCommentDeleted:
		log.Printf("- comment #%d", ev.Payload.CommentID)
	default:
		log.Printf("? %s", ev.Type)
	}
}
