package events_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/events"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*events.Hub, string, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := events.NewHub()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r)
	}))
	t.Cleanup(server.Close)

	return hub, "ws" + strings.TrimPrefix(server.URL, "http"), cancel
}

func TestHub(t *testing.T) {
	t.Run("it fans a published message out to every client", func(t *testing.T) {
		hub, url, cancel := startHub(t)
		defer cancel()

		conn1, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer conn1.Close()
		conn2, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer conn2.Close()

		// registration happens after the handshake; give it a beat
		time.Sleep(100 * time.Millisecond)
		hub.Publish([]byte(`{"species":"setosa"}`))

		for nth, conn := range []*websocket.Conn{conn1, conn2} {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, message, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("client %d: %+v", nth, err)
			}
			if string(message) != `{"species":"setosa"}` {
				t.Errorf("client %d received: %s", nth, message)
			}
		}
	})

	t.Run("it keeps order for a single client", func(t *testing.T) {
		hub, url, cancel := startHub(t)
		defer cancel()

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()

		time.Sleep(100 * time.Millisecond)
		hub.Publish([]byte("first"))
		hub.Publish([]byte("second"))

		for _, expected := range []string{"first", "second"} {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, message, err := conn.ReadMessage()
			if err != nil {
				t.Fatal(err)
			}
			if string(message) != expected {
				t.Errorf("(actual, expected) = (%s, %s)", message, expected)
			}
		}
	})

	t.Run("it hangs up clients when stopped", func(t *testing.T) {
		_, url, cancel := startHub(t)

		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatal(err)
		}
		defer conn.Close()

		time.Sleep(100 * time.Millisecond)
		cancel()

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, _, err := conn.ReadMessage(); err == nil {
			t.Error("connection is still alive after the hub stopped")
		}
	})
}
