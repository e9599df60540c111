package natives

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"ember/internal/value"
	"ember/internal/vm"
)

type wsRegistry struct {
	mu   sync.Mutex
	next int
	open map[int]*websocket.Conn
}

var sockets = &wsRegistry{open: map[int]*websocket.Conn{}}

func (r *wsRegistry) add(c *websocket.Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.open[r.next] = c
	return r.next
}

func (r *wsRegistry) get(id int) (*websocket.Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.open[id]
	return c, ok
}

func (r *wsRegistry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
}

func registerWebSocket(v *vm.VM) {
	heap := v.Heap()

	v.DefineNative("ws_connect", func(args []value.Value) (value.Value, error) {
		url, err := argString(args, 0, "ws_connect")
		if err != nil {
			return value.Nil(), err
		}
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			return value.Nil(), fmt.Errorf("ws_connect: %w", err)
		}
		return value.Number(float64(sockets.add(conn))), nil
	})

	v.DefineNative("ws_send", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "ws_send")
		if err != nil {
			return value.Nil(), err
		}
		msg, err := argString(args, 1, "ws_send")
		if err != nil {
			return value.Nil(), err
		}
		conn, ok := sockets.get(int(id))
		if !ok {
			return value.Nil(), fmt.Errorf("ws_send: no open socket %d", int(id))
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return value.Nil(), fmt.Errorf("ws_send: %w", err)
		}
		return value.Nil(), nil
	})

	v.DefineNative("ws_recv", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "ws_recv")
		if err != nil {
			return value.Nil(), err
		}
		conn, ok := sockets.get(int(id))
		if !ok {
			return value.Nil(), fmt.Errorf("ws_recv: no open socket %d", int(id))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return value.Nil(), fmt.Errorf("ws_recv: %w", err)
		}
		return value.NewString(heap, string(msg)), nil
	})

	v.DefineNative("ws_close", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "ws_close")
		if err != nil {
			return value.Nil(), err
		}
		conn, ok := sockets.get(int(id))
		if !ok {
			return value.Nil(), nil
		}
		conn.Close()
		sockets.remove(int(id))
		return value.Nil(), nil
	})
}
