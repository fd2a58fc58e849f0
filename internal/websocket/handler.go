package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches a websocket connection to the hub under a processId.
func ServeWs(hub *Hub, c *websocket.Conn, processID string) {
	client := &Client{Hub: hub, Conn: c, ProcessID: processID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // run readPump in the handler goroutine
}
