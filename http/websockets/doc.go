/*
Package websockets streams pubsub payloads to gofiber websocket clients.

A Viewer owns one upgraded connection: it negotiates gzip from the upgrade
query, tags the connection with an id for logging, and pumps []byte
payloads from a subscription channel until either side is done. Handlers
only wire the subscription:

	h.fiber.Get("/ws", websocket.New(func(c *websocket.Conn) {
		viewer := websockets.NewViewer(c)
		frames := h.pubsub.Sub(topic)
		viewer.Stream(frames)
		h.pubsub.Unsub(frames, topic)
	}))
*/
package websockets
