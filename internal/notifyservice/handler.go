package notifyservice

import (
	"log/slog"
	"net/http"

	"github.com/hikarune/postfeed/internal/common"
)

// Run consumes post lifecycle events from the broker and forwards them to
// every connected websocket client. The event body is relayed as-is; the
// publisher already shaped it as {"action": ..., "post": ...}.
func (s *NotifyService) Run() {
	msgs, err := s.mb.Consume(common.PostCreatedKey, common.PostExchange, common.PostEventQueue)
	if err != nil {
		s.logger.Error("could not consume post events", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				s.hub.broadcast <- msg.Body
				msg.Ack(false)
			case <-s.ctx.Done():
				s.logger.Info("stopping post event consumer")
				return
			}
		}
	}()
}

// ServeWS upgrades the connection and subscribes it to the event stream.
func (s *NotifyService) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, sendBufferSize)}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}
