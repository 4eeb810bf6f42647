package notifyservice

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hikarune/postfeed/internal/common"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize bounds the per-client outbound queue; clients that
	// cannot keep up are disconnected.
	sendBufferSize = 16
)

type NotifyService struct {
	mb       common.MessageConsumer
	hub      *hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewNotifyService(mb common.MessageConsumer, logger *slog.Logger) *NotifyService {
	ctx, cancel := context.WithCancel(context.Background())

	s := &NotifyService{
		mb:     mb,
		hub:    newHub(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}

	go s.hub.run(ctx)

	return s
}

func (s *NotifyService) Close() {
	s.cancel()
}
