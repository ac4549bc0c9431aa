package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// navigate is a client message on a movie socket. On the detail socket ID
// selects the movie to show; on the list socket any message reloads.
type navigate struct {
	ID int `json:"id"`
}

// socketError is sent when a client message cannot be honored.
type socketError struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func (h *handlers) popularSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return // Upgrade already replied
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := config.LoggerFromContext(ctx)

	list := viewstate.NewList(h.catalog, logger)
	defer list.Deactivate()

	requests := readRequests(ctx, cancel, conn, logger)
	stream := list.Activate(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-requests:
			if !ok {
				return
			}
			stream = list.Activate(ctx)
		case st, ok := <-stream:
			if !ok {
				stream = nil
				continue
			}
			if err := writeState(conn, st); err != nil {
				logger.Debug("socket write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

func (h *handlers) detailSocket(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	logger := config.LoggerFromContext(ctx)

	detail := viewstate.NewDetail(h.catalog, logger)
	defer detail.Deactivate()

	requests := readRequests(ctx, cancel, conn, logger)
	stream := detail.Activate(ctx, id)
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-requests:
			if !ok {
				return
			}
			if req.ID < 1 {
				var msg socketError
				msg.Error.Kind = "bad_request"
				msg.Error.Message = "id must be a positive integer"
				if err := writeState(conn, msg); err != nil {
					return
				}
				continue
			}
			stream = detail.Activate(ctx, req.ID)
		case st, ok := <-stream:
			if !ok {
				stream = nil
				continue
			}
			if err := writeState(conn, st); err != nil {
				logger.Debug("socket write failed", slog.String("error", err.Error()))
				return
			}
		}
	}
}

// readRequests pumps client messages until the connection fails, then cancels ctx.
func readRequests(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, logger *slog.Logger) <-chan navigate {
	out := make(chan navigate)
	go func() {
		defer close(out)
		defer cancel()
		for {
			var req navigate
			if err := conn.ReadJSON(&req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("socket read ended", slog.String("error", err.Error()))
				}
				return
			}
			select {
			case out <- req:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func writeState(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
