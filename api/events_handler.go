package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/xraph/duostore/stream"
)

// eventTopics reads the repeated topic query parameter. The default is
// the firehose.
func eventTopics(r *http.Request) ([]string, error) {
	topics := r.URL.Query()["topic"]
	if len(topics) == 0 {
		return []string{stream.TopicFirehose}, nil
	}
	for _, topic := range topics {
		if err := stream.ValidateTopic(topic); err != nil {
			return nil, err
		}
	}
	return topics, nil
}

// events streams lifecycle events as server-sent events. The stream ends
// when the client goes away or the selector shuts down.
func (a *API) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	topics, err := eventTopics(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sub := a.broker.Subscribe(topics...)
	defer a.broker.RemoveSubscriber(sub.ID())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				a.logger.Warn("encode event", slog.String("error", err.Error()))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// eventsWS streams lifecycle events as JSON text frames over a WebSocket.
// Frames sent by the client are discarded. A normal close frame is sent
// when the selector shuts down.
func (a *API) eventsWS(w http.ResponseWriter, r *http.Request) {
	topics, err := eventTopics(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		a.logger.Warn("websocket upgrade", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := a.broker.Subscribe(topics...)
	defer a.broker.RemoveSubscriber(sub.ID())

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := wsutil.ReadClientData(conn); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case evt, ok := <-sub.C():
			if !ok {
				body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "shutdown")
				_ = ws.WriteFrame(conn, ws.NewCloseFrame(body))
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				a.logger.Warn("encode event", slog.String("error", err.Error()))
				continue
			}
			if err := wsutil.WriteServerText(conn, data); err != nil {
				return
			}
		}
	}
}
