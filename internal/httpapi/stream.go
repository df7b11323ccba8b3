package httpapi

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"

	"shoptrack/internal/tracking"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type streamSignal struct {
	Type string `json:"type"`
}

// StreamTracking pushes the tracking view over a websocket for the
// lifetime of the connection. The connection is the view: connect starts
// the scheduler, disconnect stops it and releases the timer. The client
// forwards its lifecycle signals as {"type":"focus"} and
// {"type":"reconnect"} messages.
func (h *Handler) StreamTracking(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("order_id")
	email := r.URL.Query().Get("email")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	resolver := newResolver(h.svc, CustomerIDFrom(r.Context()))
	resolver.SetParams(orderID, email)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Only the scheduler goroutine writes to the connection.
	sched := tracking.NewScheduler(h.cfg.TrackingInterval(), resolver.HasOrderID, func(ctx context.Context) {
		vm := tracking.Compose(resolver.Resolve(ctx))
		if err := conn.WriteJSON(trackingResponse{ViewModel: vm, PollSeconds: h.cfg.Polling.TrackingSeconds}); err != nil {
			cancel()
		}
	})
	sched.Start(ctx)
	defer sched.Stop()

	for {
		var sig streamSignal
		if err := conn.ReadJSON(&sig); err != nil {
			return
		}
		switch sig.Type {
		case "focus":
			sched.Focus()
		case "reconnect":
			sched.Reconnect()
		}
	}
}
