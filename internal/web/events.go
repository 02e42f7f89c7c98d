package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/store"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4 * 1024,
	CheckOrigin: sameOrigin,
}

// sameOrigin accepts requests without an Origin (CLI clients) and browser
// requests whose Origin host is exactly the request host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, strings.TrimSpace(r.Host))
}

type courseHub struct {
	mu   sync.Mutex
	subs map[chan model.ChangeEvent]struct{}
	last int64
}

func newCourseHub() *courseHub {
	return &courseHub{subs: map[chan model.ChangeEvent]struct{}{}}
}

func (h *courseHub) subscribe() (ch chan model.ChangeEvent, cancel func()) {
	ch = make(chan model.ChangeEvent, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *courseHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// observe records version v and broadcasts when it moved forward.
func (h *courseHub) observe(courseID string, v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if v <= h.last {
		return
	}
	h.last = v
	ev := model.ChangeEvent{Type: model.EventChanged, CourseID: courseID, Version: v}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; it will catch up on the next version.
		}
	}
}

// courseBroadcaster fans course changes out to websocket subscribers. Writes made
// through this server notify immediately; other writers are picked up by polling.
type courseBroadcaster struct {
	st       store.Store
	interval time.Duration
	log      *slog.Logger

	mu   sync.Mutex
	hubs map[string]*courseHub

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
}

func newCourseBroadcaster(st store.Store, interval time.Duration, log *slog.Logger) *courseBroadcaster {
	return &courseBroadcaster{
		st:       st,
		interval: interval,
		log:      log,
		hubs:     map[string]*courseHub{},
		stopCh:   make(chan struct{}),
	}
}

func (b *courseBroadcaster) Stop() {
	b.stopOnce.Do(func() { close(b.stopCh) })
}

func (b *courseBroadcaster) hubFor(courseID string) *courseHub {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := b.hubs[courseID]
	if h == nil {
		h = newCourseHub()
		b.hubs[courseID] = h
	}
	return h
}

func (b *courseBroadcaster) subscribe(courseID string, current int64) (chan model.ChangeEvent, func()) {
	b.startOnce.Do(func() { go b.pollLoop() })
	h := b.hubFor(courseID)
	h.mu.Lock()
	if current > h.last {
		h.last = current
	}
	h.mu.Unlock()
	return h.subscribe()
}

func (b *courseBroadcaster) notify(ctx context.Context, courseID string) {
	v, err := b.st.CourseVersion(ctx, courseID)
	if err != nil {
		b.log.Warn("change feed version read failed", slog.String("course_id", courseID), slog.Any("err", err))
		return
	}
	b.hubFor(courseID).observe(courseID, v)
}

func (b *courseBroadcaster) pollLoop() {
	t := time.NewTicker(b.interval)
	defer t.Stop()
	for {
		select {
		case <-b.stopCh:
			return
		case <-t.C:
		}
		b.mu.Lock()
		ids := make([]string, 0, len(b.hubs))
		for id, h := range b.hubs {
			if h.size() > 0 {
				ids = append(ids, id)
			}
		}
		b.mu.Unlock()
		for _, id := range ids {
			b.notify(context.Background(), id)
		}
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	courseID := strings.TrimSpace(r.PathValue("courseId"))
	v, err := s.store().CourseVersion(r.Context(), courseID)
	if err != nil {
		s.writeStoreErr(w, err)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, unsubscribe := s.bc.subscribe(courseID, v)
	defer unsubscribe()

	// Reader: only needed to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev model.ChangeEvent) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(ev)
	}
	if err := send(model.ChangeEvent{Type: model.EventSnapshot, CourseID: courseID, Version: v}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.bc.stopCh:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(wsWriteWait))
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := send(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
