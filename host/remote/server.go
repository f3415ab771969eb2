// Package remote serves the websocket a browser renderer connects to.
//
// The renderer is a thin page inside the track frame: it executes the element
// operations it receives and reports element events, window messages and
// entry point calls back. Server implements host.Document and bridge.Sender on
// top of that connection.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/mo"
	"github.com/sourcegraph/conc"
	"github.com/truveris/track/bridge"
	"github.com/truveris/track/host"
	"github.com/truveris/track/log"
)

var (
	// ErrNotConnected is returned when no renderer is connected.
	ErrNotConnected = errors.New("renderer not connected")

	// ErrBackpressure is returned when the renderer does not keep up with outbound operations.
	ErrBackpressure = errors.New("renderer send buffer full")
)

const (
	sendBuffer = 256
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Engine is what inbound frames are delivered to.
type Engine interface {
	HandleEvent(ev host.Event) error
	Receive(origin string, data []byte) error
	SetVolume(level mo.Option[float64]) error
	SetTrackVolume(level float64) error
	Skip() error
	Shutup() error
}

// Options configures a Server.
type Options struct {
	// Path is where the websocket is served.
	Path string
	// AllowOrigin decides which pages may connect as the renderer.
	AllowOrigin func(origin string) bool
}

type client struct {
	id   string
	conn *websocket.Conn
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Server holds at most one renderer connection. A new connection replaces the old one.
type Server struct {
	path     string
	upgrader websocket.Upgrader
	seq      atomic.Uint64

	mu     sync.Mutex
	engine Engine
	client *client
}

func New(opts Options) *Server {
	s := &Server{path: opts.Path}
	if s.path == "" {
		s.path = "/ws"
	}

	allow := opts.AllowOrigin
	if allow == nil {
		allow = func(string) bool { return false }
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if allow(origin) {
				return true
			}
			log.Warnf("remote: refusing renderer from origin %q", origin)
			return false
		},
	}
	return s
}

// Attach sets the engine inbound frames are delivered to.
func (s *Server) Attach(engine Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
}

// Connected reports whether a renderer is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Handler returns the HTTP handler serving the websocket.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveWS)
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infof("remote: listening on %s%s", addr, s.path)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.disconnect()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("remote: upgrade: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	previous := s.client
	s.client = c
	s.mu.Unlock()

	if previous != nil {
		log.Infof("remote: renderer %s replaced by %s", previous.id, c.id)
		previous.close()
	}
	log.Infof("remote: renderer %s connected from %s", c.id, r.RemoteAddr)

	var wg conc.WaitGroup
	wg.Go(func() { s.readPump(c) })
	wg.Go(func() { s.writePump(c) })
	wg.Wait()

	s.mu.Lock()
	if s.client == c {
		s.client = nil
	}
	s.mu.Unlock()
	log.Infof("remote: renderer %s disconnected", c.id)
}

func (s *Server) disconnect() {
	s.mu.Lock()
	c := s.client
	s.client = nil
	s.mu.Unlock()

	if c != nil {
		c.close()
	}
}

func (s *Server) readPump(c *client) {
	defer c.close()

	c.conn.SetReadLimit(1 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("remote: read from %s: %v", c.id, err)
			}
			return
		}

		if err := s.deliver(in); err != nil {
			log.Warnf("remote: %s frame from %s: %v", in.Kind, c.id, err)
		}
	}
}

func (s *Server) deliver(in Inbound) error {
	s.mu.Lock()
	engine := s.engine
	s.mu.Unlock()

	if engine == nil {
		return errors.New("no engine attached")
	}

	switch in.Kind {
	case KindEvent:
		if in.Event == nil {
			return errors.New("event frame without event")
		}
		return engine.HandleEvent(*in.Event)
	case KindMessage:
		return engine.Receive(in.Origin, in.Data)
	case KindCall:
		return call(engine, in.Name, in.Value)
	default:
		return fmt.Errorf("unknown frame kind %q", in.Kind)
	}
}

func call(engine Engine, name string, value json.RawMessage) error {
	switch name {
	case "setVolume":
		level, err := bridge.ParseLevel(value)
		if err != nil {
			return err
		}
		return engine.SetVolume(level)
	case "setTrackVolume":
		level, err := bridge.ParseLevel(value)
		if err != nil {
			return err
		}
		v, ok := level.Get()
		if !ok {
			return errors.New("setTrackVolume: missing value")
		}
		return engine.SetTrackVolume(v)
	case "skip":
		return engine.Skip()
	case "shutup":
		return engine.Shutup()
	default:
		return fmt.Errorf("unknown call %q", name)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case data := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warnf("remote: write to %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send queues an operation for the renderer without blocking.
func (s *Server) send(op Outbound) error {
	op.Seq = s.seq.Add(1)
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("encode %s: %w", op.Op, err)
	}

	s.mu.Lock()
	c := s.client
	s.mu.Unlock()

	if c == nil {
		return ErrNotConnected
	}

	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	select {
	case c.out <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

// Create implements host.Document.
func (s *Server) Create(spec host.Spec) (host.Element, error) {
	if err := s.send(Outbound{Op: OpCreate, Target: spec.ID, Spec: &spec}); err != nil {
		return nil, err
	}
	return &element{server: s, id: spec.ID}, nil
}

// PostMessage implements host.Document.
func (s *Server) PostMessage(target string, message []byte, targetOrigin string) error {
	return s.send(Outbound{Op: OpPost, Target: target, Message: message, TargetOrigin: targetOrigin})
}

// Send implements bridge.Sender by asking the renderer to post the notification to the parent.
func (s *Server) Send(n bridge.Notification) error {
	return s.send(Outbound{Op: OpNotify, Notification: &n})
}
