// Package live streams world snapshots to websocket subscribers while
// stepping the solver at real-time pace (watch mode).
package live

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rice-Rocket/sokudo/internal/solver"
)

// StateMessage is the wire form of one world snapshot.
type StateMessage struct {
	Type      string            `json:"type"`
	Step      int               `json:"step"`
	Colliders []ColliderMessage `json:"colliders"`
}

// ColliderMessage is one collider pose on the wire. Rotate is x, y, z, w.
type ColliderMessage struct {
	ID        uint32     `json:"id"`
	Translate [3]float64 `json:"translate"`
	Rotate    [4]float64 `json:"rotate"`
	Scale     [3]float64 `json:"scale"`
}

// EncodeState converts a snapshot into its broadcast message.
func EncodeState(state solver.WorldState) ([]byte, error) {
	msg := StateMessage{Type: "state", Step: state.Step}
	for _, c := range state.Colliders {
		msg.Colliders = append(msg.Colliders, ColliderMessage{
			ID:        uint32(c.ID),
			Translate: [3]float64(c.Transform.Translate),
			Rotate:    [4]float64{c.Transform.Rotate.X(), c.Transform.Rotate.Y(), c.Transform.Rotate.Z(), c.Transform.Rotate.W},
			Scale:     [3]float64(c.Transform.Scale),
		})
	}
	return json.Marshal(msg)
}

// Server steps one world and fans its snapshots out to subscribers.
// One goroutine steps; the connection set is mutex-guarded; slow or dead
// connections are dropped on write error.
type Server struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	latest []byte
}

// Serve runs the watch server on addr. The world is stepped once per
// cfg.Dt until it completes its configured step count; the final state
// keeps being served to new subscribers afterwards. Serve blocks until the
// listener fails.
func Serve(addr string, world *solver.World, cfg solver.Config) error {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]bool),
	}

	if msg, err := EncodeState(world.State()); err == nil {
		s.latest = msg
	}

	go s.run(world, cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	fmt.Printf("Watching on ws://%s/ws\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("live: serve %s: %w", addr, err)
	}
	return nil
}

func (s *Server) run(world *solver.World, cfg solver.Config) {
	ticker := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer ticker.Stop()

	for range ticker.C {
		if world.CurrentStep >= world.Steps {
			return
		}
		if err := world.Step(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "live: %v\n", err)
			return
		}

		msg, err := EncodeState(world.State())
		if err != nil {
			fmt.Fprintf(os.Stderr, "live: encode state: %v\n", err)
			return
		}
		s.broadcast(msg)
	}
}

func (s *Server) broadcast(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = msg
	for conn := range s.conns {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(s.conns, conn)
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.conns[conn] = true
	// Late subscribers immediately receive the latest snapshot.
	if s.latest != nil {
		if err := conn.WriteMessage(websocket.TextMessage, s.latest); err != nil {
			conn.Close()
			delete(s.conns, conn)
			s.mu.Unlock()
			return
		}
	}
	s.mu.Unlock()

	// Drain the connection to notice closes.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.mu.Lock()
				conn.Close()
				delete(s.conns, conn)
				s.mu.Unlock()
				return
			}
		}
	}()
}
