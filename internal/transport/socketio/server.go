// Package socketio provides the Socket.io server for client communication.
package socketio

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/edumarques81/practice-timer-backend/internal/domain/playback"
	"github.com/edumarques81/practice-timer-backend/internal/domain/theme"
)

// Options configures the optional collaborators of a Server.
type Options struct {
	// Indicator is attached to the server so class changes reach clients.
	Indicator *ClassIndicator
	// SystemPreference receives systemColorScheme reports. Nil ignores them.
	SystemPreference *ClientPreference
	// MaxExternalClients caps non-loopback clients; 0 disables the cap.
	MaxExternalClients int
	// AllowedOrigin is the CORS origin for the handshake. Empty allows any.
	AllowedOrigin string
}

// Server handles Socket.io connections and events.
type Server struct {
	io        *socket.Server
	theme     *theme.Controller
	tracker   *playback.Tracker
	indicator *ClassIndicator
	system    *ClientPreference
	limiter   *ClientLimiter

	mu          sync.RWMutex
	clients     map[string]*socket.Socket
	unsubscribe []func()
}

// NewServer creates a new Socket.io server and starts broadcasting store changes.
func NewServer(ctrl *theme.Controller, tracker *playback.Tracker, opts Options) (*Server, error) {
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	sopts := socket.DefaultServerOptions()
	sopts.SetPingTimeout(20 * time.Second)
	sopts.SetPingInterval(25 * time.Second)
	sopts.SetCors(&types.Cors{
		Origin:      origin,
		Credentials: true,
	})

	s := &Server{
		io:        socket.NewServer(nil, sopts),
		theme:     ctrl,
		tracker:   tracker,
		indicator: opts.Indicator,
		system:    opts.SystemPreference,
		limiter:   NewClientLimiter(opts.MaxExternalClients),
		clients:   make(map[string]*socket.Socket),
	}

	if s.indicator != nil {
		s.indicator.attach(s.broadcast)
	}

	s.setupHandlers()

	s.unsubscribe = append(s.unsubscribe,
		ctrl.Subscribe(func(dark bool) {
			s.broadcast("pushTheme", theme.StateJSON(dark))
		}),
		tracker.Subscribe(func(c playback.Current) {
			s.broadcast("pushPlaying", c.ToJSON())
		}),
	)

	return s, nil
}

// setupHandlers registers all Socket.io event handlers.
func (s *Server) setupHandlers() {
	s.io.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		clientID := string(client.Id())
		addr := client.Handshake().Address

		log.Info().Str("id", clientID).Str("addr", addr).Msg("Client connected")

		s.mu.Lock()
		s.clients[clientID] = client
		s.mu.Unlock()

		if evictedID := s.limiter.Admit(clientID, addr); evictedID != "" {
			s.evict(evictedID)
		}

		// Send initial state after small delay
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.pushTheme(client)
			s.pushPlaying(client)
			if s.indicator != nil {
				s.indicator.replay(func(ev string, args ...any) { client.Emit(ev, args...) })
			}
		}()

		client.On("disconnect", func(args ...any) {
			reason := ""
			if len(args) > 0 {
				if r, ok := args[0].(string); ok {
					reason = r
				}
			}
			log.Info().Str("id", clientID).Str("reason", reason).Msg("Client disconnected")

			s.limiter.Release(clientID)
			s.mu.Lock()
			delete(s.clients, clientID)
			s.mu.Unlock()
		})

		// Theme events
		client.On("getTheme", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getTheme")
			s.pushTheme(client)
		})

		client.On("toggleTheme", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("toggleTheme")
			s.theme.Toggle()
		})

		client.On("setTheme", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("setTheme")
			if v, ok := boolArg(args, "value"); ok {
				s.theme.SetTheme(v)
			}
		})

		client.On("resetTheme", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("resetTheme")
			s.theme.Reset()
		})

		client.On("systemColorScheme", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("systemColorScheme")
			if s.system == nil {
				return
			}
			if v, ok := boolArg(args, "dark"); ok {
				s.system.Report(v)
			}
		})

		// Playback events
		client.On("getPlaying", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("getPlaying")
			s.pushPlaying(client)
		})

		client.On("setPlaying", func(args ...any) {
			log.Debug().Str("id", clientID).Interface("data", args).Msg("setPlaying")
			if id, ok := stringArg(args, "id"); ok {
				s.tracker.SetPlaying(id)
			}
		})

		client.On("stopAllAudio", func(args ...any) {
			log.Debug().Str("id", clientID).Msg("stopAllAudio")
			s.tracker.StopAll()
		})
	})
}

// evict disconnects a client displaced by the connection limit.
func (s *Server) evict(clientID string) {
	s.mu.Lock()
	client, ok := s.clients[clientID]
	delete(s.clients, clientID)
	s.mu.Unlock()

	if !ok {
		return
	}
	log.Info().Str("id", clientID).Msg("Evicting client, external connection limit reached")
	client.Disconnect(true)
}

// pushTheme sends the current theme to a client.
func (s *Server) pushTheme(client *socket.Socket) {
	client.Emit("pushTheme", s.theme.ToJSON())
}

// pushPlaying sends the currently playing item to a client.
func (s *Server) pushPlaying(client *socket.Socket) {
	client.Emit("pushPlaying", s.tracker.Current().ToJSON())
}

// broadcast sends an event to all connected clients.
func (s *Server) broadcast(ev string, args ...any) {
	s.io.Emit(ev, args...)

	if log.Debug().Enabled() {
		log.Debug().Str("event", ev).Int("clients", s.ClientCount()).Msg("Broadcast")
	}
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// ServeHTTP implements http.Handler for the Socket.io server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.io.ServeHandler(nil).ServeHTTP(w, r)
}

// Close stops broadcasting and closes the Socket.io server.
func (s *Server) Close() error {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	for _, fn := range unsubscribe {
		fn()
	}
	if s.indicator != nil {
		s.indicator.attach(nil)
	}

	s.io.Close(nil)
	return nil
}

// boolArg reads key from a {key: bool} payload, or accepts a bare bool.
func boolArg(args []any, key string) (bool, bool) {
	if len(args) == 0 {
		return false, false
	}
	switch v := args[0].(type) {
	case bool:
		return v, true
	case map[string]interface{}:
		b, ok := v[key].(bool)
		return b, ok
	}
	return false, false
}

// stringArg reads key from a {key: string} payload, or accepts a bare string.
func stringArg(args []any, key string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	switch v := args[0].(type) {
	case string:
		return v, true
	case map[string]interface{}:
		str, ok := v[key].(string)
		return str, ok
	}
	return "", false
}
