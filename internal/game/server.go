package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Dispatcher executes one decoded action for a session and produces the
// response frame. The actions package supplies the production dispatcher.
type Dispatcher func(*World, *Session, Request) Response

type serverOptions struct {
	auditPath          string
	checkpointInterval time.Duration
	campaignInterval   time.Duration
	disableSignals     bool
}

// ServerOption customises the behaviour of ListenAndServe.
type ServerOption func(*serverOptions)

// WithAuditPath overrides the default audit journal location.
func WithAuditPath(path string) ServerOption {
	return func(opts *serverOptions) {
		opts.auditPath = strings.TrimSpace(path)
	}
}

// WithCheckpointInterval overrides the configured checkpoint cadence.
func WithCheckpointInterval(interval time.Duration) ServerOption {
	return func(opts *serverOptions) {
		opts.checkpointInterval = interval
	}
}

// WithCampaignInterval overrides the configured victory evaluation cadence.
func WithCampaignInterval(interval time.Duration) ServerOption {
	return func(opts *serverOptions) {
		opts.campaignInterval = interval
	}
}

// WithoutSignalHandling disables the SIGINT/SIGTERM shutdown hook, used by
// tests that drive the listener directly.
func WithoutSignalHandling() ServerOption {
	return func(opts *serverOptions) {
		opts.disableSignals = true
	}
}

var (
	accountManagerFactory = NewAccountManager
	storeFactory          = NewStore
	worldFactory          = NewWorld
	netListenFunc         = net.Listen
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ListenAndServe starts the game server on the configured port. It blocks
// until the listener fails or a shutdown signal arrives; on shutdown it
// writes a final checkpoint before returning.
func ListenAndServe(cfg Config, accountsPath, savesPath, adminAccount string, dispatcher Dispatcher, opts ...ServerOption) error {
	if dispatcher == nil {
		return fmt.Errorf("dispatcher must not be nil")
	}
	options := serverOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	accounts, err := accountManagerFactory(accountsPath)
	if err != nil {
		return err
	}
	accounts.SetAdminAccount(adminAccount)
	log.WithField("accounts", len(accounts.AllAccounts())).Info("account database loaded")
	store, err := storeFactory(savesPath)
	if err != nil {
		return err
	}
	world, err := worldFactory(cfg, store, accounts)
	if err != nil {
		return err
	}
	world.SetScriptEngine(NewScriptEngine())

	auditPath := options.auditPath
	if auditPath == "" {
		auditPath = filepath.Join(savesPath, "audit.db")
	}
	audit, err := OpenAuditLog(auditPath)
	if err != nil {
		log.WithError(err).Warn("audit journal unavailable")
	} else {
		world.SetAuditLog(audit)
		defer audit.Close()
	}

	checkpointInterval := options.checkpointInterval
	if checkpointInterval <= 0 {
		checkpointInterval = time.Duration(cfg.CheckpointSeconds) * time.Second
	}
	campaignInterval := options.campaignInterval
	if campaignInterval <= 0 {
		campaignInterval = time.Duration(cfg.VictoryCheckMinutes) * time.Minute
	}

	stop := make(chan struct{})
	defer close(stop)
	go checkpointLoop(world, checkpointInterval, stop)
	go campaignLoop(world, campaignInterval, stop)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(rw, req, nil)
		if err != nil {
			log.WithError(err).Debug("websocket upgrade failed")
			return
		}
		go handleConn(conn, world, dispatcher)
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	ln, err := netListenFunc("tcp", addr)
	if err != nil {
		return err
	}
	log.WithField("addr", ln.Addr().String()).Info("server listening")

	httpServer := &http.Server{Handler: mux}
	if !options.disableSignals {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			log.WithField("signal", sig.String()).Info("shutting down")
			if err := world.Checkpoint(); err != nil {
				log.WithError(err).Error("final checkpoint failed")
			}
			ln.Close()
		}()
	}

	err = httpServer.Serve(ln)
	if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleConn runs one websocket connection from upgrade to disconnect.
func handleConn(conn *websocket.Conn, world *World, dispatcher Dispatcher) {
	cfg := world.Config()
	session := NewSession(uuid.NewString(), &cfg, time.Now())
	world.AttachSession(session)

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case frame := <-session.out:
				if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
					return
				}
			case <-quit:
				return
			}
		}
	}()

	defer func() {
		session.Disconnect()
		world.DetachSession(session)
		close(quit)
		<-done
		conn.Close()
	}()

	idle := time.Duration(cfg.IdleUnauthenticatedSeconds) * time.Second
	for {
		if session.State() == StateUnauthenticated && idle > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(idle))
		} else {
			_ = conn.SetReadDeadline(time.Time{})
		}
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithField("session", session.ID).WithError(err).Debug("read loop ended")
			}
			return
		}
		if !session.Allow() {
			sendResponse(session, Fail(reject(RejectInvalidRequest, "too many actions, slow down")))
			continue
		}
		resp := dispatcher(world, session, req)
		sendResponse(session, resp)
	}
}

func sendResponse(session *Session, resp Response) {
	frame, err := json.Marshal(resp)
	if err != nil {
		log.WithError(err).Error("encode response")
		return
	}
	session.Send(frame)
}

// checkpointLoop writes periodic snapshots, retrying with a capped backoff
// and escalating repeated failures to a mutation freeze until storage
// recovers.
func checkpointLoop(world *World, interval time.Duration, stop <-chan struct{}) {
	const (
		retryBackoffStart = time.Second
		retryBackoffMax   = 30 * time.Second
	)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		backoff := retryBackoffStart
		for {
			err := world.Checkpoint()
			if err == nil {
				world.RecordCheckpointSuccess()
				break
			}
			world.RecordCheckpointFailure()
			log.WithError(err).WithField("retry_in", backoff.String()).Error("checkpoint failed")
			select {
			case <-stop:
				return
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > retryBackoffMax {
				backoff = retryBackoffMax
			}
		}
	}
}

// campaignLoop drives the victory controller on its own schedule.
func campaignLoop(world *World, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := world.EvaluateCampaign(); err != nil {
				log.WithError(err).Error("campaign evaluation failed")
			}
		}
	}
}
