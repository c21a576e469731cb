package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ChristianIvicevic/sorcery/internal/archive"
	"github.com/ChristianIvicevic/sorcery/internal/config"
	"github.com/ChristianIvicevic/sorcery/internal/game"
	"github.com/ChristianIvicevic/sorcery/internal/game/gameerr"
)

// Server hosts games over HTTP and websockets. Games are created with POST
// /games; players then connect to /games/{id}/ws and authenticate with the
// join secret issued at creation.
type Server struct {
	cfg     config.ServerConfig
	logger  *zap.Logger
	engine  *game.Engine
	archive *archive.Archive // nil when the archive is disabled

	mu       sync.Mutex
	sessions map[string]*gameSession

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// gameSession tracks the live connections and join secrets of one game.
type gameSession struct {
	gameID string
	// secretHashes maps player ID to the bcrypt hash of their join secret.
	secretHashes map[string][]byte

	mu       sync.Mutex
	conns    map[string]*playerConn // player ID to connection
	archived bool
}

// playerConn serializes writes to one websocket connection. The broadcast
// path and the read loop's rejections both write, and gorilla/websocket
// supports at most one concurrent writer per connection.
type playerConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (pc *playerConn) write(msg *serverMessage) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	_ = pc.conn.WriteJSON(msg)
}

func (pc *playerConn) close() {
	_ = pc.conn.Close()
}

// New creates the server. The archive may be nil.
func New(cfg config.ServerConfig, engine *game.Engine, arch *archive.Archive, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		archive:  arch,
		sessions: make(map[string]*gameSession),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreateGame)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	mux.HandleFunc("GET /games/{id}/ws", s.handleWebsocket)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("address", s.cfg.Address))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxGames {
		s.mu.Unlock()
		httpError(w, http.StatusTooManyRequests, "too_many_games", "game limit reached")
		return
	}
	s.mu.Unlock()

	pending, err := s.engine.CreateGame(game.GameConfig{
		GameID:  req.GameID,
		Seed:    req.Seed,
		Players: req.Players,
	})
	if err != nil {
		httpRejection(w, err)
		return
	}
	gameID := pending.GameID

	session := &gameSession{
		gameID:       gameID,
		secretHashes: make(map[string][]byte),
		conns:        make(map[string]*playerConn),
	}
	secrets := make(map[string]string, len(req.Players))
	for _, player := range req.Players {
		secret := newJoinSecret()
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "secret_generation", err.Error())
			return
		}
		session.secretHashes[player.PlayerID] = hash
		secrets[player.PlayerID] = secret
	}

	s.mu.Lock()
	s.sessions[gameID] = session
	s.mu.Unlock()

	s.logger.Info("game hosted",
		zap.String("game_id", gameID),
		zap.Int("players", len(req.Players)))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateGameResponse{GameID: gameID, Secrets: secrets})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	snap, err := s.engine.Snapshot(gameID)
	if err != nil {
		httpRejection(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	s.mu.Lock()
	session, ok := s.sessions[gameID]
	s.mu.Unlock()
	if !ok {
		httpError(w, http.StatusNotFound, "unknown_game", "no such game")
		return
	}

	raw, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	pc := &playerConn{conn: raw}

	playerID, err := s.authenticate(raw, session)
	if err != nil {
		pc.write(&serverMessage{Type: "error", Code: "auth_failed", Error: err.Error()})
		pc.close()
		return
	}

	session.mu.Lock()
	if old, exists := session.conns[playerID]; exists {
		old.close()
	}
	session.conns[playerID] = pc
	session.mu.Unlock()

	pc.write(&serverMessage{Type: "joined"})
	s.pushState(session, playerID)
	s.readLoop(session, playerID, pc)
}

// authenticate reads the join message and checks the secret against the
// stored hash.
func (s *Server) authenticate(conn *websocket.Conn, session *gameSession) (string, error) {
	var msg clientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", err
	}
	if msg.Type != "join" {
		return "", errors.New("first message must be a join")
	}
	hash, ok := session.secretHashes[msg.PlayerID]
	if !ok {
		return "", errors.New("unknown player")
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(msg.Secret)); err != nil {
		return "", errors.New("bad join secret")
	}
	return msg.PlayerID, nil
}

// readLoop processes a player's messages until they disconnect.
func (s *Server) readLoop(session *gameSession, playerID string, pc *playerConn) {
	defer func() {
		session.mu.Lock()
		if session.conns[playerID] == pc {
			delete(session.conns, playerID)
		}
		session.mu.Unlock()
		pc.close()
	}()

	for {
		s.setReadDeadline(session, playerID, pc)
		var msg clientMessage
		if err := pc.conn.ReadJSON(&msg); err != nil {
			s.logger.Debug("websocket closed",
				zap.String("game_id", session.gameID),
				zap.String("player_id", playerID),
				zap.Error(err))
			return
		}

		switch msg.Type {
		case "decision":
			if msg.Decision == nil {
				pc.write(&serverMessage{Type: "error", Code: "empty_decision", Error: "decision message without a decision"})
				continue
			}
			msg.Decision.PlayerID = playerID
			_, err := s.engine.SubmitDecision(session.gameID, msg.Decision)
			if err != nil {
				writeRejection(pc, err)
				if gameerr.IsFatal(err) {
					return
				}
				continue
			}
			s.broadcast(session)
		case "concede":
			if _, err := s.engine.Concede(session.gameID, playerID); err != nil {
				writeRejection(pc, err)
				continue
			}
			s.broadcast(session)
		default:
			pc.write(&serverMessage{Type: "error", Code: "unknown_message", Error: "unknown message type"})
		}
	}
}

// setReadDeadline arms the decision timeout when the pending decision belongs
// to this player, and disarms it otherwise. A player who sits on their own
// decision past the timeout is disconnected.
func (s *Server) setReadDeadline(session *gameSession, playerID string, pc *playerConn) {
	if s.cfg.DecisionTimeout <= 0 {
		return
	}
	pending, err := s.engine.PendingDecision(session.gameID)
	if err == nil && pending != nil && pending.PlayerID == playerID {
		_ = pc.conn.SetReadDeadline(time.Now().Add(s.cfg.DecisionTimeout))
		return
	}
	_ = pc.conn.SetReadDeadline(time.Time{})
}

// broadcast pushes the new state to every connected player and archives the
// game once it finishes.
func (s *Server) broadcast(session *gameSession) {
	session.mu.Lock()
	players := make([]string, 0, len(session.conns))
	for playerID := range session.conns {
		players = append(players, playerID)
	}
	session.mu.Unlock()

	for _, playerID := range players {
		s.pushState(session, playerID)
	}
	s.maybeArchive(session)
}

// pushState sends the snapshot to one player, attaching the pending decision
// when it is theirs.
func (s *Server) pushState(session *gameSession, playerID string) {
	session.mu.Lock()
	pc, ok := session.conns[playerID]
	session.mu.Unlock()
	if !ok {
		return
	}

	snap, err := s.engine.Snapshot(session.gameID)
	if err != nil {
		writeRejection(pc, err)
		return
	}

	msg := &serverMessage{Type: "state", State: snap}
	if snap.Pending != nil && snap.Pending.PlayerID == playerID {
		msg.Type = "decision"
		msg.Decision = snap.Pending
	}
	if winnerID, finished, err := s.engine.Winner(session.gameID); err == nil && finished {
		msg.Type = "game_over"
		msg.Winner = winnerID
	}
	pc.write(msg)
}

// maybeArchive persists the game the first time it is seen finished.
func (s *Server) maybeArchive(session *gameSession) {
	winnerID, finished, err := s.engine.Winner(session.gameID)
	if err != nil || !finished {
		return
	}

	session.mu.Lock()
	already := session.archived
	session.archived = true
	session.mu.Unlock()
	if already || s.archive == nil {
		return
	}

	snap, err := s.engine.Snapshot(session.gameID)
	if err != nil {
		s.logger.Error("archive snapshot failed", zap.Error(err))
		return
	}
	decisions, err := s.engine.DecisionLog(session.gameID)
	if err != nil {
		s.logger.Error("archive decision log failed", zap.Error(err))
		return
	}
	actions, err := s.engine.ActionLog(session.gameID)
	if err != nil {
		s.logger.Error("archive action log failed", zap.Error(err))
		return
	}
	if err := s.archive.SaveGame(context.Background(), snap, winnerID, decisions, actions); err != nil {
		s.logger.Error("archiving game failed",
			zap.String("game_id", session.gameID),
			zap.Error(err))
	}
}

func writeRejection(pc *playerConn, err error) {
	var rejection *gameerr.Rejection
	if errors.As(err, &rejection) {
		pc.write(&serverMessage{Type: "error", Code: rejection.Code, Error: rejection.Detail})
		return
	}
	pc.write(&serverMessage{Type: "error", Code: "internal", Error: err.Error()})
}

func httpRejection(w http.ResponseWriter, err error) {
	var rejection *gameerr.Rejection
	if errors.As(err, &rejection) {
		status := http.StatusBadRequest
		if gameerr.IsFatal(err) {
			status = http.StatusInternalServerError
		}
		httpError(w, status, rejection.Code, rejection.Detail)
		return
	}
	httpError(w, http.StatusInternalServerError, "internal", err.Error())
}

func httpError(w http.ResponseWriter, status int, code, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"code": code, "error": detail})
}

func newJoinSecret() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failing means the host is unusable
	}
	return hex.EncodeToString(buf)
}
