package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rybkr/pygit/internal/gitcore"
)

// Server serves the live working-tree/status feed for a single local
// repository. Unlike the teacher's multi-tenant
// visualizer, it never clones or tracks remote repositories: a Server is
// always bound to the repository it was constructed against.
type Server struct {
	addr        string
	webFS       fs.FS
	rateLimiter *rateLimiter
	httpServer  *http.Server
	logger      *slog.Logger

	localSession *RepoSession
	cacheSize    int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer constructs a Server bound to repo, ready to be started.
func NewServer(repo *gitcore.Repository, addr string, webFS fs.FS) *Server {
	return NewLocalServer(repo, addr, webFS)
}

// NewLocalServer constructs a Server serving a single repository.
func NewLocalServer(repo *gitcore.Repository, addr string, webFS fs.FS) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	rl := newRateLimiter(100, 200, time.Second)

	cacheSize := readCacheSize()

	s := &Server{
		addr:        addr,
		webFS:       webFS,
		rateLimiter: rl,
		logger:      slog.Default(),
		cacheSize:   cacheSize,
		ctx:         ctx,
		cancel:      cancel,
	}

	s.localSession = NewRepoSession(SessionConfig{
		ID:          "local",
		InitialRepo: repo,
		ReloadFn: func() (*gitcore.Repository, error) {
			return gitcore.NewRepository(repo.GitDir())
		},
		CacheSize: cacheSize,
		Logger:    s.logger,
	})

	return s
}

// readCacheSize reads the cache size from the PYGIT_CACHE_SIZE env var.
func readCacheSize() int {
	cacheSize := defaultCacheSize
	if raw := os.Getenv("PYGIT_CACHE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cacheSize = n
		}
	}
	return cacheSize
}

// getOrCreateSession returns the server's single local session.
func (s *Server) getOrCreateSession(_ string) (*RepoSession, error) {
	return s.localSession, nil
}

// Start begins serving and blocks until the server exits or encounters a fatal error.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(s.webFS)))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/config", s.handleConfig)

	const apiWriteDeadline = 30 * time.Second

	ls := s.localSession
	ls.Start()

	mux.HandleFunc("/api/repository", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleRepository))))
	mux.HandleFunc("/api/tree/blame/", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleTreeBlame))))
	mux.HandleFunc("/api/tree/", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleTree))))
	mux.HandleFunc("/api/blob/", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleBlob))))
	mux.HandleFunc("/api/commit/diff/", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleCommitDiff))))
	mux.HandleFunc("/api/working-tree/diff", writeDeadline(apiWriteDeadline, s.rateLimiter.middleware(withLocalSession(ls, s.handleWorkingTreeDiff))))
	mux.HandleFunc("/api/ws", withLocalSession(ls, s.handleWebSocket))

	handler := requestLogger(s.logger, mux)

	// WriteTimeout must remain 0 because WebSocket connections are long-lived.
	// Non-WebSocket handlers enforce per-response write deadlines via the
	// writeDeadline middleware applied at the route level.
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.startWatcher(); err != nil {
			s.logger.Error("watcher error", "err", err)
		}
	}()

	s.logger.Info("pygit watch server starting", "addr", "http://"+s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server and its session.
func (s *Server) Shutdown() {
	start := time.Now()
	s.logger.Info("Server shutting down")

	if s.httpServer != nil {
		s.logger.Info("Stopping HTTP listener")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
		}
		s.logger.Info("HTTP listener stopped", "elapsed", time.Since(start).Round(time.Millisecond))
	}

	s.logger.Info("Canceling server context")
	s.cancel()
	s.rateLimiter.Close()

	s.logger.Info("Waiting for watcher goroutines to exit")
	s.wg.Wait()
	s.logger.Info("Watcher goroutines stopped")

	if s.localSession != nil {
		s.localSession.Close()
	}

	s.logger.Info("Server shutdown complete", "elapsed", time.Since(start).Round(time.Millisecond))
}
