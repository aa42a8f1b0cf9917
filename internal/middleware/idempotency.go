package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore remembers successful responses to keyed POST requests
// so a double-submitted post is created once and replayed afterwards.
type IdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	maxBody  int64
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	done      chan struct{} // closed when the first request finishes
	completed bool
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // how long a result is replayed (default 10m)
	Cleanup time.Duration // sweep interval (default 1m)
	MaxBody int64         // largest body fingerprinted (default 6MB)
}

// NewIdempotencyStore creates a store and starts its sweep goroutine
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Cleanup <= 0 {
		cfg.Cleanup = time.Minute
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = 6 << 20
	}

	s := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		maxBody:  cfg.MaxBody,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	go s.cleanupLoop(cfg.Cleanup)
	return s
}

// Stop ends the sweep goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if e.completed && e.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// fingerprint binds the client key to the caller and the exact request
func fingerprint(accountID, clientKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, part := range []string{accountID, clientKey, method, path} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter tees the response so it can be replayed
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, e *idempotencyEntry) {
	for k, v := range e.headers {
		if k == "Set-Cookie" {
			continue
		}
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(e.status)
	_, _ = w.Write(e.body)
}

// Idempotency honours an Idempotency-Key header on authenticated POST
// requests. Only 2xx responses are kept; a failed attempt may be retried
// with the same key.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientKey := r.Header.Get("Idempotency-Key")
			p, authenticated := GetPrincipal(r.Context())
			if r.Method != http.MethodPost || clientKey == "" || !authenticated {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, store.maxBody+1))
			if err != nil || int64(len(body)) > store.maxBody {
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := fingerprint(p.AccountID, clientKey, r.Method, r.URL.Path, body)

			for {
				store.mu.Lock()
				e, ok := store.entries[key]
				if !ok || (e.completed && e.expiresAt.Before(store.now())) {
					break // still holding the lock
				}
				store.mu.Unlock()

				if !e.completed {
					<-e.done
					continue
				}
				replay(w, e)
				return
			}

			e := &idempotencyEntry{done: make(chan struct{})}
			store.entries[key] = e
			store.mu.Unlock()

			cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(cw, r)

			store.mu.Lock()
			if cw.status >= 200 && cw.status < 300 {
				e.status = cw.status
				e.headers = cw.Header().Clone()
				e.body = cw.body.Bytes()
				e.expiresAt = store.now().Add(store.ttl)
				e.completed = true
			} else {
				delete(store.entries, key)
			}
			close(e.done)
			store.mu.Unlock()
		})
	}
}
