package transport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/access2chakri-ai/docushield-sub000/internal/core/domain"
)

type memoryStore struct {
	mu      sync.Mutex
	pair    domain.TokenPair
	profile *domain.UserProfile
}

func (s *memoryStore) SaveTokens(pair domain.TokenPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = pair
	return nil
}

func (s *memoryStore) AccessToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair.AccessToken, nil
}

func (s *memoryStore) RefreshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pair.RefreshToken, nil
}

func (s *memoryStore) SaveProfile(profile *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	return nil
}

func (s *memoryStore) Profile() (*domain.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile, nil
}

func (s *memoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = domain.TokenPair{}
	s.profile = nil
	return nil
}

// fakeSession stands in for the refresh manager. onEnsure typically
// rotates the store to a fresh token, mimicking a successful refresh.
type fakeSession struct {
	ensureErr   error
	onEnsure    func()
	ensureCalls int32
	clearCalls  int32
}

func (f *fakeSession) EnsureFresh(context.Context) error {
	atomic.AddInt32(&f.ensureCalls, 1)
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if f.onEnsure != nil {
		f.onEnsure()
	}
	return nil
}

func (f *fakeSession) Clear() error {
	atomic.AddInt32(&f.clearCalls, 1)
	return nil
}

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(ttl).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestExecutor(store *memoryStore, session *fakeSession) *Executor {
	return NewExecutor(store, session, testLogger(), nil, 30*time.Second, 2*time.Second)
}

func TestDoAttachesBearerAndRequestID(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	exec := newTestExecutor(store, &fakeSession{})

	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.Success() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}
	if gotAuth != "Bearer "+fresh {
		t.Fatalf("expected bearer credential, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected X-Request-Id header on outbound request")
	}
}

func TestDoFailsWithoutSession(t *testing.T) {
	exec := newTestExecutor(&memoryStore{}, &fakeSession{})

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://127.0.0.1:0", Operation: "probe"}, 0)
	if !domain.IsKind(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestExpiredTokenWithFailingRefreshNeverReachesNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	expired := mintToken(t, -time.Minute)
	store := &memoryStore{pair: domain.TokenPair{AccessToken: expired, RefreshToken: "r"}}
	session := &fakeSession{ensureErr: errors.New("refresh endpoint down")}
	exec := newTestExecutor(store, session)

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if !domain.IsKind(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Fatalf("original call must not reach the network, got %d hits", got)
	}
	if got := atomic.LoadInt32(&session.clearCalls); got != 1 {
		t.Fatalf("expected session cleared once, got %d", got)
	}
}

func TestExpiringSoonWithFailingRefreshProceedsBestEffort(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// Valid for another 10s, inside the 30s proactive-refresh buffer.
	closeToExpiry := mintToken(t, 10*time.Second)
	store := &memoryStore{pair: domain.TokenPair{AccessToken: closeToExpiry, RefreshToken: "r"}}
	session := &fakeSession{ensureErr: errors.New("refresh endpoint down")}
	exec := newTestExecutor(store, session)

	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if err != nil {
		t.Fatalf("Do() error = %v; transient refresh failure must not kill a still-valid session", err)
	}
	if !resp.Success() {
		t.Fatalf("expected 2xx, got %d", resp.StatusCode)
	}
	if gotAuth != "Bearer "+closeToExpiry {
		t.Fatalf("expected request to proceed with existing token, got %q", gotAuth)
	}
	if got := atomic.LoadInt32(&session.clearCalls); got != 0 {
		t.Fatalf("session must not be cleared, got %d clears", got)
	}
}

func TestProactiveRefreshSwapsToken(t *testing.T) {
	refreshed := mintToken(t, time.Hour)
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	closeToExpiry := mintToken(t, 10*time.Second)
	store := &memoryStore{pair: domain.TokenPair{AccessToken: closeToExpiry, RefreshToken: "r"}}
	session := &fakeSession{onEnsure: func() {
		_ = store.SaveTokens(domain.TokenPair{AccessToken: refreshed, RefreshToken: "r2"})
	}}
	exec := newTestExecutor(store, session)

	if _, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if gotAuth != "Bearer "+refreshed {
		t.Fatalf("expected refreshed token on the wire, got %q", gotAuth)
	}
	if got := atomic.LoadInt32(&session.ensureCalls); got != 1 {
		t.Fatalf("expected one proactive refresh, got %d", got)
	}
}

func TestReactive401RefreshesAndReissuesOnce(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	refreshed := mintToken(t, 2*time.Hour)

	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1:
			if r.Header.Get("Authorization") != "Bearer "+fresh {
				t.Errorf("first call expected original token, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusUnauthorized)
		default:
			if r.Header.Get("Authorization") != "Bearer "+refreshed {
				t.Errorf("reissue expected refreshed token, got %q", r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	session := &fakeSession{onEnsure: func() {
		_ = store.SaveTokens(domain.TokenPair{AccessToken: refreshed, RefreshToken: "r2"})
	}}
	exec := newTestExecutor(store, session)

	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !resp.Success() {
		t.Fatalf("expected success after reissue, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", got)
	}
}

func TestSecondConsecutive401IsReturnedNotRetried(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	session := &fakeSession{onEnsure: func() {
		_ = store.SaveTokens(domain.TokenPair{AccessToken: mintToken(t, time.Hour), RefreshToken: "r2"})
	}}
	exec := newTestExecutor(store, session)

	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if err != nil {
		t.Fatalf("Do() error = %v; post-retry 401 belongs to the caller", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response surfaced, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected exactly 2 calls (no retry loop), got %d", got)
	}
	if got := atomic.LoadInt32(&session.ensureCalls); got != 1 {
		t.Fatalf("expected exactly one reactive refresh, got %d", got)
	}
}

func TestReactive401WithFailingRefreshTerminatesSession(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	session := &fakeSession{ensureErr: errors.New("refresh rejected")}
	exec := newTestExecutor(store, session)

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if !domain.IsKind(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if got := atomic.LoadInt32(&session.clearCalls); got != 1 {
		t.Fatalf("expected session cleared once, got %d", got)
	}
}

func TestTimeoutSurfacesAsRequestTimeout(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	exec := newTestExecutor(store, &fakeSession{})

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 50*time.Millisecond)
	if !domain.IsKind(err, domain.ErrRequestTimeout) {
		t.Fatalf("expected ErrRequestTimeout, got %v", err)
	}
	if domain.IsKind(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("timeout must stay distinguishable from connectivity failure: %v", err)
	}
}

func TestUnreachableBackendSurfacesAsNetworkUnavailable(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	exec := newTestExecutor(store, &fakeSession{})

	_, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: url, Operation: "probe"}, 0)
	if !domain.IsKind(err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", err)
	}
}

func TestNon2xxOtherThan401IsReturnedAsIs(t *testing.T) {
	fresh := mintToken(t, time.Hour)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conflict", http.StatusConflict)
	}))
	defer server.Close()

	store := &memoryStore{pair: domain.TokenPair{AccessToken: fresh, RefreshToken: "r"}}
	session := &fakeSession{}
	exec := newTestExecutor(store, session)

	resp, err := exec.Do(context.Background(), Request{Method: http.MethodGet, URL: server.URL, Operation: "probe"}, 0)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 surfaced to caller, got %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&session.ensureCalls); got != 0 {
		t.Fatalf("non-401 must not trigger refresh, got %d", got)
	}
}
