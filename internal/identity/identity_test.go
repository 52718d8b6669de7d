package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/dreamdiary/internal/domain"
)

type fakeRepo struct {
	ensured map[string]string
}

func (f *fakeRepo) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return nil, nil
}

func (f *fakeRepo) EnsureUser(ctx context.Context, userID, username string) error {
	if f.ensured == nil {
		f.ensured = make(map[string]string)
	}
	f.ensured[userID] = username
	return nil
}

func (f *fakeRepo) UpdateStreak(ctx context.Context, userID string, streak int) error { return nil }
func (f *fakeRepo) BindChat(ctx context.Context, userID, binding string) error        { return nil }
func (f *fakeRepo) SaveEntry(ctx context.Context, entry *domain.Entry) (string, error) {
	return "", nil
}
func (f *fakeRepo) GetRecentEntries(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	return nil, nil
}
func (f *fakeRepo) GetLastEntry(ctx context.Context, userID string) (*domain.Entry, error) {
	return nil, nil
}
func (f *fakeRepo) GetEntryDays(ctx context.Context, userID string, since time.Time) ([]string, error) {
	return nil, nil
}
func (f *fakeRepo) SeedExercises(ctx context.Context, exercises []domain.Exercise) error { return nil }
func (f *fakeRepo) GetRandomExercise(ctx context.Context) (*domain.Exercise, error) {
	return nil, nil
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

func TestGenerateAnonID(t *testing.T) {
	id, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID failed: %v", err)
	}
	if !isValidAnonID(id) {
		t.Errorf("Generated ID %q is not valid", id)
	}

	other, err := generateAnonID()
	if err != nil {
		t.Fatalf("generateAnonID failed: %v", err)
	}
	if id == other {
		t.Error("Expected distinct IDs across calls")
	}
}

func TestIsValidAnonID(t *testing.T) {
	valid := "anon_0123456789abcdef0123456789abcdef"
	if !isValidAnonID(valid) {
		t.Errorf("Expected %q to be valid", valid)
	}

	invalid := []string{
		"",
		"anon_",
		"anon_short",
		"anon_0123456789ABCDEF0123456789ABCDEF",       // uppercase hex
		"user_0123456789abcdef0123456789abcdef",       // wrong prefix
		"anon_0123456789abcdef0123456789abcdef0",      // too long
		"anon_0123456789abcdef0123456789abcde;drop--", // injection attempt
	}
	for _, id := range invalid {
		if isValidAnonID(id) {
			t.Errorf("Expected %q to be invalid", id)
		}
	}
}

func TestDeriveUsername(t *testing.T) {
	got := deriveUsername("anon_0123456789abcdef0123456789abcdef")
	if got != "dreamer-89abcdef" {
		t.Errorf("Expected dreamer-89abcdef, got %q", got)
	}

	if got := deriveUsername("short"); got != "dreamer" {
		t.Errorf("Expected fallback dreamer, got %q", got)
	}
}

func TestMiddleware_NewVisitor(t *testing.T) {
	repo := &fakeRepo{}
	var seenUserID, seenUsername string

	handler := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
		seenUsername = UsernameFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if !isValidAnonID(seenUserID) {
		t.Errorf("Expected valid anon ID in context, got %q", seenUserID)
	}
	if seenUsername == "" {
		t.Error("Expected username in context")
	}
	if repo.ensured[seenUserID] != seenUsername {
		t.Errorf("Expected user upserted with %q, got %q", seenUsername, repo.ensured[seenUserID])
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AnonCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected identity cookie set")
	}
	if cookie.Value != seenUserID {
		t.Errorf("Expected cookie value %q, got %q", seenUserID, cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Error("Expected HttpOnly cookie")
	}
	if cookie.Secure {
		t.Error("Expected non-secure cookie in dev mode")
	}
}

func TestMiddleware_ReturningVisitor(t *testing.T) {
	repo := &fakeRepo{}
	existing := "anon_0123456789abcdef0123456789abcdef"
	var seenUserID string

	handler := Middleware(repo, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: existing})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenUserID != existing {
		t.Errorf("Expected existing identity %q, got %q", existing, seenUserID)
	}
}

func TestMiddleware_InvalidCookieReplaced(t *testing.T) {
	repo := &fakeRepo{}
	var seenUserID string

	handler := Middleware(repo, true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "tampered"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenUserID == "tampered" {
		t.Error("Expected tampered cookie to be replaced")
	}
	if !isValidAnonID(seenUserID) {
		t.Errorf("Expected fresh valid identity, got %q", seenUserID)
	}
}
