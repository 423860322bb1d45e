package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/livepoll/api/internal/adapters/broadcast/memory"
	apihttp "github.com/livepoll/api/internal/adapters/handler/http"
	pgrepo "github.com/livepoll/api/internal/adapters/repository/postgres"
	"github.com/livepoll/api/internal/core/services"
)

const testIdentitySecret = "test-secret"

type testApp struct {
	Container   testcontainers.Container
	DB          *sql.DB
	Server      *httptest.Server
	Broadcaster *memory.Broadcaster
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := "../../internal/adapters/repository/postgres/migrations"

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *testApp {
	// Generous limit so unrelated tests never trip the limiter.
	return setupTestAppWithRateLimit(t, time.Minute, 100)
}

func setupTestAppWithRateLimit(t *testing.T, window time.Duration, maxAttempts int) *testApp {
	t.Helper()
	ctx := context.Background()

	container, connStr, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, applyMigrations(db))

	pollRepo := pgrepo.NewPollRepository(db)
	voteRepo := pgrepo.NewVoteRepository(db)
	attemptRepo := pgrepo.NewAttemptRepository(db)

	broadcaster := memory.NewBroadcaster()
	rateLimiter := services.NewRateLimitService(attemptRepo, clockwork.NewRealClock(), window, maxAttempts)
	pollService := services.NewPollService(pollRepo)
	voteService := services.NewVoteService(pollRepo, voteRepo, rateLimiter, broadcaster)

	identity := apihttp.NewIdentityResolver(testIdentitySecret, "", false)
	handler := apihttp.NewHandler(
		[]string{"http://localhost:3000"},
		apihttp.NewPollHandler(pollService),
		apihttp.NewVoteHandler(voteService, identity),
		apihttp.NewEventsHandler(pollService, broadcaster),
	)

	return &testApp{
		Container:   container,
		DB:          db,
		Server:      httptest.NewServer(handler),
		Broadcaster: broadcaster,
	}
}

func (a *testApp) Teardown(t *testing.T) {
	t.Helper()
	a.Server.Close()
	a.Broadcaster.Close()
	require.NoError(t, a.DB.Close())
	require.NoError(t, a.Container.Terminate(context.Background()))
}

// newVoterClient returns an http client with its own cookie jar, acting as
// one browser identity.
func newVoterClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

// signedVoterCookie builds a voter cookie the server will accept, for tests
// that need to pin the identity up front.
func signedVoterCookie(t *testing.T, voterID uuid.UUID) *http.Cookie {
	t.Helper()

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   voterID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testIdentitySecret))
	require.NoError(t, err)

	return &http.Cookie{Name: "voter_token", Value: token}
}
