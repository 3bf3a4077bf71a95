package testutil

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gocql/gocql"

	"github.com/AmevinLS/bigdata-reservation/internal/storage/cassandra"
	"github.com/AmevinLS/bigdata-reservation/schema"
)

const testKeyspace = "library_test"

// NewTestSession connects to a local Cassandra, provisions the test
// keyspace, and returns a session scoped to it. Tests are skipped when no
// cluster is reachable, so unit runs stay green without infrastructure.
func NewTestSession(t *testing.T) *gocql.Session {
	t.Helper()

	cfg := cassandra.Config{
		Hosts:    testHosts(),
		Keyspace: testKeyspace,
		Timeout:  5 * time.Second,
	}

	bare, err := cassandra.OpenBare(cfg)
	if err != nil {
		t.Skipf("skipping Cassandra integration tests: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := schema.Apply(ctx, bare, testKeyspace, 1); err != nil {
		bare.Close()
		t.Fatalf("apply test schema: %v", err)
	}
	bare.Close()

	session, err := cassandra.Open(cfg)
	if err != nil {
		t.Fatalf("connect to test keyspace: %v", err)
	}
	t.Cleanup(session.Close)

	TruncateAll(t, session)
	return session
}

// TruncateAll empties every table the protocol touches.
func TruncateAll(t *testing.T, session *gocql.Session) {
	t.Helper()
	for _, table := range []string{
		"reservations_by_book_id",
		"reservations_by_id",
		"reservations_by_customer_id",
		"books",
	} {
		if err := session.Query(`TRUNCATE TABLE ` + table).Exec(); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
}

// InsertBook seeds a catalog row directly.
func InsertBook(t *testing.T, session *gocql.Session, bookID int, title, author string) {
	t.Helper()
	if err := session.Query(
		`INSERT INTO books (book_id, title, author) VALUES (?, ?, ?)`,
		bookID, title, author,
	).Exec(); err != nil {
		t.Fatalf("insert book: %v", err)
	}
}

func testHosts() []string {
	raw := os.Getenv("TEST_CASSANDRA_HOSTS")
	if raw == "" {
		return []string{"127.0.0.1"}
	}
	hosts := strings.Split(raw, ",")
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
