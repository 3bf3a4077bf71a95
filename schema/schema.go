// Package schema provisions the keyspace and the four tables the
// reservation protocol reads and writes. It replaces ad hoc bootstrap
// scripting with an ordered statement list plus a bounded wait for schema
// agreement across the cluster.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"
)

const createKeyspaceCQL = `CREATE KEYSPACE IF NOT EXISTS %s WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': %d}`

var tableCQL = []string{
	`CREATE TABLE IF NOT EXISTS %s.books (
	book_id int PRIMARY KEY,
	title text,
	author text,
	reservation_id uuid
)`,
	`CREATE TABLE IF NOT EXISTS %s.reservations_by_book_id (
	book_id int PRIMARY KEY,
	customer_id int,
	reservation_id uuid,
	reservation_date bigint
)`,
	`CREATE TABLE IF NOT EXISTS %s.reservations_by_id (
	reservation_id uuid PRIMARY KEY,
	book_id int,
	customer_id int,
	reservation_date bigint
)`,
	`CREATE TABLE IF NOT EXISTS %s.reservations_by_customer_id (
	customer_id int,
	book_id int,
	reservation_id uuid,
	reservation_date bigint,
	PRIMARY KEY (customer_id, book_id)
)`,
}

// Apply creates the keyspace and tables if absent, then waits for the
// cluster to agree on the schema. The session must not be scoped to the
// keyspace (it may not exist yet).
func Apply(ctx context.Context, session *gocql.Session, keyspace string, replicationFactor int) error {
	if err := validateKeyspace(keyspace); err != nil {
		return err
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}

	stmts := Statements(keyspace, replicationFactor)
	for _, stmt := range stmts {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	// DDL propagates asynchronously between nodes; a read right after an
	// unagreed schema change can miss the table.
	if err := session.AwaitSchemaAgreement(ctx); err != nil {
		return fmt.Errorf("await schema agreement: %w", err)
	}
	return nil
}

// Statements returns the ordered DDL for the given keyspace.
func Statements(keyspace string, replicationFactor int) []string {
	out := make([]string, 0, len(tableCQL)+1)
	out = append(out, fmt.Sprintf(createKeyspaceCQL, keyspace, replicationFactor))
	for _, tmpl := range tableCQL {
		out = append(out, fmt.Sprintf(tmpl, keyspace))
	}
	return out
}

// validateKeyspace rejects names that would break out of the identifier
// position in the DDL templates.
func validateKeyspace(keyspace string) error {
	if keyspace == "" {
		return fmt.Errorf("keyspace name required")
	}
	for _, r := range keyspace {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return fmt.Errorf("invalid keyspace name %q", keyspace)
		}
	}
	if r := keyspace[0]; r >= '0' && r <= '9' {
		return fmt.Errorf("invalid keyspace name %q", keyspace)
	}
	if strings.HasPrefix(keyspace, "system") {
		return fmt.Errorf("refusing to manage system keyspace %q", keyspace)
	}
	return nil
}
