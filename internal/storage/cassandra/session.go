package cassandra

import (
	"time"

	"github.com/gocql/gocql"
)

// DefaultHosts are the contact points used when none are configured.
var DefaultHosts = []string{"127.0.0.1"}

const (
	DefaultKeyspace = "library"
	DefaultTimeout  = 5 * time.Second
)

// Config describes a connection to the replicated store. The exclusivity
// protocol depends on QUORUM reads/writes plus SERIAL conditional writes,
// so those are the defaults rather than tunables pushed to callers.
type Config struct {
	Hosts    []string
	Keyspace string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if len(c.Hosts) == 0 {
		c.Hosts = DefaultHosts
	}
	if c.Keyspace == "" {
		c.Keyspace = DefaultKeyspace
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Open connects to the cluster scoped to the configured keyspace.
func Open(cfg Config) (*gocql.Session, error) {
	cfg = cfg.withDefaults()

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.Quorum
	cluster.SerialConsistency = gocql.Serial
	cluster.Timeout = cfg.Timeout
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 2}

	return cluster.CreateSession()
}

// OpenBare connects without a keyspace, for schema bootstrap before the
// keyspace exists.
func OpenBare(cfg Config) (*gocql.Session, error) {
	cfg = cfg.withDefaults()

	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = cfg.Timeout

	return cluster.CreateSession()
}
