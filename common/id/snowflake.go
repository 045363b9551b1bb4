// Package id issues time-ordered snowflake IDs for evaluations, LLM call
// audit rows and knowledge-base chunks.
package id

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

var ErrNotInitialized = errors.New("id generator not initialized")

// Init sets the node ID once per process. Later calls are no-ops.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// NodeFromName maps a stable name (hostname, consumer name) onto the
// snowflake node range so replicas do not collide.
func NodeFromName(name string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum32() % 1024)
}

// New panics if Init was never called. Use Next where that must not happen.
func New() int64 {
	return node.Generate().Int64()
}

func Next() (int64, error) {
	if node == nil {
		return 0, ErrNotInitialized
	}
	return node.Generate().Int64(), nil
}

// Parse accepts the decimal form used in URLs and JSON.
func Parse(s string) (int64, error) {
	parsed, err := snowflake.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if parsed.Int64() <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return parsed.Int64(), nil
}
