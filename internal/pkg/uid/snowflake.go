package uid

import (
	"crypto/rand"
	"math/big"

	"github.com/bwmarrin/snowflake"
)

// Snowflake generates time-sortable int64 identifiers.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake builds a Snowflake generator with a random node number.
//
// A random node keeps ids collision-free across replicas without requiring
// coordinated node assignment.
func NewSnowflake() (*Snowflake, error) {
	max := big.NewInt(1024)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(n.Int64())
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new snowflake id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
