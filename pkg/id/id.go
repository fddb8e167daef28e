package id

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

// NewNode builds the snowflake generator for row ids. The node number comes
// from SNOWFLAKE_NODE so replicas can coexist without id collisions.
func NewNode() (*snowflake.Node, error) {
	node := int64(1)
	if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			node = parsed
		}
	}
	return snowflake.NewNode(node)
}

var Module = fx.Module("id",
	fx.Provide(NewNode),
)
