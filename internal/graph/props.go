package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Props is the property bag attached to a created or matched node; callers
// build one per write and pass it as Cypher parameters.
type Props map[string]interface{}

// StringProp reads a string property, returning "" if absent or wrong type.
func StringProp(props map[string]interface{}, key string) string {
	v, _ := props[key].(string)
	return v
}

// BoolProp reads a bool property, defaulting to false.
func BoolProp(props map[string]interface{}, key string) bool {
	v, _ := props[key].(bool)
	return v
}

// Int64Prop reads an integer property stored as int64 (Neo4j's native integer type).
func Int64Prop(props map[string]interface{}, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// StringSliceProp reads a []string property stored as []interface{}.
func StringSliceProp(props map[string]interface{}, key string) []string {
	raw, ok := props[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// TimeProp reads an RFC3339 timestamp string property.
func TimeProp(props map[string]interface{}, key string) time.Time {
	s := StringProp(props, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// NodeProps extracts the property map from a record's node value at the given key.
func NodeProps(record *neo4j.Record, key string) (map[string]interface{}, bool) {
	raw, ok := record.Get(key)
	if !ok || raw == nil {
		return nil, false
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return nil, false
	}
	return node.Props, true
}
