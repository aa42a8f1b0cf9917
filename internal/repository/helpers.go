package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// isUniqueConstraintError checks if a SurrealDB error is a unique index violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "already contains")
}

// hasTable reports whether a record id string belongs to table tb. Ids that
// point at another table are treated as absent rather than dereferenced.
func hasTable(id, tb string) bool {
	return strings.HasPrefix(id, tb+":") && len(id) > len(tb)+1
}

// parsePostgresID converts an external id to the BIGSERIAL key
func parsePostgresID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// {"tb": "account", "id": "xyz"} or {"tb": "account", "id": {"String": "xyz"}}
		tb, _ := v["tb"].(string)
		idPart := ""
		switch inner := v["id"].(type) {
		case string:
			idPart = inner
		case map[string]interface{}:
			idPart, _ = inner["String"].(string)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
	}
	return fmt.Sprintf("%v", id)
}

// parseTime parses time from the shapes the SurrealDB client produces
func parseTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case models.CustomDateTime:
		return t.Time
	case *models.CustomDateTime:
		if t != nil {
			return t.Time
		}
	}
	return time.Time{}
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getStringPtr extracts an optional string value from a map
func getStringPtr(m map[string]interface{}, key string) *string {
	if v, ok := m[key].(string); ok {
		return &v
	}
	return nil
}

// stringOrNil turns an optional string into a query variable. SurrealDB
// receives nil as NULL, which the IF ... IS NOT NULL guards treat as unset.
func stringOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
