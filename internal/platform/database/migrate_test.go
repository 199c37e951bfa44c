package database

import (
	"strings"
	"testing"
)

func TestSchema_Idempotent(t *testing.T) {
	for i, stmt := range schema {
		s := strings.TrimSpace(stmt)
		if !strings.Contains(s, "IF NOT EXISTS") {
			t.Errorf("statement %d is not idempotent: %.40s", i+1, s)
		}
		if strings.Contains(s, ";") {
			t.Errorf("statement %d holds more than one command", i+1)
		}
	}
}

func TestSchema_CreatesTables(t *testing.T) {
	joined := strings.Join(schema, "\n")
	for _, table := range []string{"courses", "authoring_events"} {
		if !strings.Contains(joined, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("schema does not create %s", table)
		}
	}
}
