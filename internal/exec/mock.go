package exec

import (
	"context"
	"fmt"
	"strings"
)

// MockExecutor records executed statements for tests. Statements containing
// any configured failure marker return an error.
type MockExecutor struct {
	Statements []string
	FailOn     []string
	Connected  bool
	Closed     bool
}

func (m *MockExecutor) Connect(ctx context.Context) error {
	m.Connected = true
	return nil
}

func (m *MockExecutor) Execute(ctx context.Context, stmt string) error {
	for _, marker := range m.FailOn {
		if strings.Contains(stmt, marker) {
			return fmt.Errorf("mock failure on %q", marker)
		}
	}
	m.Statements = append(m.Statements, stmt)
	return nil
}

func (m *MockExecutor) Close() error {
	m.Closed = true
	return nil
}
