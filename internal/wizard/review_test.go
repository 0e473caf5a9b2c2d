package wizard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sqlporter/sqlporter/internal/review"
)

func testReport() *review.Report {
	return &review.Report{
		Total: 3,
		Items: []review.Item{
			{Finding: review.Finding{File: "a.sql", Object: "P1", IssueType: "dynamic_sql", Severity: review.SeverityError, Message: "dynamic sql"}},
			{Finding: review.Finding{File: "a.sql", Object: "T1", IssueType: "semi_structured_type", Severity: review.SeverityWarning, Message: "variant column"}},
			{Finding: review.Finding{File: "b.sql", Object: "T2", IssueType: "semi_structured_type", Severity: review.SeverityWarning, Message: "array column"}},
		},
	}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReviewModelNavigation(t *testing.T) {
	m := NewReviewModel(testReport())

	next, _ := m.Update(key("j"))
	m = next.(ReviewModel)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}

	next, _ = m.Update(key("k"))
	m = next.(ReviewModel)
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}

	view := m.View()
	if !strings.Contains(view, "3 of 3 findings") {
		t.Errorf("view missing count header:\n%s", view)
	}
	if !strings.Contains(view, "dynamic sql") {
		t.Errorf("view missing finding message:\n%s", view)
	}
}

func TestReviewModelSeverityFilter(t *testing.T) {
	m := NewReviewModel(testReport())

	next, _ := m.Update(key("s")) // "" -> ERROR
	m = next.(ReviewModel)
	if len(m.filtered) != 1 {
		t.Fatalf("filtered = %d items, want 1 error", len(m.filtered))
	}

	next, _ = m.Update(key("s")) // ERROR -> WARNING
	m = next.(ReviewModel)
	if len(m.filtered) != 2 {
		t.Fatalf("filtered = %d items, want 2 warnings", len(m.filtered))
	}
	if !strings.Contains(m.View(), "WARNING") {
		t.Error("view missing filter label")
	}
}

func TestReviewModelQuit(t *testing.T) {
	m := NewReviewModel(testReport())
	next, cmd := m.Update(key("q"))
	m = next.(ReviewModel)
	if !m.Done() {
		t.Error("model not done after q")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}
