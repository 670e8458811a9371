package visibility

import (
	"context"
	"strings"
	"testing"
)

func TestQuery_EmptyIncludeSetShortCircuits(t *testing.T) {
	// A custom view with an empty allow list matches nothing; no SQL
	// should run at all (the catalog has no live database here).
	catalog := NewEngineerCatalog(nil)

	engineers, total, err := catalog.Query(context.Background(), EngineerQuery{
		TenantID:   1,
		IncludeIDs: []int64{},
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if total != 0 || len(engineers) != 0 {
		t.Errorf("empty include set should return nothing, got %d/%d", len(engineers), total)
	}
}

func TestBuildEngineerWhere_Base(t *testing.T) {
	where, args := buildEngineerWhere(EngineerQuery{TenantID: 1})

	for _, cond := range []string{"tenant_id = $1", "is_active = TRUE", "is_public = TRUE"} {
		if !strings.Contains(where, cond) {
			t.Errorf("where clause missing %q: %s", cond, where)
		}
	}
	if len(args) != 1 {
		t.Errorf("expected 1 arg, got %d", len(args))
	}
}

func TestBuildEngineerWhere_Exclusions(t *testing.T) {
	where, args := buildEngineerWhere(EngineerQuery{
		TenantID:   1,
		ExcludeIDs: []int64{101, 205},
	})

	if !strings.Contains(where, "NOT (id = ANY($2))") {
		t.Errorf("NG exclusion missing: %s", where)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestBuildEngineerWhere_IncludeIDs(t *testing.T) {
	where, _ := buildEngineerWhere(EngineerQuery{
		TenantID:   1,
		IncludeIDs: []int64{101},
	})
	if !strings.Contains(where, "id = ANY($2)") {
		t.Errorf("allow-list inclusion missing: %s", where)
	}

	// A nil include set imposes no restriction.
	where, _ = buildEngineerWhere(EngineerQuery{TenantID: 1})
	if strings.Contains(where, "id = ANY") {
		t.Errorf("nil include set should not restrict: %s", where)
	}
}

func TestBuildEngineerWhere_AvailabilityAndOverlay(t *testing.T) {
	// View-mode availability and the caller's filter are conjunctive, so
	// the filter can only ever narrow what the view mode selected.
	where, args := buildEngineerWhere(EngineerQuery{
		TenantID:       1,
		Availabilities: WaitingAvailabilities(),
		Overlay:        []Availability{AvailabilityImmediate},
	})

	if strings.Count(where, "availability = ANY") != 2 {
		t.Errorf("expected two availability conditions: %s", where)
	}
	if len(args) != 3 {
		t.Errorf("expected 3 args, got %d", len(args))
	}
}

func TestBuildEngineerWhere_Search(t *testing.T) {
	where, args := buildEngineerWhere(EngineerQuery{
		TenantID: 1,
		Search:   "tanaka",
	})

	if !strings.Contains(where, "name ILIKE $2") ||
		!strings.Contains(where, "name_kana ILIKE $2") ||
		!strings.Contains(where, "email ILIKE $2") {
		t.Errorf("search should cover name, kana, and email: %s", where)
	}
	if args[1] != "%tanaka%" {
		t.Errorf("search arg = %v, want %%tanaka%%", args[1])
	}
}

func TestBuildEngineerWhere_Skills(t *testing.T) {
	where, args := buildEngineerWhere(EngineerQuery{
		TenantID: 1,
		Skills:   []string{"go", "postgres"},
	})

	if !strings.Contains(where, "skills @> $2") {
		t.Errorf("skills contains-all condition missing: %s", where)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestBuildEngineerWhere_OrdinalsStayAligned(t *testing.T) {
	// Every condition present at once; ordinals must number 1..N in
	// order of appearance.
	where, args := buildEngineerWhere(EngineerQuery{
		TenantID:       1,
		ExcludeIDs:     []int64{5},
		IncludeIDs:     []int64{7},
		Availabilities: WaitingAvailabilities(),
		Overlay:        []Availability{AvailabilityImmediate},
		Search:         "sato",
		Skills:         []string{"go"},
	})

	if len(args) != 7 {
		t.Fatalf("expected 7 args, got %d", len(args))
	}
	for i := 1; i <= 7; i++ {
		placeholder := "$" + string(rune('0'+i))
		if !strings.Contains(where, placeholder) {
			t.Errorf("placeholder %s missing: %s", placeholder, where)
		}
	}
}
