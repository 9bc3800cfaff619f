package state

import (
	"testing"

	"markline/backend/internal/model"
)

func TestEmployeeState_LockUnlockRoundTrip(t *testing.T) {
	st := &EmployeeState{
		Status: StatusAggregatingSet,
		Unit:   &Unit{Level: model.LevelSet, Items: []string{"a", "b"}},
	}

	st.Lock()
	if st.Status != StatusLocked {
		t.Fatalf("expected LOCKED, got %s", st.Status)
	}
	if st.Unit != nil {
		t.Error("unit must be parked while locked")
	}

	st.Unlock()
	if st.Status != StatusAggregatingSet {
		t.Fatalf("expected restored status, got %s", st.Status)
	}
	if st.Unit == nil || len(st.Unit.Items) != 2 {
		t.Fatal("unit not restored")
	}
	if st.PrevStatus != "" || st.PrevUnit != nil {
		t.Error("previous snapshot must be cleared after unlock")
	}
}

func TestEmployeeState_UnlockWithoutHistory(t *testing.T) {
	st := &EmployeeState{Status: StatusLocked}
	st.Unlock()
	if st.Status != StatusIdle {
		t.Errorf("expected IDLE fallback, got %s", st.Status)
	}
}

func TestAggregatingStatus(t *testing.T) {
	tests := []struct {
		level model.Level
		want  Status
	}{
		{model.LevelSet, StatusAggregatingSet},
		{model.LevelBox, StatusAggregatingBox},
		{model.LevelPallet, StatusAggregatingPallet},
		{model.LevelContainer, StatusAggregatingContainer},
		{model.LevelProduct, StatusIdle},
	}
	for _, tt := range tests {
		if got := AggregatingStatus(tt.level); got != tt.want {
			t.Errorf("AggregatingStatus(%s) = %s, want %s", tt.level, got, tt.want)
		}
	}
	if StatusLocked.IsAggregating() || StatusIdle.IsAggregating() {
		t.Error("only unit-carrying statuses aggregate")
	}
}

func TestPrefix16(t *testing.T) {
	long := "0104600000000001215Ndd7wz"
	if got := Prefix16(long); got != "0104600000000001" {
		t.Errorf("Prefix16 = %q", got)
	}
	if got := Prefix16("short"); got != "short" {
		t.Errorf("short codes classify whole: %q", got)
	}
}

func TestCodeModel_Classify(t *testing.T) {
	m := &CodeModel{
		ProductPrefixes:    []string{"0104600000000001"},
		SetPrefixes:        []string{"0104600000009999"},
		LearningSuccessful: true,
	}

	if m.Classify("0104600000000001215Ndd7wz") != ClassProduct {
		t.Error("product prefix misclassified")
	}
	if m.Classify("010460000000999921SET") != ClassSet {
		t.Error("set prefix misclassified")
	}
	if m.Classify("046100012300000010") != ClassUnknown {
		t.Error("foreign code should be unknown")
	}
	if m.HasSetPrefix("0104600000000001215Ndd7wz") {
		t.Error("product code is not a set")
	}
}
