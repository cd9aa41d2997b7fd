package tools

import "testing"

func TestIDDedupContext_FirstEncounterKeepsID(t *testing.T) {
	c := NewIDDedupContext()
	if got := c.Encounter("dup"); got != "dup" {
		t.Errorf("first encounter = %q, want %q", got, "dup")
	}
}

func TestIDDedupContext_SecondEncounterGeneratesFreshID(t *testing.T) {
	c := NewIDDedupContext()
	first := c.Encounter("dup")
	second := c.Encounter("dup")

	if first != "dup" {
		t.Fatalf("first = %q, want dup", first)
	}
	if second == "dup" {
		t.Fatalf("second encounter must not reuse the original id")
	}
	if len(second) != len("dup") {
		t.Fatalf("generated id length = %d, want %d", len(second), len("dup"))
	}
}

func TestIDDedupContext_ConsumeInOrder(t *testing.T) {
	c := NewIDDedupContext()
	first := c.Encounter("dup")
	second := c.Encounter("dup")

	if got := c.Consume("dup"); got != first {
		t.Errorf("first Consume = %q, want %q", got, first)
	}
	if got := c.Consume("dup"); got != second {
		t.Errorf("second Consume = %q, want %q", got, second)
	}
}

func TestIDDedupContext_IdempotentOnUniqueIDs(t *testing.T) {
	c := NewIDDedupContext()
	for _, id := range []string{"a", "b", "c"} {
		if got := c.Encounter(id); got != id {
			t.Errorf("Encounter(%q) = %q, want unchanged", id, got)
		}
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID("msg_")
	if len(id) != len("msg_")+24 {
		t.Errorf("id length = %d, want %d", len(id), len("msg_")+24)
	}
	if id[:4] != "msg_" {
		t.Errorf("id %q missing msg_ prefix", id)
	}
}
