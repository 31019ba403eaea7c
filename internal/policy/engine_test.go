package policy

import "testing"

type fakeGroups map[string][]string

func (f fakeGroups) GroupsForUser(user string) ([]string, error) {
	return f[user], nil
}

func newTestPolicy() *Policy {
	p := &Policy{
		Tree:     NewTree(),
		Training: NewTraining(),
		Settings: DefaultSettings(),
	}
	return p
}

func TestDecideAllowedUser(t *testing.T) {
	p := newTestPolicy()
	p.Tree.Add(User("alice"), AnyLabel(), "git pull")

	e := NewEngine(p, fakeGroups{})
	d, err := e.Decide("alice", NewLabel(""), "git pull")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Allowed {
		t.Fatalf("expected Allowed, got %v", d)
	}
}

func TestDecideNegUserBeatsGroup(t *testing.T) {
	p := newTestPolicy()
	p.Tree.Add(Group("ops"), AnyLabel(), "systemctl restart web")
	p.Tree.Add(NegUser("bob"), AnyLabel(), "systemctl restart web")

	e := NewEngine(p, fakeGroups{"bob": {"ops"}})
	d, err := e.Decide("bob", NewLabel(""), "systemctl restart web")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Disallowed {
		t.Fatalf("negated user must override group allow, got %v", d)
	}
}

func TestDecideAllowedByGroup(t *testing.T) {
	p := newTestPolicy()
	p.Tree.Add(Group("ops"), AnyLabel(), "systemctl restart web")

	e := NewEngine(p, fakeGroups{"carol": {"ops"}})
	d, err := e.Decide("carol", NewLabel(""), "systemctl restart web")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != AllowedByGroup || d.Group != "ops" {
		t.Fatalf("expected AllowedByGroup(ops), got %v", d)
	}
}

func TestDecideLabelFallsBackToAny(t *testing.T) {
	p := newTestPolicy()
	p.Tree.Add(User("dave"), AnyLabel(), "uptime")

	e := NewEngine(p, fakeGroups{})
	d, err := e.Decide("dave", NewLabel("backups"), "uptime")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Allowed {
		t.Fatalf("expected any-label entry to satisfy a concrete label, got %v", d)
	}
}

func TestDecideSpecificLabelPreferredOverAny(t *testing.T) {
	p := newTestPolicy()
	p.Tree.Add(User("erin"), AnyLabel(), "ls")
	p.Tree.Add(NegUser("erin"), NewLabel("restricted"), "ls")

	e := NewEngine(p, fakeGroups{})
	d, err := e.Decide("erin", NewLabel("restricted"), "ls")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Disallowed {
		t.Fatalf("expected specific-label negation to apply, got %v", d)
	}

	d, err = e.Decide("erin", NewLabel("other"), "ls")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Allowed {
		t.Fatalf("expected any-label allow for an unrelated label, got %v", d)
	}
}

func TestDecideGlobalTraining(t *testing.T) {
	p := newTestPolicy()
	p.Training.Global = true

	e := NewEngine(p, fakeGroups{})
	d, err := e.Decide("anyone", NewLabel(""), "rm -rf /tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Training {
		t.Fatalf("expected Training under global training, got %v", d)
	}
}

func TestDecideTrainingByGroupAndNegTrainingWins(t *testing.T) {
	p := newTestPolicy()
	p.Training.Add(Group("interns"), AnyLabel())
	p.Training.Add(NegUser("frank"), AnyLabel())

	e := NewEngine(p, fakeGroups{"frank": {"interns"}})
	d, err := e.Decide("frank", NewLabel(""), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Disallowed {
		t.Fatalf("negative training must suppress group training, got %v", d)
	}

	e2 := NewEngine(p, fakeGroups{"gina": {"interns"}})
	d2, err := e2.Decide("gina", NewLabel(""), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if d2.Outcome != TrainingByGroup || d2.Group != "interns" {
		t.Fatalf("expected TrainingByGroup(interns), got %v", d2)
	}
}

func TestDecideDefaultDeny(t *testing.T) {
	p := newTestPolicy()
	e := NewEngine(p, fakeGroups{})
	d, err := e.Decide("nobody", NewLabel(""), "anything")
	if err != nil {
		t.Fatal(err)
	}
	if d.Outcome != Disallowed {
		t.Fatalf("expected default deny, got %v", d)
	}
}
