package coalesce

import (
	"testing"

	"sshdo/internal/logrecord"
	"sshdo/internal/policy"
)

func testPolicy(style policy.Style) *policy.Policy {
	p := &policy.Policy{Tree: policy.NewTree(), Training: policy.NewTraining(), Settings: policy.DefaultSettings()}
	p.Settings.MatchStyle = style
	return p
}

func TestLearnProposesTrainingCommands(t *testing.T) {
	pol := testPolicy(policy.StyleDigits)
	records := []logrecord.Record{
		{Type: "training", User: "alice", Command: "job 1"},
		{Type: "training", User: "alice", Command: "job 12"},
	}
	proposals := Learn(pol, records)
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal, got %v", proposals)
	}
	if proposals[0].Pattern != "job #" {
		t.Fatalf("expected widths 1,2 to merge to job #, got %q", proposals[0].Pattern)
	}
	if len(proposals[0].Principals) != 1 || proposals[0].Principals[0] != "alice" {
		t.Fatalf("unexpected principals: %v", proposals[0].Principals)
	}
	if len(proposals[0].DisallowedPrincipals) != 0 {
		t.Fatalf("expected no disallowed principals, got %v", proposals[0].DisallowedPrincipals)
	}
}

func TestLearnSkipsDisallowedConflict(t *testing.T) {
	pol := testPolicy(policy.StyleDigits)
	records := []logrecord.Record{
		{Type: "training", User: "alice", Command: "job 1"},
		{Type: "disallowed", User: "alice", Command: "job 1"},
	}
	proposals := Learn(pol, records)
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal, got %v", proposals)
	}
	if len(proposals[0].Principals) != 0 {
		t.Fatalf("expected no allowed principal once disallowed wins the conflict, got %v", proposals[0].Principals)
	}
	if len(proposals[0].DisallowedPrincipals) != 1 || proposals[0].DisallowedPrincipals[0] != "alice" {
		t.Fatalf("expected alice rendered as a commented disallowed principal, got %v", proposals[0].DisallowedPrincipals)
	}
}

func TestLearnIgnoresAlreadyAllowedRecords(t *testing.T) {
	pol := testPolicy(policy.StyleDigits)
	records := []logrecord.Record{
		{Type: "allowed", User: "alice", Command: "job 1"},
	}
	proposals := Learn(pol, records)
	if len(proposals) != 0 {
		t.Fatalf("already-allowed commands need no proposal, got %v", proposals)
	}
}

func TestLearnIgnoresTrainingByGroupRecords(t *testing.T) {
	pol := testPolicy(policy.StyleDigits)
	records := []logrecord.Record{
		{Type: "training-by-group", User: "alice", Group: "ops", Command: "job 1"},
	}
	proposals := Learn(pol, records)
	if len(proposals) != 0 {
		t.Fatalf("training-by-group records must not feed Learn, got %v", proposals)
	}
}

func TestLearnGroupPrincipalToken(t *testing.T) {
	rec := logrecord.Record{User: "alice", Group: "ops", Label: "deploy"}
	if got := principalToken(rec); got != "+ops/deploy" {
		t.Fatalf("expected group token +ops/deploy, got %q", got)
	}
}

func TestSuppressNarrowerLabels(t *testing.T) {
	got := suppressNarrowerLabels([]string{"alice", "alice/deploy", "bob/deploy"})
	want := map[string]bool{"alice": true, "bob/deploy": true}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected token %q in %v", g, got)
		}
	}
}
