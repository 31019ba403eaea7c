package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnapshotOmitsUnsetOptionalFields(t *testing.T) {
	p := &Policy{Tree: NewTree(), Training: NewTraining(), Settings: DefaultSettings()}
	p.Tree.Add(User("alice"), AnyLabel(), "git pull")

	snap := p.Snapshot()
	require.Equal(t, "digits", snap.MatchStyle)
	require.Equal(t, "auth", snap.SyslogFacility)
	require.Empty(t, snap.BannerPath)
	require.Len(t, snap.Authorizations, 1)
	require.Equal(t, "alice", snap.Authorizations[0].Principal)
	require.Equal(t, []string{"git pull"}, snap.Authorizations[0].Patterns)
}

func TestSnapshotSortsEntriesDeterministically(t *testing.T) {
	p := &Policy{Tree: NewTree(), Training: NewTraining(), Settings: DefaultSettings()}
	p.Tree.Add(User("zoe"), AnyLabel(), "ls")
	p.Tree.Add(User("alice"), AnyLabel(), "ls")

	snap := p.Snapshot()
	require.Len(t, snap.Authorizations, 2)
	require.Equal(t, "alice", snap.Authorizations[0].Principal)
	require.Equal(t, "zoe", snap.Authorizations[1].Principal)
}
