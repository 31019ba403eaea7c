package policy

import (
	"os/user"
)

// OSGroups resolves group membership through os/user. No example or
// third-party library in the retrieval pack wraps POSIX group
// enumeration; os/user is the correct and only primitive for it.
type OSGroups struct{}

func (OSGroups) GroupsForUser(username string) ([]string, error) {
	u, err := user.Lookup(username)
	if err != nil {
		return nil, err
	}

	var names []string
	primary, err := user.LookupGroupId(u.Gid)
	if err == nil {
		names = append(names, primary.Name)
	}

	gids, err := u.GroupIds()
	if err != nil {
		return names, nil
	}
	for _, gid := range gids {
		if gid == u.Gid {
			continue
		}
		g, err := user.LookupGroupId(gid)
		if err != nil {
			continue
		}
		names = append(names, g.Name)
	}
	return names, nil
}
