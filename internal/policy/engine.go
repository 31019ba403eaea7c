package policy

// Groups resolves the groups a user belongs to, primary group first
// then supplementary groups in the order the operating system reports
// them. The fixed resolution order below depends on that ordering
// being stable for a given user within one decision.
type Groups interface {
	GroupsForUser(user string) ([]string, error)
}

// Engine evaluates one (user, label, command) invocation against a
// loaded Policy. Resolution order is fixed and is not a specificity
// contest: negated user, then user, then groups in OS order, then the
// training tiers in the same shape, then deny.
type Engine struct {
	policy *Policy
	groups Groups
	cache  *Cache
}

func NewEngine(p *Policy, groups Groups) *Engine {
	return &Engine{policy: p, groups: groups, cache: NewCache()}
}

func (e *Engine) Decide(user string, label Label, cmd string) (Decision, error) {
	negUser := NegUser(user)
	matched, err := e.matchesPrincipal(negUser, label, cmd)
	if err != nil {
		return Decision{}, err
	}
	if matched {
		return Decision{Outcome: Disallowed}, nil
	}

	matched, err = e.matchesPrincipal(User(user), label, cmd)
	if err != nil {
		return Decision{}, err
	}
	if matched {
		return Decision{Outcome: Allowed}, nil
	}

	groups, err := e.groups.GroupsForUser(user)
	if err != nil {
		groups = nil
	}
	for _, g := range groups {
		matched, err = e.matchesPrincipal(Group(g), label, cmd)
		if err != nil {
			return Decision{}, err
		}
		if matched {
			return Decision{Outcome: AllowedByGroup, Group: g}, nil
		}
	}

	if e.policy.Training.Global {
		return Decision{Outcome: Training}, nil
	}
	if e.matchesTraining(negUser, label) {
		return Decision{Outcome: Disallowed}, nil
	}
	if e.matchesTraining(User(user), label) {
		return Decision{Outcome: Training}, nil
	}
	for _, g := range groups {
		if e.matchesTraining(Group(g), label) {
			return Decision{Outcome: TrainingByGroup, Group: g}, nil
		}
	}

	return Decision{Outcome: Disallowed}, nil
}

// matchesPrincipal checks the concrete label's entry, then falls back
// to the "any label" entry unless the concrete label already is "any".
func (e *Engine) matchesPrincipal(p Principal, label Label, cmd string) (bool, error) {
	if set, ok := e.policy.Tree.Get(p, label); ok {
		matched, err := set.Matches(cmd, e.policy.Settings.MatchStyle, e.cache)
		if err != nil || matched {
			return matched, err
		}
	}
	if !label.IsAny() {
		if set, ok := e.policy.Tree.Get(p, AnyLabel()); ok {
			return set.Matches(cmd, e.policy.Settings.MatchStyle, e.cache)
		}
	}
	return false, nil
}

func (e *Engine) matchesTraining(p Principal, label Label) bool {
	if e.policy.Training.Has(p, label) {
		return true
	}
	if !label.IsAny() && e.policy.Training.Has(p, AnyLabel()) {
		return true
	}
	return false
}
