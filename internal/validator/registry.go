package validator

// Registry maps rule keys to Rule implementations.
type Registry struct {
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule to the registry. Registering a key twice
// replaces the rule but keeps its original report position.
func (r *Registry) Register(rule Rule) {
	if _, exists := r.rules[rule.RuleKey()]; !exists {
		r.order = append(r.order, rule.RuleKey())
	}
	r.rules[rule.RuleKey()] = rule
}

// Get returns the rule for a given key, or nil if not found.
func (r *Registry) Get(key string) Rule {
	return r.rules[key]
}

// All returns the registered rules in registration order.
func (r *Registry) All() []Rule {
	out := make([]Rule, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.rules[key])
	}
	return out
}
