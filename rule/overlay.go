package rule

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/signadot/xmlreconcile/debug"

	jsonpatch "github.com/evanphx/json-patch"
)

// applyOverrides merges each override into every rule with that key, as an
// RFC 7386 merge patch over the rule's JSON form. A null member removes the
// field, so an override can drop a static value or a condition.
func applyOverrides(rules []*Rule, overrides map[string]map[string]any) ([]*Rule, error) {
	res := cloneRules(rules)
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		patch, err := json.Marshal(overrides[key])
		if err != nil {
			return nil, fmt.Errorf("%w: override %q: %w", ErrBadRule, key, err)
		}
		matched := false
		for i, r := range res {
			if r.Key() != key {
				continue
			}
			matched = true
			nr, err := mergeRule(r, patch)
			if err != nil {
				return nil, fmt.Errorf("%w: override %q: %w", ErrBadRule, key, err)
			}
			if debug.Rules() {
				debug.Logf("override %s: %s\n", key, debug.JSON(overrides[key]))
			}
			res[i] = nr
		}
		if !matched {
			return nil, fmt.Errorf("%w: override %q matches no rule", ErrBadRule, key)
		}
	}
	return res, nil
}

func mergeRule(r *Rule, patch []byte) (*Rule, error) {
	doc, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return nil, err
	}
	res := &Rule{}
	if err := json.Unmarshal(merged, res); err != nil {
		return nil, err
	}
	return res, nil
}
