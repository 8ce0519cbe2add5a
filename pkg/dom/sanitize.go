package dom

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	fragmentPolicyOnce sync.Once
	fragmentPolicy     *bluemonday.Policy
)

// FragmentPolicy returns the shared policy applied to server-rendered editor
// fragments: user-generated-content rules plus form controls, images and data
// attributes the editors and widgets query.
func FragmentPolicy() *bluemonday.Policy {
	fragmentPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowDataAttributes()
		policy.AllowElements(
			"form", "input", "select", "option", "textarea", "button", "label",
			"img", "ul", "li", "div", "span", "nav", "a",
		)
		policy.AllowAttrs(
			"id", "class", "name", "value", "type", "selected", "checked",
			"multiple", "hidden", "disabled", "placeholder", "for",
		).Globally()
		policy.AllowAttrs("src", "alt").OnElements("img")
		fragmentPolicy = policy
	})
	return fragmentPolicy
}
