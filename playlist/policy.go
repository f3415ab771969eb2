package playlist

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ErrorPolicy decides what a playlist announces when it drains right after an error.
type ErrorPolicy string

const (
	// PolicyReport announces the drain like any other: ERRORED, then ENDED.
	PolicyReport ErrorPolicy = "report"
	// PolicySuppress lets the ERRORED notification stand in for ENDED when the final item failed.
	PolicySuppress ErrorPolicy = "suppress"
)

var policies = []ErrorPolicy{PolicyReport, PolicySuppress}

// ParsePolicy accepts a policy name in any case.
func ParsePolicy(name string) (ErrorPolicy, error) {
	p := ErrorPolicy(strings.ToLower(strings.TrimSpace(name)))
	if !lo.Contains(policies, p) {
		return PolicyReport, fmt.Errorf("unknown error policy %q, expected one of %v", name, policies)
	}
	return p, nil
}
