package measure

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// UnsupportedMeasureError reports a measure specification that matches
// no known base name, nickname or parameterized pattern.
type UnsupportedMeasureError struct {
	Measure string
}

func (e *UnsupportedMeasureError) Error() string {
	return fmt.Sprintf("unsupported measure %s", e.Measure)
}

// paramsRE matches one or more comma-separated numeric parameters.
// Parameters may be integers or decimals.
var paramsRE = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(,[0-9]+(\.[0-9]+)?)*$`)

// Normalize translates loosely-formatted measure specifications into
// the canonical strings the evaluation engine accepts. It expands
// nicknames, parses parameterized specs in any of the accepted surface
// forms
//
//	meas            bare name, default parameters
//	meas.p1         single parameter, dot separator
//	meas_p1         single parameter, underscore separator
//	meas.p1,p2,p3   multiple parameters
//	meas_p1,p2,p3
//
// and merges parameter sets for repeated mentions of the same base
// measure. The canonical form is "meas" or "meas.p1,p2" with the
// parameters deduplicated and sorted ascending. An entry that matches
// nothing fails the whole call; no measures from the same call are
// kept.
func Normalize(raw []string) ([]string, error) {
	// Nickname expansion first. Entries that are not nicknames pass
	// through untouched; expansion is not recursive.
	expanded := make([]string, 0, len(raw))
	for _, m := range raw {
		if constituents, ok := Nicknames[m]; ok {
			expanded = append(expanded, constituents...)
		} else {
			expanded = append(expanded, m)
		}
	}

	// Accumulate parameter tokens per base measure. An exact match
	// against a known name is checked before the parameterized
	// patterns, so a bare base name never parses as parameters.
	params := make(map[string]map[string]struct{})
	for _, m := range expanded {
		if IsSupported(m) || IsNickname(m) {
			if _, ok := params[m]; !ok {
				params[m] = make(map[string]struct{})
			}
			continue
		}

		base, args, ok := matchParameterized(m)
		if !ok {
			return nil, &UnsupportedMeasureError{Measure: m}
		}
		if params[base] == nil {
			params[base] = make(map[string]struct{})
		}
		for _, a := range strings.Split(args, ",") {
			params[base][a] = struct{}{}
		}
	}

	// Re-serialize in the "meas.p1,p2" form the engine expects.
	out := make([]string, 0, len(params))
	for base, set := range params {
		if len(set) == 0 {
			out = append(out, base)
			continue
		}
		args := make([]string, 0, len(set))
		for a := range set {
			args = append(args, a)
		}
		sort.Strings(args)
		out = append(out, base+"."+strings.Join(args, ","))
	}
	sort.Strings(out)
	return out, nil
}

// matchParameterized resolves spec against the pattern
// <base>{.|_}<p1>[,p2,...]. Bases are tried in Supported order and the
// first match wins; prefix-sharing base names are intentionally
// disambiguated by that order alone.
func matchParameterized(spec string) (base, args string, ok bool) {
	for _, b := range Supported {
		rest, found := strings.CutPrefix(spec, b)
		if !found || len(rest) < 2 {
			continue
		}
		if rest[0] != '.' && rest[0] != '_' {
			continue
		}
		if !paramsRE.MatchString(rest[1:]) {
			continue
		}
		return b, rest[1:], true
	}
	return "", "", false
}
