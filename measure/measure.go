// Package measure implements the trec_eval measure vocabulary,
// measure-specification normalization and cross-query aggregation.
package measure

// Supported lists the base measure names understood by the evaluation
// engine, in engine enumeration order. The order is load-bearing:
// parameterized specs are resolved by a linear first-match scan over
// this slice, so when two base names share a prefix the earlier one
// wins.
var Supported = []string{
	"runid",
	"num_q",
	"num_ret",
	"num_rel",
	"num_rel_ret",
	"map",
	"gm_map",
	"Rprec",
	"bpref",
	"recip_rank",
	"iprec_at_recall",
	"P",
	"relstring",
	"recall",
	"infAP",
	"gm_bpref",
	"Rprec_mult",
	"utility",
	"11pt_avg",
	"binG",
	"G",
	"ndcg",
	"ndcg_rel",
	"Rndcg",
	"ndcg_cut",
	"relative_P",
	"success",
	"set_P",
	"set_relative_P",
	"set_recall",
	"set_map",
	"set_F",
	"num_nonrel_judged_ret",
	"map_cut",
}

// Nicknames maps shorthand names to the measure sets they expand to.
// Constituents may themselves carry parameters; expansion is a single
// level deep.
var Nicknames = map[string][]string{
	"official": {
		"runid", "num_q", "num_ret", "num_rel", "num_rel_ret",
		"map", "gm_map", "Rprec", "bpref", "recip_rank",
		"iprec_at_recall", "P",
	},
	"all_trec": Supported,
	"set": {
		"num_q", "num_ret", "num_rel", "num_rel_ret",
		"set_P", "set_relative_P", "set_recall", "set_map", "set_F",
	},
}

var supportedSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(Supported))
	for _, m := range Supported {
		s[m] = struct{}{}
	}
	return s
}()

// IsSupported reports whether name is a known base measure.
func IsSupported(name string) bool {
	_, ok := supportedSet[name]
	return ok
}

// IsNickname reports whether name is a known measure nickname.
func IsNickname(name string) bool {
	_, ok := Nicknames[name]
	return ok
}
