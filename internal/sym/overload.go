package sym

// ConversionRank classifies how an argument type reaches a parameter type,
// used to score candidates during overload selection.
type ConversionRank int

const (
	RankExact ConversionRank = iota
	RankImplicitNative
	RankImplicitUser
	RankNoConversion // candidate rejected
)

// ConversionRanker is supplied by the binder (4.F) so that sym, which knows
// nothing about conversion tables, can still drive ranking.
type ConversionRanker interface {
	Rank(from, to *Symbol) ConversionRank
}

// defaultRanker treats only identical types as viable; used when the
// caller (tests, or resolution paths with no argument types) doesn't
// supply a real ranker.
type defaultRanker struct{}

func (defaultRanker) Rank(from, to *Symbol) ConversionRank {
	if from == to {
		return RankExact
	}
	return RankNoConversion
}

// SelectOverload ranks candidates against argTypes and returns the unique
// best match, per spec.md 4.A:
//  1. reject candidates whose parameter count differs from len(argTypes)
//  2. reject candidates where any argument doesn't implicitly convert
//  3. rank by (a) fewest implicit conversions required, (b) no user-defined
//     conversions, (c) fail AmbiguousOverload on a tie
func SelectOverload(candidates []*Symbol, argTypes []*Symbol) (*Symbol, error) {
	return selectOverload(candidates, argTypes, defaultRanker{})
}

// SelectOverloadRanked is SelectOverload with an explicit conversion ranker,
// used by the binder which knows the native/user conversion tables.
func SelectOverloadRanked(candidates []*Symbol, argTypes []*Symbol, ranker ConversionRanker) (*Symbol, error) {
	return selectOverload(candidates, argTypes, ranker)
}

func selectOverload(candidates []*Symbol, argTypes []*Symbol, ranker ConversionRanker) (*Symbol, error) {
	if len(candidates) == 1 && argTypes == nil {
		return candidates[0], nil
	}

	type scored struct {
		sym          *Symbol
		conversions  int
		anyUserConv  bool
	}

	var viable []scored
	for _, c := range candidates {
		if len(c.Params) != len(argTypes) {
			continue
		}
		conversions := 0
		anyUser := false
		ok := true
		for i, arg := range argTypes {
			rank := ranker.Rank(arg, c.Params[i].Type)
			switch rank {
			case RankExact:
				// no-op
			case RankImplicitNative:
				conversions++
			case RankImplicitUser:
				conversions++
				anyUser = true
			default:
				ok = false
			}
			if !ok {
				break
			}
		}
		if ok {
			viable = append(viable, scored{c, conversions, anyUser})
		}
	}

	if len(viable) == 0 {
		return nil, newErr(ErrArgCountMismatch, "no viable overload for %d argument(s)", len(argTypes))
	}
	if len(viable) == 1 {
		return viable[0].sym, nil
	}

	best := viable[0]
	ambiguous := false
	for _, v := range viable[1:] {
		switch {
		case v.conversions < best.conversions:
			best, ambiguous = v, false
		case v.conversions > best.conversions:
			// worse, skip
		case !v.anyUserConv && best.anyUserConv:
			best, ambiguous = v, false
		case v.anyUserConv == best.anyUserConv:
			ambiguous = true
		}
	}

	if ambiguous {
		return nil, newErr(ErrAmbiguousOverload, "ambiguous overload among %d candidates", len(viable))
	}
	return best.sym, nil
}
