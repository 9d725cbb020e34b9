// Package corpus provides small reference knowledge bases used by the
// benchmark command, the examples and the tests.
package corpus

import (
	"strconv"

	"github.com/cognicore/horn/pkg/horn/logic"
)

// Criminal is the classic "Colonel West" knowledge base: it is a crime for
// an American to sell weapons to hostile nations.
//
// Variables are not yet standardized apart across rules.
func Criminal() logic.KB {
	return logic.KB{Rules: []logic.Rule{
		{
			Conditions: []logic.Atom{
				logic.P("american", logic.V("x")),
				logic.P("weapon", logic.V("y")),
				logic.P("sells", logic.V("x"), logic.V("y"), logic.V("z")),
				logic.P("hostile", logic.V("z")),
			},
			Conclusion: logic.P("criminal", logic.V("x")),
		},
		{
			Conditions: []logic.Atom{
				logic.P("missile", logic.V("x")),
				logic.P("owns", logic.C("nono"), logic.V("x")),
			},
			Conclusion: logic.P("sells", logic.C("west"), logic.V("x"), logic.C("nono")),
		},
		{
			Conditions: []logic.Atom{logic.P("missile", logic.V("x"))},
			Conclusion: logic.P("weapon", logic.V("x")),
		},
		{
			Conditions: []logic.Atom{logic.P("enemy", logic.V("x"), logic.C("america"))},
			Conclusion: logic.P("hostile", logic.V("x")),
		},
		{Conclusion: logic.P("owns", logic.C("nono"), logic.C("m1"))},
		{Conclusion: logic.P("missile", logic.C("m1"))},
		{Conclusion: logic.P("american", logic.C("west"))},
		{Conclusion: logic.P("enemy", logic.C("nono"), logic.C("america"))},
	}}
}

// Arithmetic is a small theory of ≤ over symbolic sums, with transitivity,
// monotonicity and commutativity rules that make the search branch heavily.
func Arithmetic() logic.KB {
	return logic.KB{Rules: []logic.Rule{
		{Conclusion: logic.P("leq", logic.C("zero"), logic.C("three"))},
		{Conclusion: logic.P("leq", logic.C("seven"), logic.C("nine"))},
		{Conclusion: logic.P("leq", logic.V("x"), logic.F("add", logic.V("x"), logic.C("zero")))},
		{Conclusion: logic.P("leq", logic.F("add", logic.V("x"), logic.C("zero")), logic.V("x"))},
		{
			Conditions: []logic.Atom{
				logic.P("leq", logic.V("x"), logic.V("y")),
				logic.P("leq", logic.V("y"), logic.V("z")),
			},
			Conclusion: logic.P("leq", logic.V("x"), logic.V("z")),
		},
		{
			Conditions: []logic.Atom{
				logic.P("leq", logic.V("w"), logic.V("y")),
				logic.P("leq", logic.V("x"), logic.V("z")),
			},
			Conclusion: logic.P("leq", logic.F("add", logic.V("w"), logic.V("x")), logic.F("add", logic.V("y"), logic.V("z"))),
		},
		{Conclusion: logic.P("leq", logic.V("x"), logic.V("x"))},
		{Conclusion: logic.P("leq", logic.F("add", logic.V("x"), logic.V("y")), logic.F("add", logic.V("y"), logic.V("x")))},
	}}
}

// ArithmeticGoal is the statement benchmarked against Arithmetic.
func ArithmeticGoal() logic.Atom {
	return logic.P("leq", logic.C("seven"), logic.F("add", logic.C("three"), logic.C("nine")))
}

// Chain builds p0(a) and n rules p<i>(x) :- p<i-1>(x); proving p<n>(a)
// needs a depth of exactly n.
func Chain(n int) (logic.KB, logic.Atom) {
	rules := []logic.Rule{{Conclusion: logic.P(chainPred(0), logic.C("a"))}}
	for i := 1; i <= n; i++ {
		rules = append(rules, logic.Rule{
			Conditions: []logic.Atom{logic.P(chainPred(i-1), logic.V("x"))},
			Conclusion: logic.P(chainPred(i), logic.V("x")),
		})
	}
	return logic.KB{Rules: rules}, logic.P(chainPred(n), logic.C("a"))
}

func chainPred(i int) string {
	return "p" + strconv.Itoa(i)
}
