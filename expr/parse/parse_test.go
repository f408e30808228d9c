package parse

import (
	"testing"

	"github.com/unkn0wn-root/speccache/expr"
)

func format(t *testing.T, src string, vars Vars) string {
	t.Helper()
	l, err := Lambda(src, vars)
	if err != nil {
		t.Fatalf("Lambda(%q): %v", src, err)
	}
	pe, err := expr.PartialEval(l, nil)
	if err != nil {
		t.Fatalf("PartialEval: %v", err)
	}
	ex, err := expr.ExpandCollections(pe)
	if err != nil {
		t.Fatalf("ExpandCollections: %v", err)
	}
	s, err := expr.Format(ex, "Order")
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	return s
}

func TestLambda_MatchesBuilder(t *testing.T) {
	got := format(t, `o => o.Status == "Paid" && o.Total > 10`, nil)
	built := expr.NewLambda("x", func(x expr.Ref) expr.Operand {
		return x.Field("Status").Eq("Paid").And(x.Field("Total").Gt(int64(10)))
	})
	want, _ := expr.Format(built, "Order")
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestLambda_Precedence(t *testing.T) {
	cases := []struct{ src, want string }{
		{`o => o.A || o.B && o.C`, `(Order.A || (Order.B && Order.C))`},
		{`o => o.N + 2 * 3 > 7`, `((Order.N + 6) > 7)`},
		{`o => !(o.N < 1)`, `!(Order.N < 1)`},
		{`o => o.N > 0 ? "pos" : "neg"`, `IIF((Order.N > 0), "pos", "neg")`},
		{`o => o.Name.ToLower().StartsWith("a")`, `Order.Name.ToLower().StartsWith("a")`},
		{`o => -o.N == -1.5`, `(-Order.N == -1.5)`},
	}
	for _, tc := range cases {
		if got := format(t, tc.src, nil); got != tc.want {
			t.Fatalf("%s:\ngot  %s\nwant %s", tc.src, got, tc.want)
		}
	}
}

func TestLambda_Variables(t *testing.T) {
	vars := Vars{"ids": []int64{1, 2, 3}, "status": "Paid"}
	got := format(t, `o => Contains($ids, o.ID) && o.Status == $status`, vars)
	want := `(Contains({1|2|3}, Order.ID) && (Order.Status == "Paid"))`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestLambda_ListLiteral(t *testing.T) {
	got := format(t, `o => {1, 2}.Contains(o.ID)`, nil)
	if got != `new list(1, 2).Contains(Order.ID)` {
		t.Fatalf("got %s", got)
	}
	l := MustLambda(`o => {1, 2}.Contains(o.ID)`, nil)
	ok, err := expr.EvalBool(l, map[string]any{"ID": int64(2)})
	if err != nil || !ok {
		t.Fatalf("EvalBool = %v, %v", ok, err)
	}
}

func TestLambda_Errors(t *testing.T) {
	for _, src := range []string{
		`o => x.Status == 1`,
		`o => o.Status.Nope()`,
		`o => o.Status.StartsWith()`,
		`o => $missing == 1`,
		`o => o.Status ==`,
		`o o.Status`,
	} {
		if _, err := Lambda(src, nil); err == nil {
			t.Fatalf("%s: expected error", src)
		}
	}
}
