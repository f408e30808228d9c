package query

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/unkn0wn-root/speccache/expr"
	"github.com/unkn0wn-root/speccache/spec"
)

type Order struct {
	ID        int64
	Status    string
	CreatedAt time.Time
}

// recorder is a Query that records every stage applied to it.
type recorder struct {
	ops *[]string
}

func (r recorder) add(op string) Query[Order] {
	*r.ops = append(*r.ops, op)
	return r
}

func (r recorder) Where(p *expr.Lambda) Query[Order] {
	s, _ := expr.Format(p, "")
	return r.add("Where " + s)
}

func (r recorder) Include(p *expr.Lambda) Query[Order] {
	s, _ := expr.Path(p)
	return r.add("Include " + s)
}

func (r recorder) IncludePath(p string) Query[Order] { return r.add("IncludePath " + p) }

func (r recorder) OrderBy(k *expr.Lambda, asc bool) Query[Order] {
	s, _ := expr.Path(k)
	return r.add(fmt.Sprintf("OrderBy %s asc=%v", s, asc))
}

func (r recorder) AsNoTracking() Query[Order] { return r.add("AsNoTracking") }
func (r recorder) Skip(n int) Query[Order]    { return r.add(fmt.Sprintf("Skip %d", n)) }
func (r recorder) Take(n int) Query[Order]    { return r.add(fmt.Sprintf("Take %d", n)) }

func (r recorder) List(context.Context) ([]Order, error) { return nil, nil }
func (r recorder) Count(context.Context) (int, error)    { return 0, nil }

type recordingSource struct {
	ops []string
	pk  string
}

func (s *recordingSource) Query() Query[Order] { return recorder{ops: &s.ops} }
func (s *recordingSource) PrimaryKey() string  { return s.pk }

func plan(t *testing.T, s *spec.Spec[Order], pk string) []string {
	t.Helper()
	src := &recordingSource{pk: pk}
	if _, err := Plan(s, src); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	return src.ops
}

func TestPlan_Scenario(t *testing.T) {
	s := spec.For[Order]().
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("Status").Eq("Paid") })).
		OrderByDescending(expr.Member("o", "CreatedAt")).
		Page(0, 10).
		Cached(30 * time.Second).
		Build()
	got := plan(t, s, "ID")
	want := []string{
		`Where (o.Status == "Paid")`,
		"OrderBy CreatedAt asc=false",
		"Skip 0",
		"Take 10",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestPlan_PagingWithoutOrderUsesPrimaryKey(t *testing.T) {
	got := plan(t, spec.For[Order]().Page(20, 10).Build(), "ID")
	want := []string{"OrderBy ID asc=true", "Skip 20", "Take 10"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
	got = plan(t, spec.For[Order]().Page(5, 0).Build(), "")
	want = []string{"OrderBy ID asc=true", "Skip 5"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestPlan_FullPipelineOrder(t *testing.T) {
	s := spec.For[Order]().
		IncludePath("Lines").
		Include(expr.Member("o", "Customer")).
		Where(expr.NewLambda("o", func(o expr.Ref) expr.Operand { return o.Field("ID").Gt(1) })).
		OrderBy(expr.Member("o", "Status")).
		Untracked().
		Build()
	got := plan(t, s, "ID")
	want := []string{
		"Where (o.ID > 1)",
		"Include Customer",
		"IncludePath Lines",
		"OrderBy Status asc=true",
		"AsNoTracking",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestPlan_EmptySpecIsUntouched(t *testing.T) {
	if got := plan(t, spec.For[Order]().Build(), "ID"); len(got) != 0 {
		t.Fatalf("got %q", got)
	}
}

func TestPlan_InvalidArguments(t *testing.T) {
	if _, err := Plan[Order](nil, &recordingSource{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil spec: %v", err)
	}
	if _, err := Plan[Order](spec.For[Order]().Build(), nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil source: %v", err)
	}
}

func TestTracker(t *testing.T) {
	tr := NewTracker[*Order]("ID")
	a := &Order{ID: 1, Status: "a"}
	b := &Order{ID: 1, Status: "b"}
	if tr.Track(a) != a || tr.Track(b) != a {
		t.Fatalf("tracker must return the first instance")
	}
	if tr.Len() != 1 {
		t.Fatalf("Len = %d", tr.Len())
	}
	tr.Reset()
	if tr.Track(b) != b {
		t.Fatalf("Reset must forget instances")
	}
}
