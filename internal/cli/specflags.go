package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/speccache/expr/parse"
	"github.com/unkn0wn-root/speccache/internal/demo"
	"github.com/unkn0wn-root/speccache/spec"
)

// specOptions are the flags that describe an order specification.
type specOptions struct {
	Where     string
	Vars      map[string]string
	OrderBy   string
	Desc      bool
	Skip      int
	Take      int
	Includes  []string
	Cache     time.Duration
	Untracked bool
}

func (o *specOptions) addFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.Where, "where", "w", "", `predicate, e.g. 'o => o.Status == $status'`)
	f.StringToStringVar(&o.Vars, "var", nil, "predicate variables, e.g. --var status=Paid")
	f.StringVar(&o.OrderBy, "order-by", "", "ordering key, e.g. 'o => o.CreatedAt'")
	f.BoolVar(&o.Desc, "desc", false, "descending order")
	f.IntVar(&o.Skip, "skip", 0, "rows to skip")
	f.IntVar(&o.Take, "take", 0, "rows to return; 0 disables paging")
	f.StringSliceVar(&o.Includes, "include", nil, "relations to load, e.g. Customer")
	f.DurationVar(&o.Cache, "cache", spec.DefaultCacheDuration, "cache duration; 0 disables caching")
	f.BoolVar(&o.Untracked, "untracked", false, "mark the specification untracked")
}

func (o *specOptions) build() (*spec.Spec[*demo.Order], error) {
	vars := make(parse.Vars, len(o.Vars))
	for k, v := range o.Vars {
		vars[k] = varValue(v)
	}

	b := spec.For[*demo.Order]()
	if o.Where != "" {
		l, err := parse.Lambda(o.Where, vars)
		if err != nil {
			return nil, fmt.Errorf("--where: %w", err)
		}
		b.Where(l)
	}
	if o.OrderBy != "" {
		l, err := parse.Lambda(o.OrderBy, vars)
		if err != nil {
			return nil, fmt.Errorf("--order-by: %w", err)
		}
		if o.Desc {
			b.OrderByDescending(l)
		} else {
			b.OrderBy(l)
		}
	}
	for _, p := range o.Includes {
		b.IncludePath(p)
	}
	if o.Skip != 0 || o.Take != 0 {
		b.Page(o.Skip, o.Take)
	}
	if o.Untracked {
		b.Untracked()
	}
	if o.Cache > 0 {
		b.Cached(o.Cache)
	}
	return b.Build(), nil
}

// varValue types a --var value: integers, then floats, then booleans,
// otherwise the string itself.
func varValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
