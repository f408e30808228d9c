package parse

//nolint:govet // Participle struct tags are DSL, not reflect tags
type lambdaNode struct {
	Param string       `@Ident "=>"`
	Body  *ternaryNode `@@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type ternaryNode struct {
	Cond *orNode      `@@`
	Then *ternaryNode `( "?" @@`
	Else *ternaryNode `  ":" @@ )?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type orNode struct {
	Left  *andNode   `@@`
	Right []*andNode `( "||" @@ )*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type andNode struct {
	Left  *cmpNode   `@@`
	Right []*cmpNode `( "&&" @@ )*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type cmpNode struct {
	Left  *addNode `@@`
	Op    string   `( @("==" | "!=" | "<=" | ">=" | "<" | ">")`
	Right *addNode `  @@ )?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type addNode struct {
	Left *mulNode `@@`
	Rest []*addOp `@@*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type addOp struct {
	Op string   `@("+" | "-")`
	X  *mulNode `@@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type mulNode struct {
	Left *unaryNode `@@`
	Rest []*mulOp   `@@*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type mulOp struct {
	Op string     `@("*" | "/" | "%")`
	X  *unaryNode `@@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type unaryNode struct {
	Op      string       `  @("!" | "-")`
	X       *unaryNode   `  @@`
	Postfix *postfixNode `| @@`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type postfixNode struct {
	Primary   *primaryNode    `@@`
	Selectors []*selectorNode `@@*`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type selectorNode struct {
	Name string    `"." @Ident`
	Call *callNode `@@?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type callNode struct {
	Open bool           `@"("`
	Args []*ternaryNode `( @@ ( "," @@ )* )? ")"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type listNode struct {
	Open  bool           `@"{"`
	Items []*ternaryNode `( @@ ( "," @@ )* )? "}"`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type identNode struct {
	Name string    `@Ident`
	Call *callNode `@@?`
}

//nolint:govet // Participle struct tags are DSL, not reflect tags
type primaryNode struct {
	Float  *float64     `  @Float`
	Int    *int64       `| @Int`
	String *string      `| @String`
	Bool   string       `| @("true" | "false")`
	Null   bool         `| @"null"`
	Var    string       `| "$" @Ident`
	List   *listNode    `| @@`
	Ident  *identNode   `| @@`
	Sub    *ternaryNode `| "(" @@ ")"`
}
