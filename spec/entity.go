package spec

import "reflect"

// PrimaryKeyer lets an entity name its primary key field. Entities that do
// not implement it are keyed by "ID".
type PrimaryKeyer interface {
	PrimaryKey() string
}

func entityType[E any]() reflect.Type {
	t := reflect.TypeOf((*E)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName returns the fully qualified name of E, e.g. "example.com/shop.Order".
func TypeName[E any]() string {
	t := entityType[E]()
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// SimpleName returns the unqualified name of E, e.g. "Order".
func SimpleName[E any]() string {
	t := entityType[E]()
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}

// PrimaryKey returns the primary key field name of E.
// A pointer E resolves through its element type.
func PrimaryKey[E any]() string {
	v := reflect.New(entityType[E]())
	if pk, ok := v.Interface().(PrimaryKeyer); ok {
		return pk.PrimaryKey()
	}
	return "ID"
}
