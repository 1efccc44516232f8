// filter.go — компиляция фильтров по полям документа в SQL-условия
// над JSONB. Поддерживаются операторы eq/ne/lt/lte/gt/gte по строкам,
// числам, булевым значениям и времени.
package store

import (
	"fmt"
	"strings"
	"time"
)

// Op — оператор сравнения в условии фильтра.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "<>"
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

// Cond — одно условие фильтра: поле документа, оператор, значение.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter — конъюнкция условий (AND).
type Filter []Cond

// Eq, Ne, Lt, Lte, Gt, Gte — конструкторы условий.
func Eq(field string, v any) Cond  { return Cond{Field: field, Op: OpEq, Value: v} }
func Ne(field string, v any) Cond  { return Cond{Field: field, Op: OpNe, Value: v} }
func Lt(field string, v any) Cond  { return Cond{Field: field, Op: OpLt, Value: v} }
func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: v} }
func Gt(field string, v any) Cond  { return Cond{Field: field, Op: OpGt, Value: v} }
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }

// FindOptions управляют сортировкой и лимитом выборки.
// SortNumeric нужен числовым полям: текстовая сортировка JSONB
// поставила бы "10" раньше "9".
type FindOptions struct {
	SortField   string
	SortDesc    bool
	SortNumeric bool
	Limit       int
}

// jsonPath превращает dot-path в выражение доступа к JSONB.
// "profile.city" → doc #>> '{profile,city}'
func jsonPath(field string) string {
	parts := strings.Split(field, ".")
	return fmt.Sprintf("doc #>> '{%s}'", strings.Join(parts, ","))
}

// typedExpr приводит текстовое значение JSONB к типу значения условия,
// чтобы числа и время сравнивались не как строки.
func typedExpr(field string, value any) string {
	path := jsonPath(field)
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return fmt.Sprintf("(%s)::numeric", path)
	case bool:
		return fmt.Sprintf("(%s)::boolean", path)
	case time.Time:
		return fmt.Sprintf("(%s)::timestamptz", path)
	default:
		return path
	}
}

// compile строит WHERE-фрагмент и аргументы запроса.
// Нумерация плейсхолдеров начинается с argOffset+1.
func (f Filter) compile(argOffset int) (string, []any) {
	if len(f) == 0 {
		return "TRUE", nil
	}

	clauses := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for _, c := range f {
		args = append(args, normalizeArg(c.Value))
		clauses = append(clauses, fmt.Sprintf("%s %s $%d",
			typedExpr(c.Field, c.Value), c.Op, argOffset+len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// normalizeArg приводит аргумент к виду, сравнимому с текстом JSONB.
func normalizeArg(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t
	case bool:
		return t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}

// orderBy строит ORDER BY для опций поиска. Пустая строка — без сортировки.
func (o *FindOptions) orderBy() string {
	if o == nil || o.SortField == "" {
		return ""
	}
	dir := "ASC"
	if o.SortDesc {
		dir = "DESC"
	}
	expr := jsonPath(o.SortField)
	if o.SortNumeric {
		expr = "(" + expr + ")::numeric"
	}
	return fmt.Sprintf(" ORDER BY %s %s", expr, dir)
}

func (o *FindOptions) limit() string {
	if o == nil || o.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", o.Limit)
}
