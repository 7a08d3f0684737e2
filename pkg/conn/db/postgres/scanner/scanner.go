package scanner

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
)

type Queryer interface {
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

// type-safe scanner for pgx.Rows
//
// # example
//
//		type Tally struct {
//			Species string
//			Count   int
//		}
//
//		func CountBySpecies(ctx context.Context, conn pgx.Conn) ([]Tally, error) {
//			rows, err := conn.Query(ctx, `select "species", count(*) as "count" from "predictions" group by "species"`)
//			if err != nil {
//				return nil, err
//			}
//			defer rows.Close()
//
//			return scanner.New[Tally]().ScanAll(rows)
//		}
//
//	example above is equiverent with below
//
//		func CountBySpecies(ctx context.Context, conn pgx.Conn) ([]Tally, error) {
//			return scanner.New[Tally]().QueryAll(ctx, conn, `select "species", count(*) as "count" from "predictions" group by "species"`)
//		}
//
// # mapping rule
//
//	columns are mapped into
//
//		1. field with tag `sql:"column_name"`
//		2. or, field named as same as the column name
//		3. or, field which has a name in CamelCase version of column name.
//
//	In case 3, next characters of underscores can be lower or upper,
//	but they should be consistent in a field.
//
//	For example, column named "aa_bb__cc___dd" is mapped into field
//
//		- with tag `sql:"aa_bb__cc___dd"`  (the most priority)
//		- named "aa_bb__cc___dd"
//		- named "AaBb_Cc__Dd"
//		- named "AaBb_cc__dd"  (the worst priority)
//
//	Note that "AaBb_cc__Dd" or "AaBb_Cc__dd" are ignored.
type Scanner[T any] interface {
	// scan all rows in pgx.Rows and convert to []T
	ScanAll(pgx.Rows) ([]T, error)

	// scan all rows in response of query.
	QueryAll(context.Context, Queryer, string, ...interface{}) ([]T, error)
}

type scanner[T any] struct {
	mapByTag       map[string]reflect.StructField
	mapByFieldName map[string]reflect.StructField
	mux            sync.Mutex
}

func New[T any]() Scanner[T] {

	val := *new(T)
	tval := reflect.TypeOf(val)

	// special case: timestamp or bytes columns
	if tval.AssignableTo(reflect.TypeOf(time.Time{})) || tval.AssignableTo(reflect.TypeOf([]byte{})) {
		return &singleColumnScanner[T]{mux: sync.Mutex{}}
	}

	switch tval.Kind() {
	case
		// primitives
		reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:

		return &singleColumnScanner[T]{mux: sync.Mutex{}}
	}

	// some structs.
	mapByTag := map[string]reflect.StructField{}
	mapByFieldName := map[string]reflect.StructField{}

	pt := reflect.ValueOf(*new(T)).Type()
	for i := 0; i < pt.NumField(); i++ {
		f := pt.Field(i)
		mapByFieldName[f.Name] = f
		if tag, ok := f.Tag.Lookup("sql"); ok {
			mapByTag[tag] = f
		}
	}

	return &scanner[T]{mapByTag: mapByTag, mapByFieldName: mapByFieldName, mux: sync.Mutex{}}
}

func camel(s string) string {
	b := &strings.Builder{}
	for _, ss := range strings.Split(s, "_") {
		if len(ss) == 0 {
			b.WriteString("_")
			continue
		}
		b.WriteString(strings.ToUpper(ss[0:1]))
		b.WriteString(ss[1:])
	}

	return b.String()
}

// like camel, but segments following underscore runs stay lowercased.
func camelLower(s string) string {
	b := &strings.Builder{}
	underscore := false
	for _, ss := range strings.Split(s, "_") {
		if len(ss) == 0 {
			b.WriteString("_")
			underscore = true
			continue
		}
		if underscore {
			b.WriteString(ss)
		} else {
			b.WriteString(strings.ToUpper(ss[0:1]))
			b.WriteString(ss[1:])
		}
		underscore = false
	}

	return b.String()
}

func (s *scanner[T]) ScanAll(rows pgx.Rows) ([]T, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	fields := make([]reflect.StructField, 0, len(rows.FieldDescriptions()))
	sqlColumns := rows.FieldDescriptions()
	for _, fd := range sqlColumns {
		col := string(fd.Name)

		var field reflect.StructField
		if f, ok := s.mapByTag[col]; ok {
			field = f
		} else if f, ok := s.mapByFieldName[col]; ok {
			field = f
		} else if f, ok := s.mapByFieldName[camel(col)]; ok {
			field = f
		} else if f, ok := s.mapByFieldName[camelLower(col)]; ok {
			field = f
		} else {
			return nil, fmt.Errorf(
				`field for column "%s" is not found in type "%T"`,
				col, *new(T),
			)
		}
		fields = append(fields, field)
	}

	ret := make([]T, 0, rows.CommandTag().RowsAffected())
	for rows.Next() {
		elem := new(T)
		re := reflect.ValueOf(elem)
		rr := reflect.ValueOf(rows)

		fldPtr := make([]reflect.Value, len(fields))
		for nth, f := range fields {
			fldPtr[nth] = re.Elem().FieldByName(f.Name).Addr()
		}

		rret := rr.MethodByName("Scan").Call(fldPtr)
		if len(rret) != 1 {
			return nil, fmt.Errorf("unexpected return value from pgx.Rows.Scan: %v", rret)
		}
		if err, ok := rret[0].Interface().(error); ok {
			if err != nil {
				return nil, err
			}
		}
		ret = append(ret, *elem)
	}
	return ret, nil
}

func (s *scanner[T]) QueryAll(ctx context.Context, conn Queryer, q string, params ...interface{}) ([]T, error) {
	rows, err := conn.Query(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.ScanAll(rows)
}

type singleColumnScanner[T any] struct {
	mux sync.Mutex
}

func (s *singleColumnScanner[T]) ScanAll(rows pgx.Rows) ([]T, error) {

	sqlColumns := rows.FieldDescriptions()
	if len(sqlColumns) != 1 {
		name := reflect.ValueOf(*new(T)).Type().Name()
		return nil, fmt.Errorf(`too much columns for %s`, name)
	}

	ret := make([]T, 0, rows.CommandTag().RowsAffected())
	for rows.Next() {
		elem := new(T)
		field := reflect.ValueOf(elem).Elem()

		sqlValues, err := rows.Values()
		if err != nil {
			return nil, err
		}

		for nth, sqlv := range sqlValues {
			if _sqlv := reflect.ValueOf(sqlv); !_sqlv.CanConvert(field.Type()) {
				return nil, fmt.Errorf(
					`field "%s" (type: %s in sql, %T in golang) can not be convert to "%T"`,
					sqlColumns[nth].Name, pgOID2String(sqlColumns[nth].DataTypeOID), sqlv, *elem,
				)
			}
			v := reflect.ValueOf(sqlv).Convert(field.Type())
			field.Set(v)
		}

		ret = append(ret, *elem)
	}
	return ret, nil
}

func (s *singleColumnScanner[T]) QueryAll(ctx context.Context, conn Queryer, q string, params ...interface{}) ([]T, error) {
	rows, err := conn.Query(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return s.ScanAll(rows)
}

func pgOID2String(oid uint32) string {
	switch oid {
	case pgtype.BoolOID:
		return "bool"
	case pgtype.ByteaOID:
		return "bytea"
	case pgtype.Int8OID:
		return "int8"
	case pgtype.Int2OID:
		return "int2"
	case pgtype.Int4OID:
		return "int4"
	case pgtype.TextOID:
		return "text"
	case pgtype.JSONOID:
		return "json"
	case pgtype.JSONBOID:
		return "jsonb"
	case pgtype.Float4OID:
		return "float4"
	case pgtype.Float8OID:
		return "float8"
	case pgtype.UnknownOID:
		return "unknown"
	case pgtype.BPCharOID:
		return "bpchar"
	case pgtype.VarcharOID:
		return "varchar"
	case pgtype.DateOID:
		return "date"
	case pgtype.TimeOID:
		return "time"
	case pgtype.TimestampOID:
		return "timestamp"
	case pgtype.TimestamptzOID:
		return "timestamptz"
	case pgtype.IntervalOID:
		return "interval"
	case pgtype.NumericOID:
		return "numeric"
	case pgtype.UUIDOID:
		return "uuid"
	case pgtype.TextArrayOID:
		return "text[]"
	case pgtype.Int4ArrayOID:
		return "int4[]"
	case pgtype.Int8ArrayOID:
		return "int8[]"
	case pgtype.Float8ArrayOID:
		return "float8[]"
	case pgtype.TimestamptzArrayOID:
		return "timestamptz[]"
	}

	return fmt.Sprintf("undefined oid(%d)", oid)
}
