package dtype

import "reflect"

var kinds = map[reflect.Kind]Code{
	reflect.Bool:    Bool,
	reflect.Uint8:   Uint8,
	reflect.Int16:   Int16,
	reflect.Uint16:  Uint16,
	reflect.Int32:   Int32,
	reflect.Uint32:  Uint32,
	reflect.Int64:   Int64,
	reflect.Uint64:  Uint64,
	reflect.Float32: Float32,
	reflect.Float64: Float64,
}

func codeOfKind(v any) Code {
	return kinds[reflect.TypeOf(v).Kind()]
}
