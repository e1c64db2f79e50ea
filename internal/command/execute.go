package command

import "github.com/yndnr/respkv/internal/resp"

func (c Get) Execute(b Backend) resp.Frame {
	if v, ok := b.Get(c.Key); ok {
		return v
	}
	return resp.Null{}
}

func (c Set) Execute(b Backend) resp.Frame {
	b.Set(c.Key, c.Value)
	return resp.OK
}

func (c HGet) Execute(b Backend) resp.Frame {
	if v, ok := b.HGet(c.Key, c.Field); ok {
		return v
	}
	return resp.Null{}
}

func (c HSet) Execute(b Backend) resp.Frame {
	b.HSet(c.Key, c.Field, c.Value)
	return resp.OK
}

// Execute returns a Map of the hash's fields. A missing key yields an
// empty Array, not an empty Map; clients depend on that distinction.
func (c HGetAll) Execute(b Backend) resp.Frame {
	fields, ok := b.HGetAll(c.Key)
	if !ok {
		return resp.Array{}
	}
	return resp.Map(fields)
}

func (Unrecognized) Execute(Backend) resp.Frame {
	return resp.OK
}
