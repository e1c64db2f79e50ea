package resp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tresp "github.com/tidwall/resp"
)

// ============================================================
// Interoperability with a third-party RESP2 implementation
// ============================================================

func TestInterop_EncodedCommandsReadByTidwall(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Encode(NewArray("set", "user:1", "alice")))
	buf.Write(Encode(NewArray("hget", "user:1", "name")))
	buf.Write(Encode(NullBulkString{}))
	buf.Write(Encode(SimpleString("OK")))

	rd := tresp.NewReader(&buf)

	v, _, err := rd.ReadValue()
	require.NoError(t, err)
	require.Equal(t, tresp.Array, v.Type())
	args := v.Array()
	require.Len(t, args, 3)
	assert.Equal(t, "set", args[0].String())
	assert.Equal(t, "user:1", args[1].String())
	assert.Equal(t, []byte("alice"), args[2].Bytes())

	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	require.Equal(t, tresp.Array, v.Type())
	assert.Len(t, v.Array(), 3)

	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, _, err = rd.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, tresp.SimpleString, v.Type())
	assert.Equal(t, "OK", v.String())
}

func TestInterop_TidwallCommandsDecoded(t *testing.T) {
	cmd := tresp.ArrayValue([]tresp.Value{
		tresp.StringValue("hset"),
		tresp.StringValue("user:1"),
		tresp.StringValue("name"),
		tresp.BytesValue([]byte("bob\r\n")),
	})
	raw, err := cmd.MarshalRESP()
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(raw)
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, Array{
		BulkString("hset"),
		BulkString("user:1"),
		BulkString("name"),
		BulkString("bob\r\n"),
	}, got)
	assert.Zero(t, buf.Len())
}
