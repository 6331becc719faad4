package importer

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeParser_Parse(t *testing.T) {
	f, err := os.Open("../../testdata/statement.csv")
	require.NoError(t, err)
	defer f.Close()

	txns, err := (&NativeParser{}).Parse(f)
	require.NoError(t, err)
	require.Len(t, txns, 4)

	assert.Equal(t, "st-001", txns[0].ID)
	assert.Equal(t, "3500.00", txns[0].Credit.StringFixed(2))
	assert.True(t, txns[0].Debit.IsZero())
	assert.Equal(t, "4.00", txns[1].Debit.StringFixed(2))
	assert.Equal(t, 31, txns[3].Date.Day())
}

func TestNativeParser_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad date", "id,date,description,debit,credit\ns1,01/02/2025,x,1,\n", "parsing date"},
		{"bad amount", "id,date,description,debit,credit\ns1,2025-01-02,x,abc,\n", "parsing amount"},
		{"negative", "id,date,description,debit,credit\ns1,2025-01-02,x,-5,\n", "negative amount"},
		{"missing id", "id,date,description,debit,credit\n,2025-01-02,x,5,\n", "missing id"},
		{"duplicate id", "id,date,description,debit,credit\ns1,2025-01-02,x,5,\ns1,2025-01-03,y,,2\n", "duplicate id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&NativeParser{}).Parse(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNativeParser_HeaderOnly(t *testing.T) {
	txns, err := (&NativeParser{}).Parse(strings.NewReader("id,date,description,debit,credit\n"))
	require.NoError(t, err)
	assert.Nil(t, txns)
}

func TestWriteNative_RoundTrip(t *testing.T) {
	data, err := os.ReadFile("../../testdata/statement.csv")
	require.NoError(t, err)
	txns, err := (&NativeParser{}).Parse(bytes.NewReader(data))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteNative(&buf, txns))
	assert.Equal(t, string(data), buf.String())
}
