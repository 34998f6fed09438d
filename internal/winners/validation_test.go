package winners

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr string
	}{
		{name: "valid com", address: "ada@example.com"},
		{name: "valid co.uk", address: "ada.lovelace@example.co.uk"},
		{name: "valid gmail", address: "ada@gmail.com"},
		{name: "empty", address: "", wantErr: "missing email"},
		{name: "no at", address: "ada.example.com", wantErr: "invalid email format"},
		{name: "no dot in domain", address: "ada@localhost", wantErr: "invalid email format"},
		{name: "multiple at", address: "ada@@example.com", wantErr: "multiple @"},
		{name: "con typo", address: "ada@example.con", wantErr: `".con" should probably be ".com"`},
		{name: "cok typo", address: "ada@example.cok", wantErr: `".co.uk"`},
		{name: "gmial typo", address: "ada@gmial.com", wantErr: `"gmail.com"`},
		{name: "typo check ignores case", address: "ADA@HOTMAL.COM", wantErr: `"hotmail.com"`},
		{name: "double dots", address: "ada..l@example.com", wantErr: "double dots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPartition(t *testing.T) {
	records := []Record{
		{Name: "Ada", Email: "ada@example.com", Row: 1},
		{Name: "Alan", Email: "alan@example.con", Row: 2},
		{Name: "Grace", Email: "grace@example.org", Row: 3},
	}

	valid, skipped := Partition(records)

	require.Len(t, valid, 2)
	assert.Equal(t, "Ada", valid[0].Name)
	assert.Equal(t, "Grace", valid[1].Name)

	require.Len(t, skipped, 1)
	assert.Equal(t, "Alan", skipped[0].Record.Name)
	assert.Contains(t, skipped[0].Reason, "likely typo")
}
