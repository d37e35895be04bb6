package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in     string
		want   DocType
		wantOK bool
	}{
		{"invoice", Invoice, true},
		{"  Medical_Bill\n", MedicalBill, true},
		{"This looks like a PRESCRIPTION.", Prescription, true},
		{"receipt", Invoice, false},
		{"", Invoice, false},
	}
	for _, tt := range tests {
		got, ok := Canonicalize(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestFieldsFor_ReturnsCopy(t *testing.T) {
	fields := FieldsFor(Invoice)
	fields[0] = "changed"
	assert.Equal(t, "vendor_name", DefaultFields[Invoice][0])
	assert.Nil(t, FieldsFor("unknown"))
}

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, PDF, MapExtToFormat(".PDF"))
	assert.Equal(t, IMAGE, MapExtToFormat("jpeg"))
	assert.Equal(t, "", MapExtToFormat(".heic"))
}

func TestParseDocType(t *testing.T) {
	got, ok := ParseDocType("Prescription")
	assert.True(t, ok)
	assert.Equal(t, Prescription, got)
	_, ok = ParseDocType("receipt")
	assert.False(t, ok)
}
