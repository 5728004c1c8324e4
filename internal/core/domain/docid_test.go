package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDocumentID_Deterministic(t *testing.T) {
	content := []byte("the same bytes")

	id1 := NewDocumentID("Smith2020Paper", content)
	id2 := NewDocumentID("Smith2020Paper", content)

	assert.Equal(t, id1, id2)
	assert.True(t, ValidDocumentID(id1))
}

func TestNewDocumentID_ContentChangesHash(t *testing.T) {
	id1 := NewDocumentID("Smith2020Paper", []byte("version one"))
	id2 := NewDocumentID("Smith2020Paper", []byte("version two"))

	assert.NotEqual(t, id1, id2)
}

func TestNewDocumentID_Format(t *testing.T) {
	id := NewDocumentID("Vaswani2017Attention", []byte("pdf bytes"))

	assert.Regexp(t, `^Vaswani2017Attention_[a-f0-9]{12}$`, id)
}

func TestSanitizeCiteKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already safe", in: "Smith2020Paper", want: "Smith2020Paper"},
		{name: "spaces replaced", in: "Smith 2020 Paper", want: "Smith_2020_Paper"},
		{name: "specials replaced", in: "Smith&Jones(2020)", want: "Smith_Jones_2020"},
		{name: "runs collapsed", in: "a!!!b", want: "a_b"},
		{name: "edges trimmed", in: "!Smith2020!", want: "Smith2020"},
		{name: "dots and dashes kept", in: "v1.2-final", want: "v1.2-final"},
		{name: "unicode replaced", in: "Müller2019", want: "M_ller2019"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeCiteKey(tt.in))
		})
	}
}

func TestValidDocumentID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "valid", id: "Smith2020Paper_0123456789ab", want: true},
		{name: "valid with dots", id: "v1.2-final_abcdefabcdef", want: true},
		{name: "short hash", id: "Smith2020_abcdef", want: false},
		{name: "uppercase hash", id: "Smith2020_ABCDEFABCDEF", want: false},
		{name: "missing key", id: "_0123456789ab", want: false},
		{name: "spaces", id: "Smith 2020_0123456789ab", want: false},
		{name: "empty", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDocumentID(tt.id))
		})
	}
}
