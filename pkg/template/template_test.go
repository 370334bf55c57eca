package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstitute_RoundTrip(t *testing.T) {
	context := map[string]any{
		"user": map[string]any{"name": "Ana"},
	}

	values := ResolveMapping(map[string]any{"NOME": "context.user.name"}, context)

	assert.Equal(t, "Olá Ana", Substitute("Olá [NOME]", values))
}

func TestSubstitute_BracesAndCase(t *testing.T) {
	values := map[string]string{
		"cliente": "Maria Lima",
		"PROCESSO": "0001234-56.2026.8.26.0100",
	}

	result := Substitute("Cliente: {CLIENTE} / {cliente} - Processo [processo]", values)

	assert.Equal(t, "Cliente: Maria Lima / Maria Lima - Processo 0001234-56.2026.8.26.0100", result)
}

func TestSubstitute_ValueWithReplacementSyntax(t *testing.T) {
	result := Substitute("Valor: {VALOR}", map[string]string{"VALOR": "R$ 1.000,00 $1"})

	assert.Equal(t, "Valor: R$ 1.000,00 $1", result)
}

func TestSubstitute_ValuesAreNotRescanned(t *testing.T) {
	values := map[string]string{"A": "[B]", "B": "x", "C": "{a}"}

	for range 50 {
		assert.Equal(t, "[B] x {a} [D]", Substitute("[A] [B] {c} [D]", values))
	}
}

func TestResolveMapping_MissingAndNonStringPaths(t *testing.T) {
	values := ResolveMapping(map[string]any{
		"NOME":  "user.name",
		"IDADE": "user.age",
		"OUTRO": 42,
	}, map[string]any{"user": map[string]any{"age": 30}})

	assert.Equal(t, "", values["NOME"])
	assert.Equal(t, "30", values["IDADE"])
	assert.NotContains(t, values, "OUTRO")
}

func TestInterpolate(t *testing.T) {
	data := map[string]any{
		"client":  map[string]any{"name": "Ana"},
		"process": map[string]any{"number": 123},
	}

	result := Interpolate("Olá {{client.name}}, processo {{ process.number }} {{missing.value}}", data)

	assert.Equal(t, "Olá Ana, processo 123 {{missing.value}}", result)
}

func TestReference(t *testing.T) {
	path, ok := Reference("{{context.lawyer.id}}")
	assert.True(t, ok)
	assert.Equal(t, "context.lawyer.id", path)

	_, ok = Reference("user-1")
	assert.False(t, ok)

	_, ok = Reference("prefix {{a.b}}")
	assert.False(t, ok)
}

func TestResolveList(t *testing.T) {
	data := map[string]any{
		"lawyer":   "u-7",
		"partners": []any{"u-1", "u-2"},
		"client":   map[string]any{"owner": "u-9"},
	}

	assert.Equal(t, []string{"u-3", "u-7", "u-1", "u-2", "u-9"},
		ResolveList([]any{"u-3", "{{lawyer}}", "{{context.partners}}", "{{client.owner}}", "{{missing}}", " "}, data))
	assert.Equal(t, []string{"u-1", "u-2"}, ResolveList("{{partners}}", data))
	assert.Equal(t, []string{"u-5"}, ResolveList("u-5", data))
	assert.Empty(t, ResolveList(nil, data))
}
