package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantio/tenantd/pkg/catalog"
)

func TestParseRoundTrip(t *testing.T) {
	gen := NewGenerator(catalog.Default())
	tenant := testTenant()
	ports := testPorts()

	rendered, err := gen.RenderAll(tenant, ports)
	require.NoError(t, err)
	combined, err := Combine(rendered)
	require.NoError(t, err)

	parsed, err := Parse(combined)
	require.NoError(t, err)
	require.Len(t, parsed, len(rendered))

	// Kinds, names, and order survive the round trip
	for i := range rendered {
		assert.Equal(t, rendered[i].Kind, parsed[i].Kind)
		assert.Equal(t, rendered[i].Name, parsed[i].Name)
		assert.Equal(t, rendered[i].Namespace, parsed[i].Namespace)
		assert.Equal(t, rendered[i].Kind+"-"+rendered[i].Name, parsed[i].Key)
	}

	// NodePorts survive as well, through the generic object shape
	for i := range rendered {
		if rendered[i].Kind == "Service" {
			assert.Equal(t, NodePortOf(rendered[i]), NodePortOf(parsed[i]))
			assert.NotZero(t, NodePortOf(parsed[i]))
		}
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"missing kind", "metadata:\n  name: foo\n"},
		{"missing name", "kind: Service\nmetadata: {}\n"},
		{"invalid yaml", "kind: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestParsedDocJSON(t *testing.T) {
	combined := "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: acme-config\n  namespace: tenant-acme\ndata:\n  tenant-slug: acme\n"
	docs, err := Parse(combined)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	body, err := docs[0].JSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"kind":"ConfigMap"`)
	assert.Contains(t, string(body), `"tenant-slug":"acme"`)
}
