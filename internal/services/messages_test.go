package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

func TestDefaultMessages_AreValid(t *testing.T) {
	m := DefaultMessages()
	require.NoError(t, m.Validate())
	require.Equal(t, "FINALIZE ORDER", m.FinalizeKeyword)
	require.Equal(t, "Payment Method", m.Label(models.FieldPayment))
	require.Len(t, m.GreetingSegments(), 7)
	for _, segment := range m.GreetingSegments() {
		require.NotContains(t, segment, "{keyword}")
	}
}

func TestLoadMessages_OverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
finalize_keyword: DONE
labels:
  payment: Payment
greeting:
  - "Hi there"
`), 0o644))

	m, err := LoadMessages(path)
	require.NoError(t, err)
	require.Equal(t, "DONE", m.FinalizeKeyword)
	require.Equal(t, "Payment", m.Labels.Payment)
	require.Equal(t, "Name", m.Labels.Name, "labels not in the file keep their default")
	require.Equal(t, []string{"Hi there"}, m.Greeting)
	require.Equal(t, DefaultMessages().ApologyGeneric, m.ApologyGeneric)
}

func TestLoadMessages_PortugueseCatalog(t *testing.T) {
	m, err := LoadMessages(filepath.Join("..", "..", "config", "messages.pt-BR.yaml"))
	require.NoError(t, err)
	require.Equal(t, "FINALIZAR PEDIDO", m.FinalizeKeyword)
	require.Equal(t, "[Não informado]", m.Unset)
	require.Equal(t, "Forma de Pagamento", m.Label(models.FieldPayment))
	require.Contains(t, m.GreetingSegments()[4], `"FINALIZAR PEDIDO"`)
}

func TestLoadMessages_RejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"duplicate labels": "labels:\n  name: Order\n",
		"empty unset":      "unset: \"\"\n",
		"colon in label":   "labels:\n  order: \"Order: items\"\n",
		"no greeting":      "greeting: []\n",
		"not yaml":         "labels: [unclosed\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "messages.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := LoadMessages(path)
			require.Error(t, err)
		})
	}

	_, err := LoadMessages(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
