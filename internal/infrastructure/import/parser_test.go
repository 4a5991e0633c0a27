package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser(t *testing.T) {
	t.Run("strips BOM and normalizes headers", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("\xEF\xBB\xBFNome, Razão Social ,E-mail\nAcme,Acme Ltda,a@b.co\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"nome", "razao_social", "e_mail"}, p.Headers())
		assert.Equal(t, ',', p.Delimiter())
	})

	t.Run("detects semicolon", func(t *testing.T) {
		p, err := NewParser(strings.NewReader("name;document\nAcme;12.345.678/0001-90\n"))
		require.NoError(t, err)
		assert.Equal(t, ';', p.Delimiter())
		row, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, "12.345.678/0001-90", row.Get("document"))
	})

	t.Run("decodes windows-1252", func(t *testing.T) {
		// "Balanças" with ç encoded as 0xE7
		p, err := NewParser(strings.NewReader("name\nBalan\xe7as\n"))
		require.NoError(t, err)
		row, err := p.Next()
		require.NoError(t, err)
		assert.Equal(t, "Balanças", row.Get("name"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := NewParser(strings.NewReader(strings.Repeat("a", MaxFileSize+1)))
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
}

func TestParser_Rows(t *testing.T) {
	csv := "nome,documento,cidade\nAcme,1,Campinas\n,,\nBeta,2\n"
	p, err := NewParser(strings.NewReader(csv), WithAliases(map[string]string{
		"Nome":      "name",
		"Documento": "document",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "document", "cidade"}, p.Headers())
	require.NoError(t, p.RequireColumns("name", "document"))
	assert.ErrorIs(t, p.RequireColumns("name", "email"), ErrMissingColumns)

	rows, err := p.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2, "blank lines are skipped")
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "", rows[1].Get("cidade"))

	_, err = p.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "numero_de_serie", NormalizeHeader(" Número de Série "))
	assert.Equal(t, "external_id", NormalizeHeader("External-ID"))
	assert.Equal(t, "", NormalizeHeader("  "))
}
