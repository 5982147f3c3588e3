package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSeedDefault(t *testing.T) {
	products, err := LoadSeed("")
	require.NoError(t, err)
	require.Len(t, products, 5)
	require.Equal(t, "Camarón Queso", products[2].Name)
	require.Equal(t, 0, products[2].Stock)
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
products:
  - id: 10
    name: Pino
    category: horno
    price: 2500
    stock: 20
    image: pino.jpg
  - id: 11
    name: Papas fritas
    category: acompañamiento
    price: 1800
    stock: 5
`), 0o644))

	products, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, "acompañamiento", products[1].Category)
	require.Equal(t, int64(1800), products[1].Price)
}

func TestParseSeedRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing name": "products:\n  - id: 1\n    price: 10\n",
		"negative":     "products:\n  - id: 1\n    name: x\n    stock: -1\n",
		"duplicated":   "products:\n  - id: 1\n    name: x\n  - id: 1\n    name: y\n",
		"not yaml":     "products: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSeed([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
