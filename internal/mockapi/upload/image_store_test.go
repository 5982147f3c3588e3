package upload

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImageStores(t *testing.T) {
	dir, err := NewDirImageStore(t.TempDir())
	require.NoError(t, err)

	stores := map[string]IImageStore{
		"dir":    dir,
		"memory": NewMemoryImageStore(),
	}
	for name, st := range stores {
		t.Run(name, func(t *testing.T) {
			saved, err := st.Save("Pino.JPG", strings.NewReader("jpegdata"))
			require.NoError(t, err)
			require.True(t, strings.HasSuffix(saved, ".jpg"))

			rc, err := st.Open(saved)
			require.NoError(t, err)
			raw, err := io.ReadAll(rc)
			require.NoError(t, rc.Close())
			require.NoError(t, err)
			require.Equal(t, "jpegdata", string(raw))

			_, err = st.Save("script.sh", strings.NewReader("x"))
			require.ErrorIs(t, err, ErrUnsupportedType)

			_, err = st.Open("missing.png")
			require.ErrorIs(t, err, ErrNotFound)
			_, err = st.Open("../etc/passwd")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}
