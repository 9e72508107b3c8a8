package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolmap/scolmap/artifact"
)

func newTestMapper(t *testing.T, handler http.HandlerFunc) (*Mapper, *artifact.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewMapper(srv.URL, 5*time.Second, 1000, store, nil), store
}

func TestResolveSingleCommune(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "44150", r.URL.Query().Get("codePostal"))
		_, _ = w.Write([]byte(`[{"nom":"Ancenis-Saint-Géréon","code":"44003"}]`))
	})

	res, err := m.Resolve(context.Background(), "44150", "Ancenis")
	require.NoError(t, err)
	assert.Equal(t, "44003", res.INSEE)
	assert.Equal(t, "Ancenis-Saint-Géréon", res.Name)
	assert.False(t, res.Ambiguous)
}

func TestResolveDisambiguatesByName(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` +
			`{"nom":"La Chapelle-sur-Erdre","code":"44035"},` +
			`{"nom":"Sucé-sur-Erdre","code":"44201"}]`))
	})

	res, err := m.Resolve(context.Background(), "44240", "SUCÉ-SUR-ERDRE")
	require.NoError(t, err)
	assert.Equal(t, "44201", res.INSEE)
	assert.False(t, res.Ambiguous)
}

func TestResolveNameVariants(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` +
			`{"nom":"Nantes","code":"44109"},` +
			`{"nom":"Saint-Herblain","code":"44162"}]`))
	})

	// Directory files abbreviate SAINT and swap hyphens for spaces
	res, err := m.Resolve(context.Background(), "44800", "ST HERBLAIN")
	require.NoError(t, err)
	assert.Equal(t, "44162", res.INSEE)
	assert.False(t, res.Ambiguous)
}

func TestResolveFallsBackToFirstCandidate(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` +
			`{"nom":"Angers","code":"49007"},` +
			`{"nom":"Avrillé","code":"49015"}]`))
	})

	res, err := m.Resolve(context.Background(), "49000", "Commune Disparue")
	require.NoError(t, err)
	assert.Equal(t, "49007", res.INSEE)
	assert.True(t, res.Ambiguous)
	assert.Equal(t, 1, m.Stats().Ambiguous)
}

func TestResolveUnknownPostalCode(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	res, err := m.Resolve(context.Background(), "99999", "Nulle Part")
	require.NoError(t, err)
	assert.Empty(t, res.INSEE)
	assert.Equal(t, 1, m.Stats().Unresolved)
}

func TestResolveCachesPostalCodes(t *testing.T) {
	var calls atomic.Int32
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"nom":"Laval","code":"53130"}]`))
	})

	for i := 0; i < 3; i++ {
		_, err := m.Resolve(context.Background(), "53000", "Laval")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 2, m.Stats().CacheHits)
}

func TestMapperCachePersistsAcrossRuns(t *testing.T) {
	var calls atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`[{"nom":"Le Mans","code":"72181"}]`))
	}
	srv := httptest.NewServer(http.HandlerFunc(handler))
	defer srv.Close()

	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	first := NewMapper(srv.URL, 5*time.Second, 1000, store, nil)
	_, err = first.Resolve(context.Background(), "72000", "Le Mans")
	require.NoError(t, err)
	require.NoError(t, first.Save())

	second := NewMapper(srv.URL, 5*time.Second, 1000, store, nil)
	res, err := second.Resolve(context.Background(), "72000", "Le Mans")
	require.NoError(t, err)
	assert.Equal(t, "72181", res.INSEE)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, second.Stats().CacheHits)
}

func TestMapperServerErrorPropagates(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := m.Resolve(context.Background(), "44000", "Nantes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "44000")
}

func TestNames(t *testing.T) {
	m, _ := newTestMapper(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[` +
			`{"nom":"Nantes","code":"44109"},` +
			`{"nom":"Saint-Herblain","code":"44162"}]`))
	})

	_, err := m.Resolve(context.Background(), "44800", "Nantes")
	require.NoError(t, err)

	names := m.Names()
	assert.Equal(t, "Nantes", names["44109"])
	assert.Equal(t, "Saint-Herblain", names["44162"])
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Nantes", "NANTES"},
		{"st herblain", "SAINT HERBLAIN"},
		{"Ste-Luce-sur-Loire", "SAINTE LUCE SUR LOIRE"},
		{"  La   Roche-sur-Yon ", "LA ROCHE SUR YON"},
		{"Brest", "BREST"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeName(tt.in), tt.in)
	}
}
