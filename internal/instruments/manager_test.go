package instruments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const dump = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
738561,2885,RELIANCE,RELIANCE INDUSTRIES,0,,0,0.05,1,EQ,NSE,NSE
408065,1594,INFY,INFOSYS,0,,0,0.05,1,EQ,NSE,NSE
128083204,500325,RELIANCE,RELIANCE INDUSTRIES,0,,0,0.05,1,EQ,BSE,BSE
`

func TestDownloadInstruments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(dump))
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	im := NewInstrumentManager(nil, srv.URL, fs, "/cache/instruments.csv", zaptest.NewLogger(t))
	require.NoError(t, im.DownloadInstruments(context.Background()))

	token, err := im.TokenFor("RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, int64(738561), token, "NSE row wins over BSE")

	inst, err := im.GetInstrumentBySymbol("INFY")
	require.NoError(t, err)
	assert.Equal(t, "INFOSYS", inst.Name)
	assert.Equal(t, 0.05, inst.TickSize)

	saved, err := afero.ReadFile(fs, "/cache/instruments.csv")
	require.NoError(t, err)
	assert.Equal(t, dump, string(saved))
}

func TestDownloadInstrumentsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	im := NewInstrumentManager(nil, srv.URL, nil, "", zaptest.NewLogger(t))
	err := im.DownloadInstruments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestTokenForUnknownSymbol(t *testing.T) {
	im := NewInstrumentManager(nil, "", nil, "", zaptest.NewLogger(t))
	_, err := im.Load([]byte(dump))
	require.NoError(t, err)

	_, err = im.TokenFor("TCS")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "TCS", notFound.Symbol)
}

func TestGetInstrumentsForSymbolsSkipsUnknown(t *testing.T) {
	im := NewInstrumentManager(nil, "", nil, "", zaptest.NewLogger(t))
	n, err := im.Load([]byte(dump))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := im.GetInstrumentsForSymbols([]string{"INFY", "TCS", "RELIANCE"})
	require.Len(t, got, 2)
	assert.Equal(t, "INFY", got[0].TradingSymbol)
	assert.Equal(t, "RELIANCE", got[1].TradingSymbol)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/instruments.csv", []byte(dump), 0o644))

	im := NewInstrumentManager(nil, "", fs, "", zaptest.NewLogger(t))
	n, err := im.LoadFile("/instruments.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = im.LoadFile("/missing.csv")
	assert.Error(t, err)
}
