package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const boardHTML = `<html><body>
<div class="structItemContainer">
  <a href="/threads/cheater-12345.42/">Beschwerde gegen 12345</a>
  <a href="/threads/cheater-12345.42/">duplicate link</a>
  <a href="/threads/zweiter-fall.43/">Zweiter Fall</a>
  <a href="/threads/zweiter-fall.43/page-2">Page 2</a>
  <a href="/forums/andere/">not a thread</a>
</div>
</body></html>`

const threadHTML = `<html><body>
<h1 class="p-title-value">Beschwerde gegen Spieler</h1>
<div class="p-description"><a class="username">melder77</a></div>
<dl data-field="de_endsid"><dt>ID</dt><dd> 12345 </dd></dl>
<dl data-field="de_moystatic"><dt>Static</dt><dd>67890</dd></dl>
<article>Er hat gecheatet, ID 12345.</article>
</body></html>`

func newTestExtractor(attempts int) *HTTPExtractor {
	return NewHTTPExtractor(&http.Client{}, attempts, zap.NewNop())
}

func TestListThreadURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(boardHTML))
	}))
	defer srv.Close()

	urls, err := newTestExtractor(1).ListThreadURLs(context.Background(), srv.URL+"/forums/beschwerden/")
	require.NoError(t, err)

	assert.Equal(t, []string{
		srv.URL + "/threads/cheater-12345.42/",
		srv.URL + "/threads/zweiter-fall.43/",
		srv.URL + "/threads/zweiter-fall.43/page-2",
	}, urls)
}

func TestFetchThreadExtractsFieldsAndMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(threadHTML))
	}))
	defer srv.Close()

	doc, err := newTestExtractor(1).FetchThread(context.Background(), srv.URL+"/threads/x.1/", Selectors{
		Primary: `dl[data-field="de_endsid"] dd`,
		Closed:  `dl[data-field="de_moystatic"] dd`,
	})
	require.NoError(t, err)

	assert.Equal(t, 200, doc.StatusCode)
	assert.Equal(t, "Beschwerde gegen Spieler", doc.Meta.Title)
	assert.Equal(t, "melder77", doc.Meta.Author)
	assert.Equal(t, []string{"12345"}, doc.Fields["primary"])
	assert.Equal(t, []string{"67890"}, doc.Fields["closed"])
	assert.Contains(t, doc.BodyText, "Er hat gecheatet")
}

func TestFetchThreadNonOKReturnsStatusNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	doc, err := newTestExtractor(1).FetchThread(context.Background(), srv.URL+"/threads/gone.9/", Selectors{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, doc.StatusCode)
	assert.Empty(t, doc.BodyText)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(threadHTML))
	}))
	defer srv.Close()

	doc, err := newTestExtractor(3).FetchThread(context.Background(), srv.URL+"/threads/x.1/", Selectors{})
	require.NoError(t, err)
	assert.Equal(t, 200, doc.StatusCode)
	assert.Equal(t, 2, calls)
}
