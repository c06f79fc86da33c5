package vintagestory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modPayload = `{
	"statuscode": "200",
	"mod": {
		"modid": 1234,
		"assetid": 5678,
		"name": "Prospect Together",
		"text": "Share prospecting",
		"author": "someone",
		"urlalias": "prospecttogether",
		"logofilename": null,
		"homepageurl": null,
		"downloads": 1000,
		"follows": 10,
		"trendingpoints": 3,
		"comments": 2,
		"side": "both",
		"type": "mod",
		"created": "2023-01-01 10:00:00",
		"lastreleased": "2024-01-01 10:00:00",
		"lastmodified": "2024-01-02 10:00:00",
		"tags": ["QoL"],
		"releases": [
			{"releaseid": 2, "mainfile": "https://mods.vintagestory.at/files/asset/1/pt-2.0.0.zip", "filename": "pt-2.0.0.zip", "fileid": 22, "downloads": 5, "tags": ["v1.19.8"], "modidstr": "prospecttogether", "modversion": "2.0.0", "created": "2024-01-01"},
			{"releaseid": 1, "mainfile": "https://mods.vintagestory.at/files/asset/1/pt-1.0.0.zip", "filename": 12345, "fileid": 11, "downloads": 50, "tags": ["v1.18.0"], "modidstr": "prospecttogether", "modversion": "1.0.0", "created": "2023-01-01"}
		],
		"screenshots": [{"fileid": 1, "mainfile": "a.png", "filename": "a.png", "thumbnailfilename": null, "created": "2023-01-01"}]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("VSMM_API_URL", server.URL)
	return NewClient(server.Client())
}

func TestGetMod(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mod/prospecttogether", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "vintage-story-mod-manager/"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modPayload))
	})

	mod, err := client.GetMod(context.Background(), "prospecttogether")
	require.NoError(t, err)

	assert.Equal(t, "Prospect Together", mod.Name)
	assert.Equal(t, "prospecttogether", mod.Identifier())
	require.Len(t, mod.Releases, 2)
	assert.Equal(t, LenientString("pt-2.0.0.zip"), mod.Releases[0].FileName)
	assert.Equal(t, LenientString(""), mod.Releases[1].FileName)
	assert.Equal(t, []string{"v1.19.8"}, mod.Releases[0].Tags)
	assert.Equal(t, "", mod.HomepageURL)
}

func TestGetModNotFoundByStatusField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"statuscode": "404"}`))
	})

	_, err := client.GetMod(context.Background(), "missing")

	var notFound *globalerrors.ModNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ModID)
}

func TestGetModNotFoundByHTTPStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetMod(context.Background(), "missing")
	assert.ErrorIs(t, err, &globalerrors.ModNotFoundError{ModID: "missing"})
}

func TestGetModMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"statuscode": "200", "mod": [`))
	})

	_, err := client.GetMod(context.Background(), "broken")

	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	var apiErr *globalerrors.ModAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "broken", apiErr.ModID)
}

func TestGetModWithoutModObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"statuscode": "200"}`))
	})

	_, err := client.GetMod(context.Background(), "empty")

	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestGetModUnexpectedStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	_, err := client.GetMod(context.Background(), "tea")

	var statusErr *UnexpectedStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTeapot, statusErr.StatusCode)
}

type failingDoer struct {
	err error
}

func (doer failingDoer) Do(_ *http.Request) (*http.Response, error) {
	return nil, doer.err
}

func TestGetModTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	client := NewClient(failingDoer{err: transportErr})

	_, err := client.GetMod(context.Background(), "any")

	assert.ErrorIs(t, err, transportErr)
	assert.ErrorIs(t, err, &globalerrors.ModAPIError{})
}

func TestSearchMods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/mods", r.URL.Path)
		assert.Equal(t, "tagids%5B%5D=7&text=carry+on&orderby=downloads&orderdirection=desc", r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"statuscode": "200", "mods": [
			{"modid": 1, "assetid": 2, "downloads": 300, "name": "Carry On", "summary": null, "modidstrs": ["carryon"], "author": "Ape", "side": "both", "type": "mod", "tags": []},
			{"modid": 9, "assetid": 3, "downloads": null, "name": "No Ids", "modidstrs": [], "author": "Bee", "side": "client", "type": "mod", "tags": []}
		]}`))
	})

	query := NewQuery().WithTagIDs(7).WithText("carry on").WithOrderBy(OrderByDownloads).WithOrderDirection(OrderDesc)
	mods, err := client.SearchMods(context.Background(), query)
	require.NoError(t, err)

	require.Len(t, mods, 2)
	assert.Equal(t, "Carry On by Ape (300 downloads)", mods[0].String())
	assert.Equal(t, "carryon", mods[0].Identifier())
	assert.Equal(t, "9", mods[1].Identifier())
}

func TestSearchModsWithoutResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"statuscode": "200"}`))
	})

	mods, err := client.SearchMods(context.Background(), NewQuery())
	require.NoError(t, err)
	assert.Empty(t, mods)
}

func TestGetGameVersions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/gameversions", r.URL.Path)
		_, _ = w.Write([]byte(`{"statuscode": "200", "gameversions": [
			{"tagid": -281539401285631, "name": "1.15.0", "color": "#CCCCCC"},
			{"tagid": -281539401220095, "name": "1.15.1", "color": "#CCCCCC"}
		]}`))
	})

	versions, err := client.GetGameVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []GameVersion{
		{TagID: -281539401285631, Name: "1.15.0", Color: "#CCCCCC"},
		{TagID: -281539401220095, Name: "1.15.1", Color: "#CCCCCC"},
	}, versions)
}

func TestGetGameVersionsMalformed(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"statuscode": "200"}`))
	})

	_, err := client.GetGameVersions(context.Background())

	var malformed *MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestDownload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/mod.zip", r.URL.Path)
		_, _ = w.Write([]byte("archive"))
	})
	fs := afero.NewMemMapFs()
	destination := filepath.Join("/mods", "mod.zip")
	require.NoError(t, fs.MkdirAll("/mods", 0o755))

	require.NoError(t, client.Download(context.Background(), "/files/mod.zip", destination, fs, nil))

	data, err := afero.ReadFile(fs, destination)
	require.NoError(t, err)
	assert.Equal(t, "archive", string(data))
}

func TestDownloadFailureStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Download(context.Background(), "/files/mod.zip", "/mods/mod.zip", afero.NewMemMapFs(), nil)
	assert.Error(t, err)
}

func TestBaseURLHonoursEnvironment(t *testing.T) {
	t.Setenv("VSMM_API_URL", "http://localhost:9999/")
	client := NewClient(failingDoer{})
	assert.Equal(t, "http://localhost:9999", client.BaseURL())
	assert.Equal(t, "http://localhost:9999/files/x.zip", client.resolveURL("/files/x.zip"))
}
