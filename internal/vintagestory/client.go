// Package vintagestory talks to the public Vintage Story mod repository.
package vintagestory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/meza/vintage-story-mod-manager/internal/environment"
	"github.com/meza/vintage-story-mod-manager/internal/globalerrors"
	"github.com/meza/vintage-story-mod-manager/internal/httpclient"
	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

type Client struct {
	client  httpclient.Doer
	baseURL string
}

func NewClient(doer httpclient.Doer) *Client {
	return &Client{client: doer, baseURL: environment.APIBaseURL()}
}

func UserAgent() string {
	return fmt.Sprintf("vintage-story-mod-manager/%s", environment.AppVersion())
}

func (vsClient *Client) BaseURL() string {
	return vsClient.baseURL
}

func (vsClient *Client) Do(request *http.Request) (*http.Response, error) {
	ctx, span := perf.StartSpan(request.Context(), "api.vintagestory.http.request", perf.WithAttributes(attribute.String("url", request.URL.String())))
	defer span.End()

	request.Header.Set("User-Agent", UserAgent())
	request.Header.Set("Accept", "application/json")

	return vsClient.client.Do(request.WithContext(ctx))
}

// GetMod fetches a mod with its releases, newest first. The id may be a string id, a numeric id or a url alias.
func (vsClient *Client) GetMod(ctx context.Context, id string) (*ModData, error) {
	ctx, span := perf.StartSpan(ctx, "api.vintagestory.mod.get", perf.WithAttributes(attribute.String("mod_id", id)))
	defer span.End()

	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()

	endpoint := fmt.Sprintf("%s/api/mod/%s", vsClient.baseURL, url.PathEscape(strings.TrimSpace(id)))
	var payload modResponse
	status, err := vsClient.getJSON(ctx, endpoint, &payload)
	if err != nil {
		span.RecordError(err)
		if status == http.StatusNotFound {
			return nil, &globalerrors.ModNotFoundError{ModID: id}
		}
		return nil, globalerrors.ModAPIErrorWrap(err, id)
	}

	if strings.TrimSpace(string(payload.StatusCode)) == "404" {
		return nil, &globalerrors.ModNotFoundError{ModID: id}
	}
	if payload.Mod == nil {
		return nil, globalerrors.ModAPIErrorWrap(&MalformedResponseError{Endpoint: endpoint, Err: errors.New("response has no mod")}, id)
	}

	span.SetAttributes(attribute.Int("releases", len(payload.Mod.Releases)))
	return payload.Mod, nil
}

func (vsClient *Client) SearchMods(ctx context.Context, query Query) ([]SearchMod, error) {
	ctx, span := perf.StartSpan(ctx, "api.vintagestory.mods.search")
	defer span.End()

	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()

	endpoint := vsClient.baseURL + "/api/mods"
	if built := query.Build(); built != "" {
		endpoint += "?" + built
	}

	var payload searchResponse
	if _, err := vsClient.getJSON(ctx, endpoint, &payload); err != nil {
		span.RecordError(err)
		return nil, globalerrors.ModAPIErrorWrap(err, "")
	}
	if payload.Mods == nil {
		return []SearchMod{}, nil
	}

	span.SetAttributes(attribute.Int("results", len(payload.Mods)))
	return payload.Mods, nil
}

func (vsClient *Client) GetGameVersions(ctx context.Context) ([]GameVersion, error) {
	ctx, span := perf.StartSpan(ctx, "api.vintagestory.gameversions.get")
	defer span.End()

	ctx, cancel := httpclient.WithMetadataTimeout(ctx)
	defer cancel()

	endpoint := vsClient.baseURL + "/api/gameversions"
	var payload gameVersionsResponse
	if _, err := vsClient.getJSON(ctx, endpoint, &payload); err != nil {
		span.RecordError(err)
		return nil, globalerrors.ModAPIErrorWrap(err, "")
	}
	if payload.GameVersions == nil {
		return nil, globalerrors.ModAPIErrorWrap(&MalformedResponseError{Endpoint: endpoint, Err: errors.New("response has no gameversions")}, "")
	}
	return payload.GameVersions, nil
}

// Download stores the file at fileURL as destination, reporting progress to program when it is set.
func (vsClient *Client) Download(ctx context.Context, fileURL string, destination string, fs afero.Fs, program httpclient.Sender) error {
	ctx, cancel := httpclient.WithDownloadTimeout(ctx)
	defer cancel()

	err := httpclient.DownloadFile(ctx, vsClient.resolveURL(fileURL), destination, vsClient, program, fs)
	return httpclient.WrapTimeoutError(err)
}

// resolveURL makes repository relative file links absolute.
func (vsClient *Client) resolveURL(fileURL string) string {
	if strings.HasPrefix(fileURL, "/") {
		return vsClient.baseURL + fileURL
	}
	return fileURL
}

// getJSON returns the HTTP status alongside any error so callers can tell a missing resource apart.
func (vsClient *Client) getJSON(ctx context.Context, endpoint string, target any) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build request")
	}

	response, err := vsClient.Do(request)
	if err != nil {
		return 0, httpclient.WrapTimeoutError(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return response.StatusCode, &UnexpectedStatusError{Endpoint: endpoint, StatusCode: response.StatusCode}
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return response.StatusCode, &MalformedResponseError{Endpoint: endpoint, Err: errors.Wrap(err, "failed to decode response body")}
	}
	return response.StatusCode, nil
}
