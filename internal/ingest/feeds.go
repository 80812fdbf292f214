package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
)

func (w *Worker) fetchLatestVersion(ctx context.Context) (string, error) {
	var versions []string
	if err := w.getJSON(ctx, versionsURL, &versions); err != nil {
		return "", fmt.Errorf("ingest: fetch version index: %w", err)
	}
	if len(versions) == 0 {
		return "", errors.New("ingest: version index is empty")
	}
	return versions[0], nil
}

type communityChampion struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

// fetchCommunityChampions returns the secondary-id -> name/alias mapping
// used to look up catalog entries when applying role updates.
func (w *Worker) fetchCommunityChampions(ctx context.Context) (map[int]communityChampion, error) {
	var list []communityChampion
	if err := w.getJSON(ctx, communityChampionsURL, &list); err != nil {
		return nil, fmt.Errorf("ingest: fetch community champions: %w", err)
	}

	out := make(map[int]communityChampion, len(list))
	for _, c := range list {
		out[c.ID] = c
	}
	return out, nil
}

type positionRate struct {
	PlayRate float64 `json:"playRate"`
}

type championRatesDoc struct {
	Data map[string]struct {
		Top     positionRate `json:"TOP"`
		Jungle  positionRate `json:"JUNGLE"`
		Middle  positionRate `json:"MIDDLE"`
		Bottom  positionRate `json:"BOTTOM"`
		Utility positionRate `json:"UTILITY"`
	} `json:"data"`
}

// fetchChampionRates returns the secondary-id -> observed lane play rates
// used to derive role eligibility.
func (w *Worker) fetchChampionRates(ctx context.Context) (map[int]champion.PlayRates, error) {
	var doc championRatesDoc
	if err := w.getJSON(ctx, championRatesURL, &doc); err != nil {
		return nil, fmt.Errorf("ingest: fetch champion rates: %w", err)
	}

	out := make(map[int]champion.PlayRates, len(doc.Data))
	for key, rates := range doc.Data {
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[id] = champion.PlayRates{
			Top:     rates.Top.PlayRate,
			Jungle:  rates.Jungle.PlayRate,
			Middle:  rates.Middle.PlayRate,
			Bottom:  rates.Bottom.PlayRate,
			Utility: rates.Utility.PlayRate,
		}
	}
	return out, nil
}

func (w *Worker) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
