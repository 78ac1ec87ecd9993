package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bookshelf/internal/platform/googlebooks"
)

// VolumeSearcher is the remote catalog the gateway queries.
type VolumeSearcher interface {
	SearchVolumes(ctx context.Context, query string, maxResults int) (*googlebooks.VolumesResponse, error)
}

// Gateway turns provider search results into candidates. Every call hits the
// live provider.
type Gateway struct {
	searcher   VolumeSearcher
	maxResults int
}

func NewGateway(searcher VolumeSearcher, maxResults int) *Gateway {
	return &Gateway{searcher: searcher, maxResults: maxResults}
}

func (g *Gateway) Search(ctx context.Context, query string) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	res, err := g.searcher.SearchVolumes(ctx, query, g.maxResults)
	if err != nil {
		if errors.Is(err, googlebooks.ErrMissingAPIKey) {
			return nil, fmt.Errorf("%w: %v", ErrMisconfigured, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	candidates := make([]Candidate, 0, len(res.Items))
	for _, v := range res.Items {
		candidates = append(candidates, candidateFromVolume(v))
	}
	return candidates, nil
}

func candidateFromVolume(v googlebooks.Volume) Candidate {
	info := v.VolumeInfo
	c := Candidate{
		ExternalID:    v.ID,
		ISBN:          pickISBN(info.IndustryIdentifiers),
		Title:         info.Title,
		Author:        strings.Join(info.Authors, ", "),
		Description:   info.Description,
		CoverURL:      info.ImageLinks.Thumbnail,
		PageCount:     info.PageCount,
		PublishedDate: info.PublishedDate,
		Publisher:     info.Publisher,
	}
	if c.CoverURL == "" {
		c.CoverURL = info.ImageLinks.SmallThumbnail
	}
	if len(info.Categories) > 0 {
		c.Genre = info.Categories[0]
	}
	if raw, err := json.Marshal(v); err == nil {
		c.Raw = raw
	}
	return c
}

// pickISBN prefers ISBN_13 over ISBN_10.
func pickISBN(ids []googlebooks.IndustryIdentifier) string {
	var isbn10 string
	for _, id := range ids {
		switch id.Type {
		case "ISBN_13":
			return id.Identifier
		case "ISBN_10":
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}
