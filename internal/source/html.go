package source

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mountisa-community/directory-cli/internal/extract"
	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/pkg/fetch"
)

// listingSelectors locates service cards within a directory page.
type listingSelectors struct {
	// card matches one service listing.
	card string
	// name is resolved within the card. The first non-empty match wins.
	name string
	// description is resolved within the card, optional.
	description string
	// link is resolved within the card, optional; its href becomes the
	// website when it is absolute.
	link string
}

// htmlSource scrapes one upstream directory's listing pages. Contact details
// are pulled from the card's full text with the extract patterns rather than
// trusted to sit in a dedicated element; upstream markup moves too often.
type htmlSource struct {
	name      string
	pages     []string
	client    fetch.Client
	selectors listingSelectors
}

func (s *htmlSource) Name() string { return s.name }

func (s *htmlSource) Discover(ctx context.Context) ([]model.RawRecord, error) {
	var raws []model.RawRecord
	for _, page := range s.pages {
		if err := ctx.Err(); err != nil {
			return raws, err
		}
		doc, err := s.client.GetDocument(ctx, page)
		if err != nil {
			return raws, eris.Wrapf(err, "source %s: fetch %s", s.name, page)
		}
		found := s.parsePage(doc, page)
		zap.L().Debug("page scraped",
			zap.String("source", s.name),
			zap.String("page", page),
			zap.Int("records", len(found)),
		)
		raws = append(raws, found...)
	}
	return raws, nil
}

func (s *htmlSource) parsePage(doc *goquery.Document, pageURL string) []model.RawRecord {
	var raws []model.RawRecord
	doc.Find(s.selectors.card).Each(func(_ int, card *goquery.Selection) {
		name := strings.TrimSpace(card.Find(s.selectors.name).First().Text())
		if name == "" {
			return
		}

		raw := model.RawRecord{
			Name:      optional(name),
			SourceURL: optional(pageURL),
			Method:    optional("html"),
		}
		if s.selectors.description != "" {
			raw.Description = optional(strings.TrimSpace(card.Find(s.selectors.description).First().Text()))
		}
		if s.selectors.link != "" {
			if href, ok := card.Find(s.selectors.link).First().Attr("href"); ok && strings.HasPrefix(href, "http") {
				raw.Website = optional(href)
			}
		}

		text := card.Text()
		raw.Phone = optional(extract.Phone(text))
		raw.Email = optional(extract.Email(text))

		raws = append(raws, raw)
	})
	return raws
}

// NewQldGov scrapes the Queensland Government service finder listing pages
// for the configured locality.
func NewQldGov(client fetch.Client, pages []string) Source {
	return &htmlSource{
		name:   "qld_gov_services",
		pages:  pages,
		client: client,
		selectors: listingSelectors{
			card:        ".qg-service-finder li.result, article.service-result",
			name:        "h3 a, h3",
			description: ".description, p",
			link:        "h3 a",
		},
	}
}

// NewMyCommunityDirectory scrapes My Community Directory's Mount Isa listing
// pages.
func NewMyCommunityDirectory(client fetch.Client, pages []string) Source {
	return &htmlSource{
		name:   "my_community_directory",
		pages:  pages,
		client: client,
		selectors: listingSelectors{
			card:        ".listing-card, .organisation-listing",
			name:        ".listing-title, h4",
			description: ".listing-summary, .summary",
			link:        "a.listing-website",
		},
	}
}
