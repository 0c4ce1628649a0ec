package model

import (
	"errors"
	"net/url"
	"strings"
)

// UTM query keys. Generated URLs carry them in sorted key order.
const (
	UTMSourceKey   = "utm_source"
	UTMMediumKey   = "utm_medium"
	UTMCampaignKey = "utm_campaign"
	UTMContentKey  = "utm_content"
	UTMTermKey     = "utm_term"
)

var errNotAbsolute = errors.New("url is not absolute")

// UTMParams holds the five standard campaign parameters. Empty means absent.
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// Clean trims every value; whitespace-only values become absent.
func (p UTMParams) Clean() UTMParams {
	return UTMParams{
		Source:   strings.TrimSpace(p.Source),
		Medium:   strings.TrimSpace(p.Medium),
		Campaign: strings.TrimSpace(p.Campaign),
		Content:  strings.TrimSpace(p.Content),
		Term:     strings.TrimSpace(p.Term),
	}
}

// HasAny reports whether at least one parameter is present.
func (p UTMParams) HasAny() bool {
	return p.Source != "" || p.Medium != "" || p.Campaign != "" || p.Content != "" || p.Term != ""
}

// Merge overlays the non-empty values of other onto p.
func (p UTMParams) Merge(other UTMParams) UTMParams {
	if other.Source != "" {
		p.Source = other.Source
	}
	if other.Medium != "" {
		p.Medium = other.Medium
	}
	if other.Campaign != "" {
		p.Campaign = other.Campaign
	}
	if other.Content != "" {
		p.Content = other.Content
	}
	if other.Term != "" {
		p.Term = other.Term
	}
	return p
}

// Apply sets the present parameters on the query string of base. The query is
// re-encoded with keys in sorted order.
func (p UTMParams) Apply(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &url.Error{Op: "parse", URL: base, Err: errNotAbsolute}
	}

	q := u.Query()
	for _, kv := range p.pairs() {
		if kv[1] != "" {
			q.Set(kv[0], kv[1])
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p UTMParams) pairs() [5][2]string {
	return [5][2]string{
		{UTMSourceKey, p.Source},
		{UTMMediumKey, p.Medium},
		{UTMCampaignKey, p.Campaign},
		{UTMContentKey, p.Content},
		{UTMTermKey, p.Term},
	}
}

// UTMFromQuery reads the five UTM keys from a parsed query string.
func UTMFromQuery(q url.Values) UTMParams {
	return UTMParams{
		Source:   q.Get(UTMSourceKey),
		Medium:   q.Get(UTMMediumKey),
		Campaign: q.Get(UTMCampaignKey),
		Content:  q.Get(UTMContentKey),
		Term:     q.Get(UTMTermKey),
	}
}
