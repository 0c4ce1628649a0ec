package enrich

import (
	"net/url"
	"strings"

	"github.com/sifan077/PowerBio/internal/app/model"
)

// ExtractUTM reads the campaign parameters of a page URL. An empty or
// unparsable URL yields no parameters rather than an error.
func ExtractUTM(rawURL string) model.UTMParams {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return model.UTMParams{}
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return model.UTMParams{}
	}
	// Query skips malformed pairs and keeps the rest.
	return model.UTMFromQuery(u.Query())
}
