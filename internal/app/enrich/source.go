package enrich

import (
	"net/url"
	"strings"
)

// Traffic sources that are not platform names.
const (
	SourceDirect = "direct"
	SourceOther  = "other"
)

type sourceRule struct {
	source  string
	domains []string
}

// Social platforms first, then search engines. Order matters only for
// hosts matching several rules, which the table avoids.
var sourceRules = []sourceRule{
	{"instagram", []string{"instagram.com"}},
	{"tiktok", []string{"tiktok.com"}},
	{"twitter", []string{"twitter.com", "t.co", "x.com"}},
	{"facebook", []string{"facebook.com", "fb.com"}},
	{"linkedin", []string{"linkedin.com"}},
	{"youtube", []string{"youtube.com", "youtu.be"}},
	{"reddit", []string{"reddit.com"}},
	{"pinterest", []string{"pinterest.com"}},
	{"telegram", []string{"telegram.org", "t.me"}},
	{"whatsapp", []string{"whatsapp.com"}},
	{"vk", []string{"vk.com"}},

	{"google", []string{"google.com"}},
	{"bing", []string{"bing.com"}},
	{"yahoo", []string{"yahoo.com"}},
	{"yandex", []string{"yandex.*"}},
	{"duckduckgo", []string{"duckduckgo.com"}},
}

// TrafficSource classifies a visit. A UTM source wins; otherwise the referrer
// host is matched against known platforms. No referrer is "direct", an
// unmatched one is "other".
func TrafficSource(referrer, utmSource string) string {
	if s := strings.TrimSpace(utmSource); s != "" {
		return s
	}
	referrer = strings.TrimSpace(referrer)
	if referrer == "" {
		return SourceDirect
	}

	host := referrerHost(referrer)
	if host == "" {
		return SourceOther
	}
	for _, rule := range sourceRules {
		for _, d := range rule.domains {
			if matchDomain(host, d) {
				return rule.source
			}
		}
	}
	return SourceOther
}

func referrerHost(referrer string) string {
	raw := referrer
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

// matchDomain matches host against domain or any subdomain of it. A trailing
// ".*" matches any top-level suffix (yandex.ru, yandex.com.tr). Matching is on
// whole host labels, never on a substring of the referrer, so microsoft.com
// is not t.co and a path mentioning google.com is not google.
func matchDomain(host, domain string) bool {
	if base, ok := strings.CutSuffix(domain, ".*"); ok {
		labels := strings.Split(host, ".")
		for i, l := range labels {
			if l == base && i < len(labels)-1 {
				return true
			}
		}
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
