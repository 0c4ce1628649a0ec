package enrich

import (
	"strings"

	"github.com/mssola/useragent"
	"github.com/sifan077/PowerBio/internal/app/model"
)

var mobileMarkers = []string{"mobile", "iphone", "ipod", "android", "blackberry", "windows phone"}

// DeviceType classifies a user agent. Tablets are checked first so Android
// tablets (no "mobile" token) are not reported as phones.
func DeviceType(userAgent string) string {
	ua := strings.ToLower(userAgent)

	if strings.Contains(ua, "ipad") ||
		(strings.Contains(ua, "android") && !strings.Contains(ua, "mobile")) ||
		strings.Contains(ua, "tablet") {
		return model.DeviceTablet
	}

	for _, m := range mobileMarkers {
		if strings.Contains(ua, m) {
			return model.DeviceMobile
		}
	}
	return model.DeviceDesktop
}

// ParseUserAgent extracts browser and OS details. Unknown parts stay empty.
func ParseUserAgent(userAgent string) model.UserAgentParsed {
	if strings.TrimSpace(userAgent) == "" {
		return model.UserAgentParsed{}
	}

	ua := useragent.New(userAgent)
	browser, version := ua.Browser()
	osInfo := ua.OSInfo()

	parsed := model.UserAgentParsed{
		Browser:        browser,
		BrowserVersion: version,
		OS:             osInfo.Name,
		OSVersion:      osInfo.Version,
	}
	if device := DeviceType(userAgent); device != model.DeviceDesktop {
		parsed.Device = device
	}
	return parsed
}
