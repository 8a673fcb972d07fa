// Package clientinfo derives a browser label and a device category from a
// raw User-Agent header. Detection is heuristic substring matching; the
// check order is load-bearing because stored visit rows were classified
// with exactly these rules.
package clientinfo

import "strings"

// Browser labels.
const (
	BrowserChrome  = "Chrome"
	BrowserFirefox = "Firefox"
	BrowserSafari  = "Safari"
	BrowserEdge    = "Edge"
	BrowserOpera   = "Opera"
	BrowserOther   = "Other"
)

// Device categories.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
)

// Unknown is returned for both labels when the user agent is empty.
const Unknown = "Unknown"

var mobileIndicators = []string{
	"mobile", "android", "iphone", "ipad", "ipod", "blackberry", "windows phone",
}

// Classify maps a raw user agent to (browser, device). It never fails;
// an empty input yields (Unknown, Unknown).
func Classify(userAgent string) (string, string) {
	if userAgent == "" {
		return Unknown, Unknown
	}
	return BrowserName(userAgent), DeviceType(userAgent)
}

// BrowserName resolves the browser label. "edg" wins over "chrome" (Edge
// agents advertise both), and "safari" only counts without "chrome".
func BrowserName(userAgent string) string {
	if userAgent == "" {
		return Unknown
	}
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "chrome") && !strings.Contains(ua, "edg"):
		return BrowserChrome
	case strings.Contains(ua, "firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome"):
		return BrowserSafari
	case strings.Contains(ua, "edg"):
		return BrowserEdge
	case strings.Contains(ua, "opera"):
		return BrowserOpera
	default:
		return BrowserOther
	}
}

// DeviceType resolves the device category. Tablet indicators are checked
// inside the mobile branch because tablet agents carry mobile tokens too.
func DeviceType(userAgent string) string {
	if userAgent == "" {
		return Unknown
	}
	ua := strings.ToLower(userAgent)
	for _, token := range mobileIndicators {
		if strings.Contains(ua, token) {
			if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
				return DeviceTablet
			}
			return DeviceMobile
		}
	}
	return DeviceDesktop
}
