package utils

import (
	"strings"

	ua "github.com/mssola/user_agent"
)

// DeviceInfo holds parsed information from a User-Agent string
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop, cli
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	IsBot      bool   `json:"is_bot"`
	Platform   string `json:"platform"` // android, ios, windows, mac, linux
}

// Command-line HTTP clients operators commonly script the API with
var cliClients = []string{"curl", "wget", "httpie", "go-http-client", "postman"}

// ParseUserAgent parses a User-Agent string and extracts device information
func ParseUserAgent(userAgent string) DeviceInfo {
	if userAgent == "" {
		return DeviceInfo{
			DeviceType: "unknown",
			OS:         "Unknown",
			Browser:    "Unknown",
			Platform:   "unknown",
		}
	}

	lower := strings.ToLower(userAgent)
	for _, client := range cliClients {
		if strings.HasPrefix(lower, client) {
			name := userAgent
			if i := strings.IndexByte(name, '/'); i > 0 {
				name = name[:i]
			}
			return DeviceInfo{
				DeviceType: "cli",
				OS:         "Unknown",
				Browser:    name,
				Platform:   "unknown",
			}
		}
	}

	parser := ua.New(userAgent)
	return DeviceInfo{
		DeviceType: deviceType(parser),
		OS:         osName(parser),
		Browser:    browser(parser),
		IsBot:      parser.Bot(),
		Platform:   platform(parser),
	}
}

func deviceType(parser *ua.UserAgent) string {
	if !parser.Mobile() {
		return "desktop"
	}
	lower := strings.ToLower(parser.UA())
	for _, indicator := range []string{"ipad", "tablet", "kindle", "sm-t"} {
		if strings.Contains(lower, indicator) {
			return "tablet"
		}
	}
	return "mobile"
}

func osName(parser *ua.UserAgent) string {
	info := parser.OSInfo()
	if info.Name == "" {
		return "Unknown"
	}
	if info.Version != "" {
		return info.Name + " " + info.Version
	}
	return info.Name
}

func browser(parser *ua.UserAgent) string {
	name, _ := parser.Browser()
	if name == "" {
		return "Unknown"
	}
	return name
}

func platform(parser *ua.UserAgent) string {
	name := strings.ToLower(parser.OSInfo().Name)
	switch {
	case strings.Contains(name, "android"):
		return "android"
	case strings.Contains(name, "ios"), strings.Contains(name, "iphone"):
		return "ios"
	case strings.Contains(name, "windows"):
		return "windows"
	case strings.Contains(name, "mac"):
		return "mac"
	case strings.Contains(name, "linux"), strings.Contains(name, "ubuntu"):
		return "linux"
	}
	return "unknown"
}
