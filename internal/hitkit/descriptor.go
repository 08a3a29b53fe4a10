package hitkit

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

const (
	unknownUserAgent = "unknown"
	unknownLanguage  = "UNKNOWN"
	fallbackAddress  = "127.0.0.1"
)

// VisitorDescriptor captures the request metadata a visitor fingerprint is
// derived from. It lives only for the duration of one hit; what persists is
// its canonical string and the fingerprint hashed from it.
type VisitorDescriptor struct {
	UserAgent       string
	ClientAddress   string
	PrimaryLanguage string
}

// Canonical returns the pipe-joined form used as the fingerprint hash input
// and stored verbatim in the visitor registry.
func (descriptor VisitorDescriptor) Canonical() string {
	return descriptor.UserAgent + "|" + descriptor.ClientAddress + "|" + descriptor.PrimaryLanguage
}

// ExtractVisitorDescriptor reads the user agent, client address, and primary
// language out of an HTTP request. Proxy headers take precedence over the
// socket address so fingerprints stay stable behind reverse proxies and CDNs.
func ExtractVisitorDescriptor(request *http.Request) VisitorDescriptor {
	if request == nil {
		return VisitorDescriptor{
			UserAgent:       unknownUserAgent,
			ClientAddress:   fallbackAddress,
			PrimaryLanguage: unknownLanguage,
		}
	}
	return VisitorDescriptor{
		UserAgent:       userAgentFrom(request),
		ClientAddress:   clientAddressFrom(request),
		PrimaryLanguage: primaryLanguageFrom(request),
	}
}

func userAgentFrom(request *http.Request) string {
	userAgent := strings.TrimSpace(request.UserAgent())
	if userAgent == "" {
		return unknownUserAgent
	}
	return userAgent
}

// primaryLanguageFrom uppercases the first Accept-Language entry with any
// quality parameters dropped, e.g. "en-US,en;q=0.9" becomes "EN-US".
func primaryLanguageFrom(request *http.Request) string {
	first := request.Header.Get("Accept-Language")
	if comma := strings.Index(first, ","); comma != -1 {
		first = first[:comma]
	}
	if semicolon := strings.Index(first, ";"); semicolon != -1 {
		first = first[:semicolon]
	}
	first = strings.TrimSpace(first)
	if first == "" || first == "*" {
		return unknownLanguage
	}
	return strings.ToUpper(first)
}

func clientAddressFrom(request *http.Request) string {
	if address := selectPreferredAddress(strings.Split(request.Header.Get("X-Forwarded-For"), ",")); address != "" {
		return address
	}

	for _, header := range []string{"X-Real-IP", "CF-Connecting-IP", "True-Client-IP", "X-Client-IP"} {
		if value := request.Header.Get(header); value != "" {
			if address := selectPreferredAddress([]string{value}); address != "" {
				return address
			}
		}
	}

	if forwarded := request.Header.Get("Forwarded"); forwarded != "" {
		if address := selectPreferredAddress(forwardedForEntries(forwarded)); address != "" {
			return address
		}
	}

	// The socket address is accepted even when private so that directly
	// connected visitors on a LAN still hash to distinct fingerprints.
	remoteHost := request.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(request.RemoteAddr); splitErr == nil {
		remoteHost = host
	}
	if address, valid := normalizeAddress(remoteHost); valid {
		return address.String()
	}

	return fallbackAddress
}

// selectPreferredAddress returns the first public IPv4 candidate, falling
// back to the first public IPv6 candidate when no IPv4 entry parses.
func selectPreferredAddress(candidates []string) string {
	var ipv6Fallback string
	for _, candidate := range candidates {
		address, valid := normalizeAddress(candidate)
		if !valid || isPrivateAddress(address) {
			continue
		}
		if address.Is4() {
			return address.String()
		}
		if ipv6Fallback == "" {
			ipv6Fallback = address.String()
		}
	}
	return ipv6Fallback
}

// normalizeAddress parses one textual address candidate, tolerating optional
// ports, surrounding brackets, quotes, and zone identifiers. IPv4-mapped
// IPv6 addresses are unmapped so both textual forms hash identically.
func normalizeAddress(raw string) (netip.Addr, bool) {
	cleaned := strings.Trim(strings.TrimSpace(raw), "\"")
	if cleaned == "" {
		return netip.Addr{}, false
	}
	if percent := strings.Index(cleaned, "%"); percent != -1 {
		cleaned = cleaned[:percent]
	}

	if addressPort, parseErr := netip.ParseAddrPort(cleaned); parseErr == nil {
		return addressPort.Addr().Unmap(), true
	}

	trimmed := strings.TrimSuffix(strings.TrimPrefix(cleaned, "["), "]")
	if address, parseErr := netip.ParseAddr(trimmed); parseErr == nil {
		return address.Unmap(), true
	}

	if host, _, splitErr := net.SplitHostPort(cleaned); splitErr == nil {
		return normalizeAddress(host)
	}

	return netip.Addr{}, false
}

func isPrivateAddress(address netip.Addr) bool {
	return address.IsPrivate() ||
		address.IsLoopback() ||
		address.IsLinkLocalUnicast() ||
		address.IsLinkLocalMulticast() ||
		address.IsUnspecified()
}

// forwardedForEntries collects the for= values of an RFC 7239 Forwarded header.
func forwardedForEntries(header string) []string {
	var entries []string
	for _, element := range strings.Split(header, ",") {
		for _, pair := range strings.Split(element, ";") {
			pair = strings.TrimSpace(pair)
			if strings.HasPrefix(strings.ToLower(pair), "for=") {
				entries = append(entries, pair[len("for="):])
			}
		}
	}
	return entries
}
