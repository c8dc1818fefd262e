// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/sha256"
	"encoding/hex"
	"net/netip"
	"strings"
)

// RequestMeta is the subset of a request a session can be bound to.
type RequestMeta struct {
	UserAgent string
	IP        string
}

// browserTokens is checked in order; the first product found wins.
// Chromium derivatives advertise "Chrome/" and "Safari/" too, so they come first.
var browserTokens = []string{"Edg", "OPR", "Firefox", "Chrome", "Version", "curl"}

// Fingerprint digests the browser family, its major version and the client
// network class. It is a hardening check, never a credential.
func Fingerprint(meta RequestMeta) string {
	material := userAgentFamily(meta.UserAgent) + "|" + ipClass(meta.IP)
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// userAgentFamily reduces a User-Agent to "family/major".
func userAgentFamily(userAgent string) string {
	products := strings.Fields(userAgent)

	for _, want := range browserTokens {
		for _, product := range products {
			name, version, ok := strings.Cut(product, "/")
			if !ok || name != want {
				continue
			}
			major, _, _ := strings.Cut(version, ".")
			return strings.ToLower(name) + "/" + major
		}
	}

	// Unknown agents fall back to their first product token.
	if len(products) > 0 {
		name, version, _ := strings.Cut(products[0], "/")
		major, _, _ := strings.Cut(version, ".")
		return strings.ToLower(name) + "/" + major
	}

	return ""
}

// ipClass returns the /24 (IPv4) or /48 (IPv6) network of addr.
func ipClass(addr string) string {
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return strings.TrimSpace(addr)
	}

	ip = ip.Unmap()
	bits := 48
	if ip.Is4() {
		bits = 24
	}

	prefix, err := ip.Prefix(bits)
	if err != nil {
		return ip.String()
	}
	return prefix.String()
}
