package devicetext

import (
	"regexp"
	"strings"
)

// Label conventions vary per vendor, so extraction tries an ordered list of
// patterns and takes the first capturing-group hit. Tokens are uppercase
// letters, digits and hyphens; input text is uppercased beforehand.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`MODEL\s*NO[:.]?\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`MODEL\s*[:.]\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`MODEL\s*NUMBER[:.]?\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`P/N[:.]?\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`PART\s*NUMBER[:.]?\s*([A-Z0-9\-]+)`),
	// Generic vendor code: letters then digits then an optional suffix,
	// e.g. NVG468MQ, TG1682G.
	regexp.MustCompile(`\b([A-Z]{2,4}[0-9]{3,5}[A-Z0-9]*)\b`),
}

var serialPatterns = []*regexp.Regexp{
	regexp.MustCompile(`S/N[:.]?\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`SERIAL\s*[:.]\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`SERIAL\s*NUMBER[:.]?\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`SN\s*[:.]\s*([A-Z0-9\-]+)`),
	regexp.MustCompile(`\bSN\s+([A-Z0-9\-]+)`),
}

func matchFirst(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// Keyword groups checked in priority order; the first group with a hit wins.
// ONT outranks Modem outranks Router, so a fiber terminal that mentions
// Wi-Fi on its label still reads as an ONT.
var productKeywords = []struct {
	product  string
	keywords []string
}{
	{ProductONT, []string{"ONT", "OPTICAL NETWORK TERMINAL", "FIBER"}},
	{ProductModem, []string{"MODEM", "CABLE MODEM", "DSL"}},
	{ProductRouter, []string{"ROUTER", "WIRELESS", "WI-FI", "WIFI"}},
}

func detectProductType(upper string) string {
	for _, g := range productKeywords {
		for _, kw := range g.keywords {
			if strings.Contains(upper, kw) {
				return g.product
			}
		}
	}
	return ProductUnknown
}
