package storefront

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// productPath marks product pages among the sitemap entries.
const productPath = "/produkt/"

type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// parseSitemap returns the product page URLs listed in a sitemap, in order.
func parseSitemap(body []byte) ([]string, error) {
	var set urlSet
	dec := xml.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode sitemap: %w", err)
	}

	urls := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		loc := strings.TrimSpace(u.Loc)
		if strings.Contains(loc, productPath) {
			urls = append(urls, loc)
		}
	}
	return urls, nil
}
