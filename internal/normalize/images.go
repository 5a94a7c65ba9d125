package normalize

import (
	"strings"

	"rental-aggregator/internal/models"
)

// photoKeys are tried in order on photo objects.
var photoKeys = []string{"url", "href", "desktop", "high", "medium", "thumb"}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// cleanImages keeps absolute http(s) URLs, first occurrence wins.
func cleanImages(urls []string) []string {
	out := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if !isHTTPURL(u) {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// photoURL accepts a bare URL string or an object carrying one under a size-variant key.
func photoURL(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if rec := models.AsRecord(v); rec != nil {
		for _, k := range photoKeys {
			if s := rec.Text(k); s != "" {
				return s
			}
		}
	}
	return ""
}

func photoURLs(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if u := photoURL(v); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// hrefs collects the href of each photo object, or the value itself when it is a string.
func hrefs(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
			continue
		}
		if h := models.AsRecord(v).Text("href"); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func stringsOf(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// genericImages walks the photo shapes seen across listing providers. The first
// shape present wins, even if none of its URLs survive filtering.
func genericImages(rec models.RawRecord) []string {
	if photos := rec.List("photos"); len(photos) > 0 {
		return photoURLs(photos)
	}
	if photo := rec.Map("media", "photo"); photo != nil {
		var out []string
		for _, k := range []string{"high", "desktop", "medium", "thumb"} {
			if s := photo.Text(k); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := rec.Text("imgSrc"); s != "" {
		return []string{s}
	}
	if s := rec.Text("image"); s != "" {
		return []string{s}
	}
	if media := rec.List("Media"); len(media) > 0 {
		var out []string
		for _, m := range media {
			if u := models.AsRecord(m).Text("url"); u != "" {
				out = append(out, u)
			}
		}
		return out
	}
	if rec.Text("zpid") != "" {
		var out []string
		for _, p := range rec.List("hdpData", "homeInfo", "photos") {
			for _, jpeg := range models.AsRecord(p).List("mixedSources", "jpeg") {
				if u := models.AsRecord(jpeg).Text("url"); u != "" {
					out = append(out, u)
				}
			}
		}
		return out
	}
	return nil
}
