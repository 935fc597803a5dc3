// File: httpmsg/query.go
// Author: momentics <momentics@gmail.com>

package httpmsg

import "strings"

// ParseQuery splits s into '&'-separated key=value pairs. A bare key maps to
// the empty string and later keys overwrite earlier ones. Values are kept
// exactly as sent; no percent-decoding is applied.
func ParseQuery(s string) map[string]string {
	params := make(map[string]string)
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		if key, value, ok := strings.Cut(pair, "="); ok {
			params[key] = value
		} else {
			params[pair] = ""
		}
	}
	return params
}
