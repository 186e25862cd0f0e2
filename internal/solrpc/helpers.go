package solrpc

import (
	"encoding/base64"
	"strconv"
	"strings"
)

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func parseUint(s string) uint64 {
	n, _ := strconv.ParseUint(s, 10, 64)
	return n
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
