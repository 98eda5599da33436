package protocol

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var charsets = map[string]*charmap.Charmap{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-2":   charmap.ISO8859_2,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1250": charmap.Windows1250,
	"windows-1251": charmap.Windows1251,
	"windows-1252": charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
	"cp437":        charmap.CodePage437,
}

// LookupCharset returns the charmap for name. UTF-8 (or an empty name)
// yields a nil charmap.
func LookupCharset(name string) (*charmap.Charmap, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "utf-8" || key == "utf8" {
		return nil, nil
	}
	cm, ok := charsets[key]
	if !ok {
		return nil, fmt.Errorf("unsupported string encoding %q", name)
	}
	return cm, nil
}

func decodeString(cm *charmap.Charmap, b []byte) string {
	if cm == nil {
		return string(b)
	}
	s, err := cm.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func encodeString(cm *charmap.Charmap, s string) []byte {
	if cm == nil {
		return []byte(s)
	}
	b, err := cm.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return b
}
