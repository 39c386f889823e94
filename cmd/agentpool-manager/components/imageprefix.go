package components

import (
	"strings"

	"github.com/go-logr/logr"

	"agentpool.run/internal/imageprefix"
)

// Parses "from=to" pairs separated by commas. Malformed pairs are logged and dropped.
func prepareImagePrefixOverrides(log logr.Logger, flag string) []imageprefix.Override {
	var overrides []imageprefix.Override
	for _, pair := range splitList(flag) {
		from, to, found := strings.Cut(pair, "=")
		if !found || len(from) == 0 || len(to) == 0 {
			log.Info("ignoring invalid image prefix override", "override", pair)
			continue
		}
		log.Info("registered image prefix override", "from", from, "to", to)
		overrides = append(overrides, imageprefix.Override{From: from, To: to})
	}
	return overrides
}
