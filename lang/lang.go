package lang

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed en.yml
var defaultCatalogue []byte

var (
	mu       sync.RWMutex
	messages map[string]string
)

func init() {
	m, _, err := parse(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	messages = m
}

// Load reads a catalogue file and overlays it on the built-in English
// messages. A missing file keeps the defaults.
func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[lang] Could not read %s: %v; using built-in messages", path, err)
		return
	}

	m, active, err := parse(data)
	if err != nil {
		log.WithError(err).Errorf("[lang] Failed to parse %s; using built-in messages", path)
		return
	}

	base, _, _ := parse(defaultCatalogue)
	for k, v := range m {
		base[k] = v
	}

	mu.Lock()
	messages = base
	mu.Unlock()

	log.Printf("[lang] Loaded language %q (%d keys)", active, len(m))
}

func parse(data []byte) (map[string]string, string, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, "", err
	}

	activeLang := "en"
	if v, ok := raw["active_language"]; ok {
		if s, ok := v.(string); ok && s != "" {
			activeLang = s
		}
	}

	block, ok := raw[activeLang]
	if !ok {
		log.Printf("[lang] Language %q not found; falling back to \"en\"", activeLang)
		activeLang = "en"
		if block, ok = raw[activeLang]; !ok {
			return nil, "", errors.New("no \"en\" block")
		}
	}

	blockMap, ok := block.(map[string]interface{})
	if !ok {
		return nil, "", errors.Errorf("language block %q is not a map", activeLang)
	}

	m := make(map[string]string, len(blockMap))
	for k, v := range blockMap {
		if s, ok := v.(string); ok {
			m[k] = s
		}
	}
	return m, activeLang, nil
}

func T(key string, pairs ...string) string {
	mu.RLock()
	s, ok := messages[key]
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}

func Reload(path string) {
	Load(path)
}
