// Package featureflags evaluates on/off and percentage rollout flags.
package featureflags

import (
	"hash/fnv"
	"maps"
	"strconv"
	"strings"
)

// Flags gating the social login bridges.
const (
	KakaoLogin    = "kakao_login"
	FirebaseLogin = "firebase_login"
)

// rule is a parsed flag value. percent is 0..100; on/off map to 100/0.
// A value that cannot be parsed is kept with percent -1 and never enables.
type rule struct {
	value   string
	percent int
}

// Manager holds flags parsed from a FEATURE_FLAGS list such as
// "kakao_login=on,firebase_login=off,explore_v2=25%".
type Manager struct {
	rules map[string]rule
}

// NewManager parses a comma-separated name=value list. Entries without a
// name or value are ignored; names and values are case-insensitive.
func NewManager(raw string) *Manager {
	rules := make(map[string]rule)
	for entry := range strings.SplitSeq(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		rules[name] = rule{value: value, percent: parsePercent(value)}
	}
	return &Manager{rules: rules}
}

func parsePercent(value string) int {
	switch value {
	case "on", "true", "1":
		return 100
	case "off", "false", "0":
		return 0
	}
	n, found := strings.CutSuffix(value, "%")
	if !found {
		return -1
	}
	pct, err := strconv.Atoi(n)
	if err != nil {
		return -1
	}
	return min(max(pct, 0), 100)
}

// Enabled reports whether name is on for userID. Unknown flags are off.
// A partial rollout never includes the anonymous user (id 0), and a given
// user always lands in the same bucket for a given flag.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	r, ok := m.rules[name]
	if !ok {
		return false
	}
	switch {
	case r.percent >= 100:
		return true
	case r.percent <= 0, userID == 0:
		return false
	}
	return bucket(name, userID) < r.percent
}

// EnabledOr is Enabled for configured flags and def for unknown ones.
func (m *Manager) EnabledOr(name string, userID uint, def bool) bool {
	if m == nil {
		return def
	}
	if _, ok := m.rules[normalize(name)]; !ok {
		return def
	}
	return m.Enabled(name, userID)
}

// Raw returns the configured values keyed by flag name.
func (m *Manager) Raw() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for name, r := range m.rules {
		out[name] = r.value
	}
	return out
}

// Snapshot evaluates every configured flag for userID.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := map[string]bool{}
	if m == nil {
		return out
	}
	for name := range maps.Keys(m.rules) {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name + ":" + strconv.FormatUint(uint64(userID), 10)))
	return int(h.Sum32() % 100)
}
