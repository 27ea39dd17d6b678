package runtime

import "strings"

// NormalizeEnv maps APP_ENV spellings onto local, dev or prod.
func NormalizeEnv(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "local", "localhost":
		return EnvLocal
	case "dev", "development", "staging":
		return EnvDev
	default:
		return EnvProd
	}
}
