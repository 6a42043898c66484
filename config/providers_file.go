package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dagengine/dagengine-sub004/services/providers"
)

// adapterFile is the on-disk layout of ADAPTER_CONFIG_FILE:
//
//	providers:
//	  openai:
//	    apiKey: ${OPENAI_API_KEY}
//	    model: gpt-4o-mini
//	  gemini:
//	    apiKeyEnv: GEMINI_API_KEY
//	    timeout: 45s
//
// Unknown per-provider keys land in ProviderConfig.Extra.
type adapterFile struct {
	Providers providers.AdapterConfig `yaml:"providers"`
}

// apiKeyEnvKey names the env var holding the key when apiKey is left empty.
const apiKeyEnvKey = "apiKeyEnv"

// envRef matches ${VAR} only; a bare $ is literal.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// LoadAdapterConfigFile reads a YAML provider file. ${VAR} references are
// expanded from the environment before parsing.
func LoadAdapterConfigFile(path string) (providers.AdapterConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read adapter config %s: %w", path, err)
	}
	return ParseAdapterConfig(expandEnvRefs(data))
}

// ParseAdapterConfig decodes YAML provider settings.
func ParseAdapterConfig(data []byte) (providers.AdapterConfig, error) {
	var file adapterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse adapter config: %w", err)
	}
	if file.Providers == nil {
		return providers.AdapterConfig{}, nil
	}

	for name, pc := range file.Providers {
		envName, ok := pc.Extra[apiKeyEnvKey].(string)
		if !ok {
			continue
		}
		delete(pc.Extra, apiKeyEnvKey)
		if len(pc.Extra) == 0 {
			pc.Extra = nil
		}
		if pc.APIKey == "" && envName != "" {
			pc.APIKey = strings.TrimSpace(os.Getenv(envName))
		}
		file.Providers[name] = pc
	}
	return file.Providers, nil
}

func expandEnvRefs(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(envRef.FindSubmatch(ref)[1])))
	})
}
