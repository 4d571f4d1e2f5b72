package entities

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
	logger "github.com/sirupsen/logrus"
)

// AgeIdentityEnv names the environment variable holding the age identity file
// used to decrypt ".age" secret files.
const AgeIdentityEnv = "SNIPBACKUP_AGE_IDENTITY"

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// ResolveSecret expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the secret from the file.
// Files ending in ".age" are decrypted first.
func ResolveSecret(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	info, statErr := os.Stat(resolved)
	if statErr != nil || info.IsDir() {
		return resolved
	}

	data, readErr := os.ReadFile(resolved)
	if readErr != nil {
		logger.Warnf("Failed to read secret file %q: %v", resolved, readErr)
		return resolved
	}

	if strings.HasSuffix(resolved, ".age") {
		plain, decryptErr := decryptAge(data, os.Getenv(AgeIdentityEnv))
		if decryptErr != nil {
			logger.Warnf("Failed to decrypt secret file %q: %v", resolved, decryptErr)
			return ""
		}
		data = plain
	}

	logger.Infof("Read secret from file %q", resolved)
	return strings.TrimSpace(string(data))
}

// decryptAge decrypts binary or armored age data with the identities found in identityPath.
func decryptAge(data []byte, identityPath string) ([]byte, error) {
	if identityPath == "" {
		return nil, fmt.Errorf("%s is not set", AgeIdentityEnv)
	}

	identityFile, err := os.Open(identityPath)
	if err != nil {
		return nil, fmt.Errorf("opening identity file: %w", err)
	}
	defer identityFile.Close()

	identities, err := age.ParseIdentities(identityFile)
	if err != nil {
		return nil, fmt.Errorf("parsing identity file: %w", err)
	}

	var src io.Reader = bytes.NewReader(data)
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(armor.Header)) {
		src = armor.NewReader(bytes.NewReader(bytes.TrimSpace(data)))
	}

	r, err := age.Decrypt(src, identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted data: %w", err)
	}
	return plain, nil
}
