package gateway

import (
	"os"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"

	"github.com/renato0307/grove/internal/logging"
)

// publicKeyHandler admits keys present in authorizedKeysPath. The file is
// loaded on every attempt so operators can add or revoke keys while the
// daemon runs.
func publicKeyHandler(authorizedKeysPath string) ssh.PublicKeyHandler {
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		attrs := []any{
			"user", ctx.User(),
			"remote_addr", ctx.RemoteAddr().String(),
			"fingerprint", gossh.FingerprintSHA256(key),
			"key_type", key.Type(),
		}

		comment, ok := lookupAuthorizedKey(key, authorizedKeysPath)
		if !ok {
			logging.Logger.Warn("Rejected SSH key", attrs...)
			return false
		}
		logging.Logger.Info("SSH key accepted", append(attrs, "comment", comment)...)
		return true
	}
}

// lookupAuthorizedKey reports whether key is listed in the authorized_keys
// file and returns the comment of the matching entry.
func lookupAuthorizedKey(key ssh.PublicKey, path string) (string, bool) {
	keys, err := loadAuthorizedKeys(path)
	if err != nil {
		logging.Logger.Warn("Failed to load authorized keys", "path", path, "error", err)
		return "", false
	}
	comment, ok := keys[string(key.Marshal())]
	return comment, ok
}

// loadAuthorizedKeys parses an OpenSSH authorized_keys file into a set keyed
// by the wire encoding of each key. Lines that fail to parse are skipped.
func loadAuthorizedKeys(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string)
	for len(data) > 0 {
		key, comment, _, rest, err := gossh.ParseAuthorizedKey(data)
		if err != nil {
			// ParseAuthorizedKey skips comments and malformed lines itself and
			// only fails once nothing parseable is left
			if len(keys) == 0 {
				logging.Logger.Debug("No usable entries in authorized keys", "path", path, "error", err)
			}
			break
		}
		keys[string(key.Marshal())] = comment
		data = rest
	}
	return keys, nil
}
