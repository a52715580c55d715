package params

import (
	"fmt"
	"os"
	"sort"

	"github.com/roadrunner-server/errors"
	"gopkg.in/yaml.v3"
)

// fileKeys are the parameters a config file may set. "config" itself is
// excluded so files cannot chain.
var fileKeys = map[string]bool{
	KeyServer:       true,
	KeyUsername:     true,
	KeyPassword:     true,
	KeyPort:         true,
	KeyReadFolder:   true,
	KeyMoveToFolder: true,
	KeyArchiveDir:   true,
	KeySFTPHost:     true,
	KeySFTPUser:     true,
	KeySFTPPass:     true,
	KeySFTPDir:      true,
	KeySFTPHostKey:  true,
	KeyLogLevel:     true,
	KeyInsecureTLS:  true,
}

// LoadFile reads a flat YAML mapping of parameter names to scalar values.
//
//	server: imap.example.com
//	port: 993
//	readfolder: INBOX
func LoadFile(filename string) (Values, error) {
	const op = errors.Op("params_load_file")

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.E(op, errors.Errorf("failed to read config file: %v", err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.E(op, errors.Errorf("failed to parse config file: %v", err))
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(Values, len(raw))
	for _, k := range keys {
		if !fileKeys[k] {
			return nil, errors.E(op, errors.Errorf("unknown config key: %s", k))
		}
		switch v := raw[k].(type) {
		case nil:
			continue
		case string:
			values[k] = v
		case int, int64, uint64, float64, bool:
			values[k] = fmt.Sprint(v)
		default:
			return nil, errors.E(op, errors.Errorf("config key %s must be a scalar", k))
		}
	}
	return values, nil
}
