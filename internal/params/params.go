// Package params turns "--key value" command-line tokens into run options.
package params

import (
	"strconv"
	"strings"

	"github.com/Warky-Devs/WkMailMover/internal/failure"
)

const flagPrefix = "--"

// Parameter names accepted on the command line and in config files.
const (
	KeyServer       = "server"
	KeyUsername     = "username"
	KeyPassword     = "password"
	KeyPort         = "port"
	KeyReadFolder   = "readfolder"
	KeyMoveToFolder = "movetofolder"

	KeyConfig      = "config"
	KeyArchiveDir  = "archivedir"
	KeySFTPHost    = "sftphost"
	KeySFTPUser    = "sftpuser"
	KeySFTPPass    = "sftppassword"
	KeySFTPDir     = "sftpdir"
	KeySFTPHostKey = "sftphostkey"
	KeyLogLevel    = "loglevel"
	KeyInsecureTLS = "insecuretls"
)

// Required lists the parameters every run needs, in reporting order.
var Required = []string{KeyServer, KeyUsername, KeyPassword, KeyPort, KeyReadFolder}

// Values maps parameter names to their raw string values.
type Values map[string]string

// usageError is an argument problem reported to the user verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

func argumentError(op, msg string) error {
	return failure.E(failure.Argument, op, usageError(msg))
}

// Parse reads alternating flag/value tokens. Every flag must start with "--"
// and be followed by a value that does not. A repeated flag keeps its last
// value.
func Parse(args []string) (Values, error) {
	const op = "params.parse"

	values := make(Values, len(args)/2)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, flagPrefix) {
			return nil, argumentError(op, "Invalid argument format: "+tok)
		}
		if i+1 >= len(args) || strings.HasPrefix(args[i+1], flagPrefix) {
			return nil, argumentError(op, "Missing value for parameter: "+tok)
		}
		values[strings.TrimPrefix(tok, flagPrefix)] = args[i+1]
		i++
	}
	return values, nil
}

// Missing returns the required keys absent from v, in Required order.
func (v Values) Missing() []string {
	var missing []string
	for _, key := range Required {
		if _, ok := v[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// SFTPOptions configures the optional SFTP archive upload.
type SFTPOptions struct {
	Addr     string
	User     string
	Password string
	Dir      string
	HostKey  string
}

// Enabled reports whether an SFTP host was given.
func (o SFTPOptions) Enabled() bool { return o.Addr != "" }

// Options is the typed view of a validated parameter set.
type Options struct {
	Server       string
	Username     string
	Password     string
	Port         int
	ReadFolder   string
	MoveToFolder string
	InsecureTLS  bool

	ArchiveDir string
	SFTP       SFTPOptions
	LogLevel   string
}

// Resolve merges an optional config file beneath the command-line values,
// checks required parameters and parses the port.
func Resolve(cli Values) (*Options, error) {
	const op = "params.resolve"

	merged := cli
	if path := cli[KeyConfig]; path != "" {
		fileValues, err := LoadFile(path)
		if err != nil {
			return nil, argumentError(op, "Failed to load config: "+err.Error())
		}
		merged = make(Values, len(fileValues)+len(cli))
		for k, val := range fileValues {
			merged[k] = val
		}
		for k, val := range cli {
			merged[k] = val
		}
	}

	if missing := merged.Missing(); len(missing) > 0 {
		return nil, argumentError(op, "Missing parameters: "+strings.Join(missing, ", "))
	}

	port, err := strconv.Atoi(merged[KeyPort])
	if err != nil || port < 1 || port > 65535 {
		return nil, argumentError(op, "Invalid port: "+merged[KeyPort])
	}

	insecure := false
	if raw := merged[KeyInsecureTLS]; raw != "" {
		insecure, err = strconv.ParseBool(raw)
		if err != nil {
			return nil, argumentError(op, "Invalid insecuretls: "+raw)
		}
	}

	opts := &Options{
		Server:       merged[KeyServer],
		Username:     merged[KeyUsername],
		Password:     merged[KeyPassword],
		Port:         port,
		ReadFolder:   merged[KeyReadFolder],
		MoveToFolder: merged[KeyMoveToFolder],
		InsecureTLS:  insecure,
		ArchiveDir:   merged[KeyArchiveDir],
		SFTP: SFTPOptions{
			Addr:     merged[KeySFTPHost],
			User:     merged[KeySFTPUser],
			Password: merged[KeySFTPPass],
			Dir:      merged[KeySFTPDir],
			HostKey:  merged[KeySFTPHostKey],
		},
		LogLevel: merged[KeyLogLevel],
	}
	return opts, nil
}
