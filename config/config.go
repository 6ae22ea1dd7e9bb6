package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	btclogv1 "github.com/btcsuite/btclog"
	flags "github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	TransportREST = "rest"
	TransportRPC  = "rpc"

	defaultCandidatesFile = "candidates.txt"
)

// negativeHeight matches a negative start height, which go-flags would
// otherwise read as a cluster of short options.
var negativeHeight = regexp.MustCompile(`^-[0-9]+$`)

// ErrUsage marks configuration errors that should exit with the argument
// error status.
var ErrUsage = errors.New("usage error")

// Config is the parsed command line, with defaults taken from the
// environment and a .env file in the working directory.
type Config struct {
	Host           string        `short:"o" long:"host" env:"REST_HOST" default:"localhost" description:"Bitcoin Core REST host"`
	Port           int           `short:"p" long:"port" env:"REST_PORT" default:"8332" description:"Bitcoin Core REST port"`
	CandidatesFile string        `short:"f" long:"filename" env:"CANDIDATES_FILE" default:"candidates.txt" description:"File to write identifiers of candidate transactions to"`
	Verbose        bool          `short:"v" long:"verbose" description:"Increase logging verbosity to debug"`
	DebugLevel     string        `long:"debuglevel" env:"DEBUG_LEVEL" default:"info" description:"Logging level: trace, debug, info, warn, error, critical, off"`
	Timeout        time.Duration `long:"timeout" env:"NODE_TIMEOUT" default:"3s" description:"Timeout for every request to the node"`
	Transport      string        `long:"transport" env:"TRANSPORT" default:"rest" choice:"rest" choice:"rpc" description:"Node interface to fetch blocks from"`
	RPCURL         string        `long:"rpcurl" env:"RPC_URL" description:"Bitcoin Core JSON-RPC URL, used with --transport=rpc"`
	RPCUser        string        `long:"rpcuser" env:"RPC_USER" description:"JSON-RPC user"`
	RPCPassword    string        `long:"rpcpass" env:"RPC_PASSWORD" description:"JSON-RPC password"`
	CacheDir       string        `long:"cachedir" env:"CACHE_DIR" description:"Directory of a raw block cache, disabled when empty"`
	ReportFile     string        `long:"report" env:"REPORT_FILE" description:"Parquet file to write match details to, disabled when empty"`

	Args struct {
		Start string `positional-arg-name:"start" required:"yes" description:"Start block height, a negative value scans the last n blocks"`
		End   string `positional-arg-name:"end" description:"End block height, default is the latest block"`
	} `positional-args:"yes"`

	// StartHeight and EndHeight are the parsed positional arguments.
	StartHeight int64 `no-flag:"true"`
	EndHeight   int64 `no-flag:"true"`

	// LogLevel is the parsed logging level.
	LogLevel btclogv1.Level `no-flag:"true"`
}

// Load parses args on top of the environment. A .env file, when present, is
// loaded into the environment first without overriding variables already
// set. Help requests are returned as a *flags.Error of type flags.ErrHelp
// after printing usage to out.
func Load(args []string, out io.Writer) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	parser := flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[options] start [end]"

	if _, err := parser.ParseArgs(positionalHeights(args)); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(out, err)
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	return &cfg, nil
}

// positionalHeights ends option parsing at the first negative height so that
// "-10" is read as the start height. Options must come before it.
func positionalHeights(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args
		}
		if negativeHeight.MatchString(arg) {
			escaped := make([]string, 0, len(args)+1)
			escaped = append(escaped, args[:i]...)
			escaped = append(escaped, "--")
			return append(escaped, args[i:]...)
		}
	}
	return args
}

func (c *Config) validate() error {
	var err error

	c.StartHeight, err = strconv.ParseInt(c.Args.Start, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid start height %q", c.Args.Start)
	}
	if c.Args.End != "" {
		c.EndHeight, err = strconv.ParseInt(c.Args.End, 10, 64)
		if err != nil || c.EndHeight < 0 {
			return fmt.Errorf("invalid end height %q", c.Args.End)
		}
	}

	level, ok := btclogv1.LevelFromString(c.DebugLevel)
	if !ok {
		return fmt.Errorf("invalid debug level %q", c.DebugLevel)
	}
	if c.Verbose && level > btclogv1.LevelDebug {
		level = btclogv1.LevelDebug
	}
	c.LogLevel = level

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %v", c.Timeout)
	}
	if c.CandidatesFile == "" {
		c.CandidatesFile = defaultCandidatesFile
	}

	if c.Transport == TransportRPC {
		if c.RPCURL == "" || c.RPCUser == "" || c.RPCPassword == "" {
			return errors.New("missing required RPC settings " +
				"(RPC_URL, RPC_USER, RPC_PASSWORD)")
		}
	}

	return nil
}

// NodeAddress describes where blocks are fetched from, with secrets masked.
func (c *Config) NodeAddress() string {
	if c.Transport == TransportRPC {
		return fmt.Sprintf("%s (user %s, password %s)", c.RPCURL,
			c.RPCUser, maskSecret(c.RPCPassword))
	}
	return fmt.Sprintf("http://%s:%d/rest", c.Host, c.Port)
}

func maskSecret(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
