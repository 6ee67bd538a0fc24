package dynamo

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/unkn0wn-root/ddbsession/store"
)

// Config is the parsed construction-time configuration.
// Pointer fields are optional; nil means "SDK default".
type Config struct {
	Table   string
	HashKey string // "" => "id"
	Region  string

	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string

	Endpoint      string // full URL; wins over Host/Port/IsSecure
	Host          string
	Port          *int
	IsSecure      *bool
	ValidateCerts *bool

	Proxy     string
	ProxyPort *int
	ProxyUser string
	ProxyPass string

	MaxRetries      *int
	Timeout         time.Duration
	ConsistentRead  *bool
	RetryErrorCodes []string
}

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
	kindList
)

func (k kind) String() string {
	return [...]string{"string", "bool", "int", "list"}[k]
}

type optionSpec struct {
	kind     kind
	nullable bool
	apply    func(*Config, any)
}

func str(f func(*Config, string)) func(*Config, any) {
	return func(c *Config, v any) {
		if v != nil {
			f(c, v.(string))
		}
	}
}

func intp(f func(*Config, *int)) func(*Config, any) {
	return func(c *Config, v any) {
		if v != nil {
			n := v.(int)
			f(c, &n)
		}
	}
}

func boolp(f func(*Config, *bool)) func(*Config, any) {
	return func(c *Config, v any) {
		if v != nil {
			b := v.(bool)
			f(c, &b)
		}
	}
}

func list(f func(*Config, []string)) func(*Config, any) {
	return func(c *Config, v any) {
		if v != nil {
			f(c, v.([]string))
		}
	}
}

// options is the allow-list accepted by FromMap.
var options = map[string]optionSpec{
	"table_name": {kindString, true, str(func(c *Config, s string) { c.Table = s })},
	"hash_key":   {kindString, false, str(func(c *Config, s string) { c.HashKey = s })},
	"region":     {kindString, true, str(func(c *Config, s string) { c.Region = s })},

	"aws_access_key_id":     {kindString, true, str(func(c *Config, s string) { c.AccessKeyID = s })},
	"aws_secret_access_key": {kindString, true, str(func(c *Config, s string) { c.SecretAccessKey = s })},
	"security_token":        {kindString, true, str(func(c *Config, s string) { c.SessionToken = s })},
	"profile_name":          {kindString, true, str(func(c *Config, s string) { c.Profile = s })},

	"endpoint":       {kindString, true, str(func(c *Config, s string) { c.Endpoint = s })},
	"host":           {kindString, true, str(func(c *Config, s string) { c.Host = s })},
	"port":           {kindInt, true, intp(func(c *Config, n *int) { c.Port = n })},
	"is_secure":      {kindBool, false, boolp(func(c *Config, b *bool) { c.IsSecure = b })},
	"validate_certs": {kindBool, false, boolp(func(c *Config, b *bool) { c.ValidateCerts = b })},

	"proxy":      {kindString, true, str(func(c *Config, s string) { c.Proxy = s })},
	"proxy_port": {kindInt, true, intp(func(c *Config, n *int) { c.ProxyPort = n })},
	"proxy_user": {kindString, true, str(func(c *Config, s string) { c.ProxyUser = s })},
	"proxy_pass": {kindString, true, str(func(c *Config, s string) { c.ProxyPass = s })},

	"max_retries":       {kindInt, true, intp(func(c *Config, n *int) { c.MaxRetries = n })},
	"timeout":           {kindInt, true, intp(func(c *Config, n *int) { c.Timeout = time.Duration(*n) * time.Second })},
	"consistent_read":   {kindBool, false, boolp(func(c *Config, b *bool) { c.ConsistentRead = b })},
	"retry_error_codes": {kindList, true, list(func(c *Config, l []string) { c.RetryErrorCodes = l })},
}

// OptionNames returns the accepted option names, sorted.
func OptionNames() []string {
	out := make([]string, 0, len(options))
	for k := range options {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OptionError reports an unknown or mistyped option.
type OptionError struct {
	Option string
	Want   string // "" for unknown options
	Value  any
	Err    error
}

func (e *OptionError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("dynamo: unsupported option %q", e.Option)
	}
	if e.Err != nil {
		return fmt.Sprintf("dynamo: option %q: want %s, got %T (%v): %v", e.Option, e.Want, e.Value, e.Value, e.Err)
	}
	return fmt.Sprintf("dynamo: option %q: want %s, got %T (%v)", e.Option, e.Want, e.Value, e.Value)
}

func (e *OptionError) Unwrap() error { return e.Err }

// FromMap parses loosely typed options (config files, env, flags) against the
// allow-list. Unknown names and values of the wrong kind fail with
// *OptionError; a missing table fails with store.ErrMissingTable. Strings are
// coerced for bool/int/list options ("true", "8000", "a,b").
func FromMap(m map[string]any) (Config, error) {
	var cfg Config
	for _, name := range sortedKeys(m) {
		opt, ok := options[name]
		if !ok {
			return Config{}, &OptionError{Option: name}
		}
		v, err := coerce(opt, m[name])
		if err != nil {
			want := opt.kind.String()
			if opt.nullable {
				want += " or null"
			}
			return Config{}, &OptionError{Option: name, Want: want, Value: m[name], Err: err}
		}
		opt.apply(&cfg, v)
	}
	if cfg.Table == "" {
		return Config{}, store.ErrMissingTable
	}
	return cfg, nil
}

func sortedKeys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func coerce(opt optionSpec, v any) (any, error) {
	if v == nil {
		if opt.nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("null not allowed")
	}
	switch opt.kind {
	case kindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("not a string")
		}
		return s, nil
	case kindBool:
		if _, isNum := v.(float64); isNum {
			return nil, fmt.Errorf("not a bool")
		}
		return cast.ToBoolE(v)
	case kindInt:
		if _, isBool := v.(bool); isBool {
			return nil, fmt.Errorf("not an int")
		}
		if f, isFloat := v.(float64); isFloat && f != float64(int64(f)) {
			return nil, fmt.Errorf("not an int")
		}
		return cast.ToIntE(v)
	case kindList:
		if s, ok := v.(string); ok {
			return splitList(s), nil
		}
		return cast.ToStringSliceE(v)
	}
	return nil, fmt.Errorf("unknown kind")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
