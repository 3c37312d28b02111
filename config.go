package idxstore

import (
	"fmt"
	"os"
	"strconv"
)

// Hasher names accepted by Options.Hasher.
const (
	HasherMidSquare = "midsquare"
	HasherXXHash    = "xxhash"
)

// DefaultCapacity is the initial hash table capacity used when none is given.
const DefaultCapacity = 11

// Options holds the configuration of a record registry and its surrounding binaries.
type Options struct {
	// UsersCapacity is the initial capacity of the users hash table.
	UsersCapacity int `json:"users_capacity"`
	// ReportsCapacity is the initial capacity of the reports hash table.
	ReportsCapacity int `json:"reports_capacity"`
	// Hasher selects the primary hash of the hash tables, "midsquare" (default) or "xxhash".
	Hasher string `json:"hasher"`
	// AllowOverwrite makes user and report inserts replace an existing record instead of failing.
	AllowOverwrite bool `json:"allow_overwrite"`
	// PredicateCacheSize caps the count of compiled selector predicates kept in memory.
	PredicateCacheSize int `json:"predicate_cache_size"`
	// ListenAddress is the host:port the REST API binds to.
	ListenAddress string `json:"listen_address"`
	// MetricsNamespace prefixes the exported Prometheus metric names.
	MetricsNamespace string `json:"metrics_namespace"`
}

// DefaultOptions returns the options used when no configuration file is given.
func DefaultOptions() Options {
	return Options{
		UsersCapacity:      DefaultCapacity,
		ReportsCapacity:    DefaultCapacity,
		Hasher:             HasherMidSquare,
		PredicateCacheSize: 64,
		ListenAddress:      "localhost:8080",
		MetricsNamespace:   "idxstore",
	}
}

// LoadOptions reads the JSON configuration file at path, if path is not empty, on top of
// DefaultOptions and then applies IDXSTORE_* environment overrides.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path != "" {
		ba, err := os.ReadFile(path)
		if err != nil {
			return opts, fmt.Errorf("reading config %s failed: %w", path, err)
		}
		if err := NewMarshaler().Unmarshal(ba, &opts); err != nil {
			return opts, fmt.Errorf("parsing config %s failed: %w", path, err)
		}
	}
	if err := opts.applyEnv(); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}

func (o *Options) applyEnv() error {
	if v := os.Getenv("IDXSTORE_LISTEN_ADDRESS"); v != "" {
		o.ListenAddress = v
	}
	if v := os.Getenv("IDXSTORE_HASHER"); v != "" {
		o.Hasher = v
	}
	if v := os.Getenv("IDXSTORE_METRICS_NAMESPACE"); v != "" {
		o.MetricsNamespace = v
	}
	if v := os.Getenv("IDXSTORE_ALLOW_OVERWRITE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Errorf(InvalidArgument, "IDXSTORE_ALLOW_OVERWRITE=%q: %v", v, err)
		}
		o.AllowOverwrite = b
	}
	for name, dst := range map[string]*int{
		"IDXSTORE_USERS_CAPACITY":       &o.UsersCapacity,
		"IDXSTORE_REPORTS_CAPACITY":     &o.ReportsCapacity,
		"IDXSTORE_PREDICATE_CACHE_SIZE": &o.PredicateCacheSize,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Errorf(InvalidArgument, "%s=%q: %v", name, v, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks the option values, filling zero capacities with DefaultCapacity.
func (o *Options) Validate() error {
	if o.UsersCapacity == 0 {
		o.UsersCapacity = DefaultCapacity
	}
	if o.ReportsCapacity == 0 {
		o.ReportsCapacity = DefaultCapacity
	}
	if o.UsersCapacity < 0 || o.ReportsCapacity < 0 {
		return NewError(InvalidCapacity, o)
	}
	switch o.Hasher {
	case "":
		o.Hasher = HasherMidSquare
	case HasherMidSquare, HasherXXHash:
	default:
		return Errorf(InvalidArgument, "unknown hasher %q", o.Hasher)
	}
	if o.PredicateCacheSize <= 0 {
		return Errorf(InvalidArgument, "predicate cache size must be positive, got %d", o.PredicateCacheSize)
	}
	return nil
}
