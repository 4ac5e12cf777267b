package Database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/spf13/cast"
)

var ErrMissingKey = errors.New("key not found")

// Database is a named tree of typed key/value pairs used for input decks and
// restart files
type Database struct {
	Name string
	keys map[string]interface{}
}

func NewDatabase(name string) *Database {
	return &Database{Name: name, keys: make(map[string]interface{})}
}

func (db *Database) KeyExists(key string) bool {
	_, ok := db.keys[key]
	return ok
}

func (db *Database) Keys() (keys []string) {
	for k := range db.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return
}

func (db *Database) PutString(key, val string)            { db.keys[key] = val }
func (db *Database) PutInteger(key string, val int)       { db.keys[key] = val }
func (db *Database) PutDouble(key string, val float64)    { db.keys[key] = val }
func (db *Database) PutBool(key string, val bool)         { db.keys[key] = val }
func (db *Database) PutIntegerVector(key string, v []int) { db.keys[key] = append([]int(nil), v...) }
func (db *Database) PutDoubleVector(key string, v []float64) {
	db.keys[key] = append([]float64(nil), v...)
}
func (db *Database) PutStringVector(key string, v []string) {
	db.keys[key] = append([]string(nil), v...)
}

// PutDatabase creates (or replaces) the sub database stored under key
func (db *Database) PutDatabase(key string) (sub *Database) {
	sub = NewDatabase(key)
	db.keys[key] = sub
	return
}

func (db *Database) IsDatabase(key string) bool {
	_, ok := db.keys[key].(*Database)
	return ok
}

func (db *Database) missing(key string) error {
	return fmt.Errorf("%s: %q: %w", db.Name, key, ErrMissingKey)
}

func (db *Database) get(key string) (val interface{}, err error) {
	var ok bool
	if val, ok = db.keys[key]; !ok {
		err = db.missing(key)
	}
	return
}

func (db *Database) wrap(key string, err error) error {
	return fmt.Errorf("%s: %q: %w", db.Name, key, err)
}

func (db *Database) GetString(key string) (s string, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if s, err = cast.ToStringE(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetInteger(key string) (i int, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if i, err = cast.ToIntE(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetDouble(key string) (f float64, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if f, err = cast.ToFloat64E(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetBool(key string) (b bool, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if b, err = cast.ToBoolE(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetIntegerVector(key string) (v []int, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if v, err = cast.ToIntSliceE(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetDoubleVector(key string) (v []float64, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	switch vals := val.(type) {
	case []float64:
		v = append([]float64(nil), vals...)
	case []interface{}:
		v = make([]float64, len(vals))
		for i, iv := range vals {
			if v[i], err = cast.ToFloat64E(iv); err != nil {
				err = db.wrap(key, err)
				return
			}
		}
	default:
		var f float64
		if f, err = cast.ToFloat64E(val); err != nil {
			err = db.wrap(key, err)
			return
		}
		v = []float64{f}
	}
	return
}

func (db *Database) GetStringVector(key string) (v []string, err error) {
	var val interface{}
	if val, err = db.get(key); err != nil {
		return
	}
	if v, err = cast.ToStringSliceE(val); err != nil {
		err = db.wrap(key, err)
	}
	return
}

func (db *Database) GetDatabase(key string) (sub *Database, err error) {
	var (
		val interface{}
		ok  bool
	)
	if val, err = db.get(key); err != nil {
		return
	}
	if sub, ok = val.(*Database); !ok {
		err = fmt.Errorf("%s: %q is not a database", db.Name, key)
	}
	return
}

func (db *Database) GetStringWithDefault(key, def string) (s string, err error) {
	if !db.KeyExists(key) {
		return def, nil
	}
	return db.GetString(key)
}

func (db *Database) GetDoubleWithDefault(key string, def float64) (f float64, err error) {
	if !db.KeyExists(key) {
		return def, nil
	}
	return db.GetDouble(key)
}

func (db *Database) GetIntegerWithDefault(key string, def int) (i int, err error) {
	if !db.KeyExists(key) {
		return def, nil
	}
	return db.GetInteger(key)
}

func (db *Database) GetBoolWithDefault(key string, def bool) (b bool, err error) {
	if !db.KeyExists(key) {
		return def, nil
	}
	return db.GetBool(key)
}

// ToMap converts the tree into nested maps suitable for serialization
func (db *Database) ToMap() (m map[string]interface{}) {
	m = make(map[string]interface{}, len(db.keys))
	for k, v := range db.keys {
		if sub, ok := v.(*Database); ok {
			m[k] = sub.ToMap()
			continue
		}
		m[k] = v
	}
	return
}

// FromMap builds a database from nested maps, nested maps become sub databases
func FromMap(name string, m map[string]interface{}) (db *Database) {
	db = NewDatabase(name)
	for k, v := range m {
		switch val := v.(type) {
		case map[string]interface{}:
			db.keys[k] = FromMap(k, val)
		case map[interface{}]interface{}:
			sm := make(map[string]interface{}, len(val))
			for sk, sv := range val {
				sm[cast.ToString(sk)] = sv
			}
			db.keys[k] = FromMap(k, sm)
		default:
			db.keys[k] = v
		}
	}
	return
}

func (db *Database) MarshalYAML() ([]byte, error) {
	return yaml.Marshal(db.ToMap())
}

func ParseYAML(name string, data []byte) (db *Database, err error) {
	var (
		m = make(map[string]interface{})
	)
	if err = yaml.Unmarshal(data, &m); err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		return
	}
	db = FromMap(name, m)
	return
}

func ParseTOML(name string, data []byte) (db *Database, err error) {
	var (
		m = make(map[string]interface{})
	)
	if _, err = toml.Decode(string(data), &m); err != nil {
		err = fmt.Errorf("%s: %w", name, err)
		return
	}
	db = FromMap(name, m)
	return
}

// ReadFile parses a YAML or TOML file, chosen by extension
func ReadFile(path string) (db *Database, err error) {
	var (
		data []byte
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	)
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOML(name, data)
	default:
		return ParseYAML(name, data)
	}
}

func (db *Database) WriteFile(path string) (err error) {
	var (
		data []byte
	)
	if data, err = db.MarshalYAML(); err != nil {
		return
	}
	return os.WriteFile(path, data, 0644)
}

func (db *Database) String() string {
	data, err := db.MarshalYAML()
	if err != nil {
		return fmt.Sprintf("%s: %v", db.Name, err)
	}
	return string(data)
}
