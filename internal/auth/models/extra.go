package models

import (
	"bytes"
	"reflect"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Extra holds the fields Discord sent that the typed struct does not model,
// so a persisted snapshot keeps everything the API returned.
type Extra map[string]jsoniter.RawMessage

var (
	profileKeys = jsonKeys(reflect.TypeOf(Profile{}))
	guildKeys   = jsonKeys(reflect.TypeOf(Guild{}))
)

func jsonKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}

// splitExtra returns the members of the object in data whose keys are not in known
func splitExtra(data []byte, known map[string]bool) (Extra, error) {
	var all map[string]jsoniter.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	var extra Extra
	for k, v := range all {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = v
	}
	return extra, nil
}

// appendExtra adds the members of extra to the encoded object obj, after
// the modelled fields and in key order.
func appendExtra(obj []byte, extra Extra) ([]byte, error) {
	if len(extra) == 0 {
		return obj, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(bytes.TrimSpace(obj), []byte("}")))
	for _, k := range keys {
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, profileKeys)
	if err != nil {
		return err
	}
	*p = Profile(known)
	p.Extra = extra
	return nil
}

func (p Profile) MarshalJSON() ([]byte, error) {
	type plain Profile
	obj, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return appendExtra(obj, p.Extra)
}

func (g *Guild) UnmarshalJSON(data []byte) error {
	type plain Guild
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := splitExtra(data, guildKeys)
	if err != nil {
		return err
	}
	*g = Guild(known)
	g.Extra = extra
	return nil
}

func (g Guild) MarshalJSON() ([]byte, error) {
	type plain Guild
	obj, err := json.Marshal(plain(g))
	if err != nil {
		return nil, err
	}
	return appendExtra(obj, g.Extra)
}
