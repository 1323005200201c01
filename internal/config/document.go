package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Default values applied before decoding.
const (
	DefaultStopTimeout = 10000
	DefaultApply       = ApplyBefore
)

// Parse decodes a TOML config document. Missing tables and fields take
// their documented defaults; shape or type problems fail the whole parse.
func Parse(data []byte) (*Document, error) {
	doc := &Document{Watch: Watch{Enabled: true}}
	if err := toml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = make(map[TaskID]Task)
	}
	return doc, nil
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// UnmarshalTOML decodes a task table. Several fields are polymorphic on the
// wire (bool-or-table, string-or-list), so the table is decoded by hand the
// same way throughout. Unknown keys are ignored.
func (t *Task) UnmarshalTOML(data interface{}) error {
	table, ok := data.(map[string]interface{})
	if !ok {
		return fmt.Errorf("task must be a table")
	}

	*t = Task{
		StopTimeout: DefaultStopTimeout,
		Enabled:     true,
	}

	if v, ok := table["extends"]; ok {
		extends, err := decodeStringList("extends", v)
		if err != nil {
			return err
		}
		t.Extends = extends
	}
	if v, ok := table["name"]; ok {
		name, err := decodeString("name", v)
		if err != nil {
			return err
		}
		t.Name = name
	}
	if v, ok := table["cron"]; ok {
		cron, err := decodeString("cron", v)
		if err != nil {
			return err
		}
		t.Cron = cron
	}
	if v, ok := table["cmd"]; ok {
		cmd, err := decodeStringList("cmd", v)
		if err != nil {
			return err
		}
		t.Cmd = cmd
	}
	if v, ok := table["cmd-stop"]; ok {
		cmdStop, err := decodeStringList("cmd-stop", v)
		if err != nil {
			return err
		}
		t.CmdStop = cmdStop
	}
	if v, ok := table["stop-timeout"]; ok {
		timeout, err := decodeInt("stop-timeout", v)
		if err != nil {
			return err
		}
		t.StopTimeout = timeout
	}
	if v, ok := table["on-start"]; ok {
		onStart, err := decodeBool("on-start", v)
		if err != nil {
			return err
		}
		t.OnStart = onStart
	}
	if v, ok := table["enabled"]; ok {
		enabled, err := decodeBool("enabled", v)
		if err != nil {
			return err
		}
		t.Enabled = enabled
	}
	if v, ok := table["shell"]; ok {
		shell, err := decodeShellOverride(v)
		if err != nil {
			return err
		}
		t.Shell = shell
	}
	if v, ok := table["path"]; ok {
		path, err := decodeAxisOverride("path", v, decodePathConfig)
		if err != nil {
			return err
		}
		t.Path = path
	}
	if v, ok := table["env"]; ok {
		env, err := decodeAxisOverride("env", v, decodeEnvConfig)
		if err != nil {
			return err
		}
		t.Env = env
	}

	return nil
}

// decodeShellOverride decodes the shell axis: a bool toggles inheritance,
// a string or string list is a custom shell command.
func decodeShellOverride(v interface{}) (Override[[]string], error) {
	if b, ok := v.(bool); ok {
		return UseFlag[[]string](b), nil
	}
	cmd, err := decodeStringList("shell", v)
	if err != nil {
		return Override[[]string]{}, fmt.Errorf("shell must be a bool, string or string list")
	}
	return Custom(cmd), nil
}

// decodeAxisOverride decodes the path/env axes: a bool toggles inheritance,
// a table is a custom Inheritable value.
func decodeAxisOverride[T Mergeable[T]](key string, v interface{}, decode func(map[string]interface{}) (T, error)) (Override[Inheritable[T]], error) {
	switch val := v.(type) {
	case bool:
		return UseFlag[Inheritable[T]](val), nil
	case map[string]interface{}:
		inh, err := decodeInheritable(key, val, decode)
		if err != nil {
			return Override[Inheritable[T]]{}, err
		}
		return Custom(inh), nil
	default:
		return Override[Inheritable[T]]{}, fmt.Errorf("%s must be a bool or a table", key)
	}
}

// decodeInheritable reads the merge-vs-replace flag off a custom axis
// table. "replace" is the canonical key; "inherit" is accepted as its
// inverse alias.
func decodeInheritable[T Mergeable[T]](key string, table map[string]interface{}, decode func(map[string]interface{}) (T, error)) (Inheritable[T], error) {
	var inh Inheritable[T]
	replaceSet := false
	if v, ok := table["replace"]; ok {
		b, err := decodeBool(key+".replace", v)
		if err != nil {
			return inh, err
		}
		inh.Replace = b
		replaceSet = true
	}
	if v, ok := table["inherit"]; ok {
		b, err := decodeBool(key+".inherit", v)
		if err != nil {
			return inh, err
		}
		if replaceSet && inh.Replace != !b {
			return inh, fmt.Errorf("%s: replace and inherit contradict each other", key)
		}
		inh.Replace = !b
	}
	cfg, err := decode(table)
	if err != nil {
		return inh, err
	}
	inh.Config = cfg
	return inh, nil
}

func decodePathConfig(table map[string]interface{}) (PathConfig, error) {
	cfg := PathConfig{Apply: DefaultApply}
	if v, ok := table["dirs"]; ok {
		dirs, err := decodeStringList("path.dirs", v)
		if err != nil {
			return cfg, err
		}
		cfg.Dirs = dirs
	}
	if v, ok := table["apply"]; ok {
		s, err := decodeString("path.apply", v)
		if err != nil {
			return cfg, err
		}
		switch ApplyMethod(s) {
		case ApplyBefore, ApplyAfter, ApplyOverwrite:
			cfg.Apply = ApplyMethod(s)
		default:
			return cfg, fmt.Errorf("path.apply must be %q, %q or %q, got %q",
				ApplyBefore, ApplyAfter, ApplyOverwrite, s)
		}
	}
	return cfg, nil
}

func decodeEnvConfig(table map[string]interface{}) (EnvConfig, error) {
	cfg := EnvConfig{MergeEnv: true}
	if v, ok := table["vars"]; ok {
		raw, ok := v.(map[string]interface{})
		if !ok {
			return cfg, fmt.Errorf("env.vars must be a table")
		}
		vars := make(map[string]string, len(raw))
		for k, val := range raw {
			s, ok := val.(string)
			if !ok {
				return cfg, fmt.Errorf("env.vars.%s must be a string", k)
			}
			vars[k] = s
		}
		cfg.Vars = vars
	}
	if v, ok := table["merge"]; ok {
		b, err := decodeBool("env.merge", v)
		if err != nil {
			return cfg, err
		}
		cfg.MergeEnv = b
	}
	return cfg, nil
}

func decodeString(key string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}
	return s, nil
}

func decodeBool(key string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%s must be a bool", key)
	}
	return b, nil
}

func decodeInt(key string, v interface{}) (int, error) {
	i, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(i), nil
}

// decodeStringList accepts a single string or a list of strings.
func decodeStringList(key string, v interface{}) ([]string, error) {
	switch val := v.(type) {
	case string:
		return []string{val}, nil
	case []interface{}:
		list := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must contain only strings", key)
			}
			list = append(list, s)
		}
		return list, nil
	case []string:
		return append([]string(nil), val...), nil
	default:
		return nil, fmt.Errorf("%s must be a string or string list", key)
	}
}
