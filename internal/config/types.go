// Package config parses taskmill config documents and resolves their task
// inheritance graphs into flat, launch-ready task records.
package config

// TaskID names a task definition. It is the key in the task mapping and a
// valid extends target.
type TaskID = string

// ApplyMethod selects how a task's PATH directories are applied to the
// inherited PATH env var at launch.
type ApplyMethod string

const (
	// ApplyBefore prefixes the directories. This is the default.
	ApplyBefore ApplyMethod = "before"
	// ApplyAfter suffixes the directories.
	ApplyAfter ApplyMethod = "after"
	// ApplyOverwrite replaces the PATH env var entirely.
	ApplyOverwrite ApplyMethod = "overwrite"
)

// PathConfig is a task's PATH directory config.
type PathConfig struct {
	Dirs  []string
	Apply ApplyMethod
}

// Merge combines a resolved base with an incoming config. Incoming
// directories come first so they win under "before" semantics, duplicates
// are dropped keeping the first occurrence, and the incoming apply method
// wins.
func (p PathConfig) Merge(incoming PathConfig) PathConfig {
	dirs := make([]string, 0, len(incoming.Dirs)+len(p.Dirs))
	seen := make(map[string]bool, len(incoming.Dirs)+len(p.Dirs))
	for _, list := range [][]string{incoming.Dirs, p.Dirs} {
		for _, dir := range list {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return PathConfig{Dirs: dirs, Apply: incoming.Apply}
}

// EnvConfig is a task's environment variable config.
type EnvConfig struct {
	Vars map[string]string
	// MergeEnv merges the vars into the environment inherited from the
	// supervisor process instead of replacing it. Wire key "merge",
	// default true.
	MergeEnv bool
}

// Merge combines a resolved base with an incoming config. Incoming vars
// overwrite same-named base vars and the incoming MergeEnv flag wins.
func (e EnvConfig) Merge(incoming EnvConfig) EnvConfig {
	vars := make(map[string]string, len(e.Vars)+len(incoming.Vars))
	for k, v := range e.Vars {
		vars[k] = v
	}
	for k, v := range incoming.Vars {
		vars[k] = v
	}
	return EnvConfig{Vars: vars, MergeEnv: incoming.MergeEnv}
}

// Watch holds the global config-watcher settings. There is no per-task
// inheritance for these.
type Watch struct {
	// Enabled reloads the config file on change. Default true.
	Enabled bool `toml:"enabled"`
	// ForcePoll forces the fallback poll-watcher. Default false.
	ForcePoll bool `toml:"force-poll"`
}

// Task is a parsed task definition, before inheritance resolution. Built by
// parsing, consumed once by Resolve, then discarded.
type Task struct {
	// Extends lists the tasks this one inherits from, in declaration
	// order. Accepts a single string or a list on the wire.
	Extends []TaskID
	// Name is an optional nice name for the task.
	Name string
	// Cron defines when the task runs.
	Cron string
	// Cmd is the command to run, with arguments.
	Cmd []string
	// CmdStop is the command used to stop the task, with arguments.
	CmdStop []string
	// StopTimeout is how long to wait after CmdStop (or the stop signal)
	// before killing the task, in milliseconds. Default 10000.
	StopTimeout int
	// OnStart runs the task once when the supervisor starts. Default
	// false.
	OnStart bool
	// Enabled gates the task without deleting its definition. Default
	// true.
	Enabled bool

	Shell Override[[]string]
	Path  Override[Inheritable[PathConfig]]
	Env   Override[Inheritable[EnvConfig]]
}

// Document is a parsed config document.
type Document struct {
	Tasks map[TaskID]Task `toml:"task"`
	Watch Watch           `toml:"watch"`
}

// ResolvedTask is the flattened, inheritance-free form of a task, the only
// value that survives into runtime use. A nil Shell, Path or Env means the
// axis is absent for this task, which is meaningful terminal state: the
// launcher falls back to direct execution and the inherited process
// environment. Immutable once produced; rebuilt wholesale on every reload.
type ResolvedTask struct {
	Name        string
	Cron        string
	Cmd         []string
	CmdStop     []string
	StopTimeout int
	OnStart     bool
	Enabled     bool

	Shell []string
	Path  *PathConfig
	Env   *EnvConfig
}
