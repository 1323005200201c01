// Package export serializes resolved task maps as JSON for the scheduler
// and launcher processes that consume the engine's output. Every payload is
// checked against the embedded schema before it is written, so a consumer
// never sees a shape this package did not promise.
package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/taskmill/taskmill/internal/config"
)

//go:embed schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("resolved.schema.json", schemaJSON)

type document struct {
	Watch watch           `json:"watch"`
	Tasks map[string]task `json:"tasks"`
}

type watch struct {
	Enabled   bool `json:"enabled"`
	ForcePoll bool `json:"force_poll"`
}

type task struct {
	Name        string   `json:"name,omitempty"`
	Cron        string   `json:"cron,omitempty"`
	Cmd         []string `json:"cmd,omitempty"`
	CmdStop     []string `json:"cmd_stop,omitempty"`
	StopTimeout int      `json:"stop_timeout"`
	OnStart     bool     `json:"on_start"`
	Enabled     bool     `json:"enabled"`
	Shell       []string `json:"shell,omitempty"`
	Path        *path    `json:"path,omitempty"`
	Env         *env     `json:"env,omitempty"`
}

type path struct {
	Dirs  []string `json:"dirs"`
	Apply string   `json:"apply"`
}

type env struct {
	Vars  map[string]string `json:"vars"`
	Merge bool              `json:"merge"`
}

// Write validates and writes the resolved output as indented JSON.
func Write(w io.Writer, wt config.Watch, tasks map[config.TaskID]config.ResolvedTask) error {
	data, err := Marshal(wt, tasks)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Marshal validates and serializes the resolved output.
func Marshal(wt config.Watch, tasks map[config.TaskID]config.ResolvedTask) ([]byte, error) {
	doc := document{
		Watch: watch{Enabled: wt.Enabled, ForcePoll: wt.ForcePoll},
		Tasks: make(map[string]task, len(tasks)),
	}
	for id, rt := range tasks {
		doc.Tasks[id] = exportTask(rt)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resolved tasks: %w", err)
	}

	// Validate what was actually serialized, not the in-memory form.
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("reparse export: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("export failed schema validation: %w", err)
	}

	return append(data, '\n'), nil
}

func exportTask(rt config.ResolvedTask) task {
	out := task{
		Name:        rt.Name,
		Cron:        rt.Cron,
		Cmd:         rt.Cmd,
		CmdStop:     rt.CmdStop,
		StopTimeout: rt.StopTimeout,
		OnStart:     rt.OnStart,
		Enabled:     rt.Enabled,
		Shell:       rt.Shell,
	}
	if rt.Path != nil {
		dirs := rt.Path.Dirs
		if dirs == nil {
			dirs = []string{}
		}
		out.Path = &path{Dirs: dirs, Apply: string(rt.Path.Apply)}
	}
	if rt.Env != nil {
		vars := rt.Env.Vars
		if vars == nil {
			vars = map[string]string{}
		}
		out.Env = &env{Vars: vars, Merge: rt.Env.MergeEnv}
	}
	return out
}
