package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParseEmpty(t *testing.T) {
	doc, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Tasks) != 0 {
		t.Errorf("Tasks: got %v, want empty", doc.Tasks)
	}
	if !doc.Watch.Enabled {
		t.Error("watch.enabled should default to true")
	}
	if doc.Watch.ForcePoll {
		t.Error("watch.force-poll should default to false")
	}
}

func TestParseWatch(t *testing.T) {
	doc, err := Parse([]byte(`
[watch]
enabled = false
force-poll = true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Watch{Enabled: false, ForcePoll: true}
	if doc.Watch != want {
		t.Errorf("Watch: got %+v, want %+v", doc.Watch, want)
	}
}

func TestParseEmptyTask(t *testing.T) {
	doc, err := Parse([]byte("[task.foo]\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	foo, ok := doc.Tasks["foo"]
	if !ok {
		t.Fatalf("task foo missing: %v", doc.Tasks)
	}
	if foo.StopTimeout != DefaultStopTimeout {
		t.Errorf("StopTimeout: got %d, want %d", foo.StopTimeout, DefaultStopTimeout)
	}
	if !foo.Enabled {
		t.Error("enabled should default to true")
	}
	if foo.OnStart {
		t.Error("on-start should default to false")
	}
	if !foo.Shell.IsUnset() || !foo.Path.IsUnset() || !foo.Env.IsUnset() {
		t.Error("shell/path/env should default to unset")
	}
}

func TestParseEmptyAxisTables(t *testing.T) {
	doc, err := Parse([]byte(`
[task.foo]

[task.foo.path]

[task.bar.env]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	fooPath, ok := doc.Tasks["foo"].Path.Value()
	if !ok {
		t.Fatal("foo.path should be a custom value")
	}
	if fooPath.Replace {
		t.Error("replace should default to false")
	}
	if fooPath.Config.Apply != ApplyBefore {
		t.Errorf("apply: got %q, want %q", fooPath.Config.Apply, ApplyBefore)
	}

	barEnv, ok := doc.Tasks["bar"].Env.Value()
	if !ok {
		t.Fatal("bar.env should be a custom value")
	}
	if !barEnv.Config.MergeEnv {
		t.Error("env.merge should default to true")
	}
}

func TestParseComplexTasks(t *testing.T) {
	doc, err := Parse([]byte(`
[task.foo]
name = 'Foo'

[task.foo.path]
dirs = ['/bin']

[task.foo.env.vars]
FOO_ENV = 'foo env value'
BAR_ENV = 'bar env value'

[task.bar]
extends = 'foo'
name = 'Bar'
cron = '* * * * * *'

[task.bar.env.vars]
BAR_ENV = 'overridden bar env'

[task.baz]
extends = ['foo', 'bar']
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	foo := doc.Tasks["foo"]
	if foo.Name != "Foo" {
		t.Errorf("foo.Name: got %q, want Foo", foo.Name)
	}
	fooPath, ok := foo.Path.Value()
	if !ok || !reflect.DeepEqual(fooPath.Config.Dirs, []string{"/bin"}) {
		t.Errorf("foo.path: got %+v", foo.Path)
	}
	fooEnv, ok := foo.Env.Value()
	wantVars := map[string]string{"FOO_ENV": "foo env value", "BAR_ENV": "bar env value"}
	if !ok || !reflect.DeepEqual(fooEnv.Config.Vars, wantVars) {
		t.Errorf("foo.env: got %+v, want vars %v", foo.Env, wantVars)
	}

	bar := doc.Tasks["bar"]
	if !reflect.DeepEqual(bar.Extends, []TaskID{"foo"}) {
		t.Errorf("bar.Extends: got %v, want [foo]", bar.Extends)
	}
	if bar.Cron != "* * * * * *" {
		t.Errorf("bar.Cron: got %q", bar.Cron)
	}

	baz := doc.Tasks["baz"]
	if !reflect.DeepEqual(baz.Extends, []TaskID{"foo", "bar"}) {
		t.Errorf("baz.Extends: got %v, want [foo bar]", baz.Extends)
	}
}

func TestParseShellForms(t *testing.T) {
	tests := []struct {
		name  string
		toml  string
		check func(t *testing.T, o Override[[]string])
	}{
		{
			name: "bool true",
			toml: "shell = true",
			check: func(t *testing.T, o Override[[]string]) {
				if use, ok := o.Flag(); !ok || !use {
					t.Errorf("got %+v, want UseFlag(true)", o)
				}
			},
		},
		{
			name: "bool false",
			toml: "shell = false",
			check: func(t *testing.T, o Override[[]string]) {
				if use, ok := o.Flag(); !ok || use {
					t.Errorf("got %+v, want UseFlag(false)", o)
				}
			},
		},
		{
			name: "single string",
			toml: "shell = '/bin/bash'",
			check: func(t *testing.T, o Override[[]string]) {
				v, ok := o.Value()
				if !ok || !reflect.DeepEqual(v, []string{"/bin/bash"}) {
					t.Errorf("got %+v, want custom [/bin/bash]", o)
				}
			},
		},
		{
			name: "string list",
			toml: "shell = ['/usr/bin/env', 'bash']",
			check: func(t *testing.T, o Override[[]string]) {
				v, ok := o.Value()
				if !ok || !reflect.DeepEqual(v, []string{"/usr/bin/env", "bash"}) {
					t.Errorf("got %+v, want custom [/usr/bin/env bash]", o)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte("[task.t]\n" + tt.toml + "\n"))
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.check(t, doc.Tasks["t"].Shell)
		})
	}
}

func TestParseAxisBoolForms(t *testing.T) {
	doc, err := Parse([]byte(`
[task.t]
path = false
env = true
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	task := doc.Tasks["t"]
	if use, ok := task.Path.Flag(); !ok || use {
		t.Errorf("path: got %+v, want UseFlag(false)", task.Path)
	}
	if use, ok := task.Env.Flag(); !ok || !use {
		t.Errorf("env: got %+v, want UseFlag(true)", task.Env)
	}
}

func TestParsePathTable(t *testing.T) {
	doc, err := Parse([]byte(`
[task.t.path]
replace = true
dirs = ['/opt/bin', '/usr/local/bin']
apply = 'after'
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inh, ok := doc.Tasks["t"].Path.Value()
	if !ok {
		t.Fatal("path should be custom")
	}
	if !inh.Replace {
		t.Error("replace: got false, want true")
	}
	want := PathConfig{Dirs: []string{"/opt/bin", "/usr/local/bin"}, Apply: ApplyAfter}
	if !reflect.DeepEqual(inh.Config, want) {
		t.Errorf("path config: got %+v, want %+v", inh.Config, want)
	}
}

func TestParseInheritAlias(t *testing.T) {
	doc, err := Parse([]byte(`
[task.t.path]
inherit = true
dirs = ['/bin']
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inh, ok := doc.Tasks["t"].Path.Value()
	if !ok {
		t.Fatal("path should be custom")
	}
	if inh.Replace {
		t.Error("inherit = true should mean replace = false")
	}
}

func TestParseInheritReplaceConflict(t *testing.T) {
	_, err := Parse([]byte(`
[task.t.env]
inherit = true
replace = true
`))
	if err == nil {
		t.Fatal("want parse error for contradictory inherit/replace")
	}
	if !strings.Contains(err.Error(), "contradict") {
		t.Errorf("error should mention the contradiction: %v", err)
	}
}

func TestParseEnvTable(t *testing.T) {
	doc, err := Parse([]byte(`
[task.t.env]
replace = true
merge = false

[task.t.env.vars]
HOME = '/srv/task'
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	inh, ok := doc.Tasks["t"].Env.Value()
	if !ok {
		t.Fatal("env should be custom")
	}
	if !inh.Replace {
		t.Error("replace: got false, want true")
	}
	if inh.Config.MergeEnv {
		t.Error("merge: got true, want false")
	}
	if inh.Config.Vars["HOME"] != "/srv/task" {
		t.Errorf("vars: got %v", inh.Config.Vars)
	}
}

func TestParseScalarFields(t *testing.T) {
	doc, err := Parse([]byte(`
[task.t]
cmd = 'run.sh'
cmd-stop = ['stop.sh', '--grace']
stop-timeout = 2500
on-start = true
enabled = false
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	task := doc.Tasks["t"]
	if !reflect.DeepEqual(task.Cmd, []string{"run.sh"}) {
		t.Errorf("cmd: got %v", task.Cmd)
	}
	if !reflect.DeepEqual(task.CmdStop, []string{"stop.sh", "--grace"}) {
		t.Errorf("cmd-stop: got %v", task.CmdStop)
	}
	if task.StopTimeout != 2500 {
		t.Errorf("stop-timeout: got %d, want 2500", task.StopTimeout)
	}
	if !task.OnStart {
		t.Error("on-start: got false, want true")
	}
	if task.Enabled {
		t.Error("enabled: got true, want false")
	}
}

func TestParseTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"cron not a string", "[task.t]\ncron = 5\n"},
		{"extends mixed list", "[task.t]\nextends = ['a', 3]\n"},
		{"stop-timeout not an int", "[task.t]\nstop-timeout = 'soon'\n"},
		{"shell not bool or strings", "[task.t]\nshell = 3\n"},
		{"path not bool or table", "[task.t]\npath = 'nope'\n"},
		{"apply invalid", "[task.t.path]\napply = 'sideways'\n"},
		{"env vars not strings", "[task.t.env.vars]\nN = 4\n"},
		{"invalid toml syntax", "[task.t\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.toml)); err == nil {
				t.Error("want parse error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskmill.toml")
	content := []byte(`
[task.backup]
cron = '0 3 * * *'
cmd = ['backup.sh']
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if doc.Tasks["backup"].Cron != "0 3 * * *" {
		t.Errorf("cron: got %q", doc.Tasks["backup"].Cron)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestParseThenResolve(t *testing.T) {
	doc, err := Parse([]byte(`
[task.foo]

[task.foo.path]
dirs = ['/bin']

[task.foo.env.vars]
FOO_ENV = 'v1'
BAR_ENV = 'v2'

[task.bar]
extends = 'foo'

[task.bar.env.vars]
BAR_ENV = 'overridden'
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, tasks, err := Resolve(doc)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := map[string]string{"FOO_ENV": "v1", "BAR_ENV": "overridden"}
	if got := tasks["bar"].Env; got == nil || !reflect.DeepEqual(got.Vars, want) {
		t.Errorf("bar.Env: got %+v, want vars %v", got, want)
	}
}
