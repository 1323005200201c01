package config

import "sort"

// Resolve flattens the extends graph of doc into launch-ready task records.
//
// It is pure, synchronous and deterministic: no I/O, no shared state, and
// maps are walked in sorted id order so identical documents yield identical
// results and identical errors. The result is all-or-nothing; on error no
// partial task map is returned, and the caller should keep whatever map it
// applied last.
func Resolve(doc *Document) (Watch, map[TaskID]ResolvedTask, error) {
	ids := make([]TaskID, 0, len(doc.Tasks))
	for id := range doc.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Every extends reference must exist before any task resolves.
	for _, id := range ids {
		for _, ref := range doc.Tasks[id].Extends {
			if _, ok := doc.Tasks[ref]; !ok {
				return Watch{}, nil, &UnknownReferenceError{Task: id, Ref: ref}
			}
		}
	}

	// Iterative fixed-point resolution (Kahn-style, no recursion): each
	// pass resolves every task whose parents are all resolved. Tasks with
	// no parents seed the first pass. A pass that resolves nothing means
	// the remaining tasks form a cycle.
	resolved := make(map[TaskID]ResolvedTask, len(doc.Tasks))
	pending := ids
	for len(pending) > 0 {
		var stuck []TaskID
		for _, id := range pending {
			task := doc.Tasks[id]
			if !parentsResolved(task.Extends, resolved) {
				stuck = append(stuck, id)
				continue
			}
			resolved[id] = resolveTask(task, resolved)
		}
		if len(stuck) == len(pending) {
			return Watch{}, nil, &CycleError{Tasks: stuck}
		}
		pending = stuck
	}

	return doc.Watch, resolved, nil
}

func parentsResolved(extends []TaskID, resolved map[TaskID]ResolvedTask) bool {
	for _, ref := range extends {
		if _, ok := resolved[ref]; !ok {
			return false
		}
	}
	return true
}

// resolveTask folds the task's parents left to right in declaration order
// and then applies the task's own overrides to the fold.
//
// Shell folds by overwrite: each parent that has a shell replaces the
// running value. Path and env fold by merge with the accumulator as base,
// so the last-listed parent's entries take priority.
func resolveTask(task Task, resolved map[TaskID]ResolvedTask) ResolvedTask {
	var shellParent *[]string
	var pathParent *PathConfig
	var envParent *EnvConfig
	for _, ref := range task.Extends {
		parent := resolved[ref]
		if parent.Shell != nil {
			s := parent.Shell
			shellParent = &s
		}
		if parent.Path != nil {
			if pathParent == nil {
				pathParent = parent.Path
			} else {
				merged := pathParent.Merge(*parent.Path)
				pathParent = &merged
			}
		}
		if parent.Env != nil {
			if envParent == nil {
				envParent = parent.Env
			} else {
				merged := envParent.Merge(*parent.Env)
				envParent = &merged
			}
		}
	}

	var shell []string
	if s := task.Shell.Resolve(shellParent); s != nil && len(*s) > 0 {
		shell = *s
	}

	return ResolvedTask{
		Name:        task.Name,
		Cron:        task.Cron,
		Cmd:         task.Cmd,
		CmdStop:     task.CmdStop,
		StopTimeout: task.StopTimeout,
		OnStart:     task.OnStart,
		Enabled:     task.Enabled,
		Shell:       shell,
		Path:        resolveInheritable(task.Path, pathParent),
		Env:         resolveInheritable(task.Env, envParent),
	}
}
