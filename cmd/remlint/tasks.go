package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"blake.io/remlint"
)

func (a *app) tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks [FILE]",
		Short: "List the tasks in a Remfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.files(args)
			if err != nil {
				return err
			}
			rf, err := remlint.Load(files[0])
			if err != nil {
				return err
			}
			a.log.Debug("loaded", "file", rf.Path, "tasks", len(rf.Order))
			if a.format == "json" {
				return a.printTasksJSON(rf)
			}
			return a.printTasks(rf)
		},
	}
}

func (a *app) printTasks(rf *remlint.File) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, name := range rf.Order {
		mark := " "
		if name == rf.Default {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\n", mark, name, rf.Tasks[name].Desc)
	}
	return tw.Flush()
}

type taskJSON struct {
	Name    string   `json:"name"`
	Desc    string   `json:"desc,omitempty"`
	Deps    []string `json:"deps,omitempty"`
	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`
	Cmds    []string `json:"cmds,omitempty"`
	Dir     string   `json:"dir,omitempty"`
}

func (a *app) printTasksJSON(rf *remlint.File) error {
	out := struct {
		Default string            `json:"default"`
		Vars    map[string]string `json:"vars"`
		Tasks   []taskJSON        `json:"tasks"`
	}{
		Default: rf.Default,
		Vars:    rf.Vars,
		Tasks:   make([]taskJSON, 0, len(rf.Order)),
	}
	for _, name := range rf.Order {
		t := rf.Tasks[name]
		out.Tasks = append(out.Tasks, taskJSON(*t))
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
