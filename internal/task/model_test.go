package task

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestTask_DecodeAllFields(t *testing.T) {
	src := `
id: deploy
title: Deploy the site
handler: script
args:
  command: make deploy
priority: 2
depends_on: [build]
`
	var tk Task
	if err := yaml.Unmarshal([]byte(src), &tk); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if tk.ID != "deploy" {
		t.Errorf("ID = %q, want %q", tk.ID, "deploy")
	}
	if tk.Title != "Deploy the site" {
		t.Errorf("Title = %q, want %q", tk.Title, "Deploy the site")
	}
	if tk.Handler != "script" {
		t.Errorf("Handler = %q, want %q", tk.Handler, "script")
	}
	if tk.Args["command"] != "make deploy" {
		t.Errorf("Args = %v, want command=make deploy", tk.Args)
	}
	if tk.Priority != 2 {
		t.Errorf("Priority = %d, want 2", tk.Priority)
	}
	if len(tk.DependsOn) != 1 || tk.DependsOn[0] != "build" {
		t.Errorf("DependsOn = %v, want [build]", tk.DependsOn)
	}
}

func TestDependList_Decode(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{"absent", "id: a", nil},
		{"scalar", "id: a\ndepends_on: b", []string{"b"}},
		{"empty scalar", `id: a
depends_on: ""`, nil},
		{"list", "id: a\ndepends_on: [b, c]", []string{"b", "c"}},
		{"empty list", "id: a\ndepends_on: []", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var tk Task
			if err := yaml.Unmarshal([]byte(tc.src), &tk); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(tk.DependsOn) != len(tc.want) {
				t.Fatalf("DependsOn = %v, want %v", tk.DependsOn, tc.want)
			}
			for i := range tc.want {
				if tk.DependsOn[i] != tc.want[i] {
					t.Errorf("DependsOn = %v, want %v", tk.DependsOn, tc.want)
				}
			}
		})
	}
}

func TestCogfile_Decode(t *testing.T) {
	src := `
description: site build
default_handler: script
tasks:
  - id: build
    handler: script
    args:
      command: make build
  - id: deploy
    depends_on: build
`
	var cf Cogfile
	if err := yaml.Unmarshal([]byte(src), &cf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(cf.Tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(cf.Tasks))
	}
	if cf.Tasks[0].ID != "build" || cf.Tasks[1].ID != "deploy" {
		t.Errorf("task ids = %q, %q", cf.Tasks[0].ID, cf.Tasks[1].ID)
	}
	if cf.Tasks[0].Args["command"] != "make build" {
		t.Errorf("task args lost: %v", cf.Tasks[0].Args)
	}
	if len(cf.Tasks[1].DependsOn) != 1 || cf.Tasks[1].DependsOn[0] != "build" {
		t.Errorf("deploy depends_on = %v, want [build]", cf.Tasks[1].DependsOn)
	}
}
