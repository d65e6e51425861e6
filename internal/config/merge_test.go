package config

import (
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyTableCoversEveryField(t *testing.T) {
	check := func(typ reflect.Type, table []fieldPolicy, skip ...string) map[string]MergePolicy {
		got := make(map[string]MergePolicy, len(table))
		for _, row := range table {
			got[row.name] = row.policy
		}
		for i := 0; i < typ.NumField(); i++ {
			name := typ.Field(i).Name
			if slices.Contains(skip, name) {
				continue
			}
			assert.Contains(t, got, name, "%s.%s has no merge policy", typ.Name(), name)
		}
		return got
	}

	task := check(reflect.TypeOf(TaskDef{}), taskPolicies, "Base")
	assert.Equal(t, ChildOnly, task["Hidden"])
	assert.Equal(t, ChildOnly, task["Abstract"])
	assert.Equal(t, MergeMap, task["Env"])
	assert.Equal(t, ConcatList, task["PreCommands"])
	assert.Equal(t, Replace, task["Cwd"])

	var containerTable []fieldPolicy
	for _, row := range taskPolicies {
		if row.name == "Container" {
			containerTable = row.table
		}
	}
	container := check(reflect.TypeOf(ContainerDef{}), containerTable)
	assert.Equal(t, ConcatList, container["Volumes"])
	assert.Equal(t, MergeMap, container["Env"])
}

func TestMustPolicyTableRejectsBadTags(t *testing.T) {
	type unknownPolicy struct {
		X string `merge:"sometimes"`
	}
	type missingFlag struct {
		M map[string]string `merge:"map,Nope"`
	}
	assert.Panics(t, func() { mustPolicyTable(reflect.TypeOf(unknownPolicy{})) })
	assert.Panics(t, func() { mustPolicyTable(reflect.TypeOf(missingFlag{})) })
}

func TestMergeDefsDropsBase(t *testing.T) {
	merged := mergeDefs(&TaskDef{Base: "root"}, &TaskDef{Base: "parent"})
	assert.Empty(t, merged.Base)
}
