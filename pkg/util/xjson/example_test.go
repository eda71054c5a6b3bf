package xjson_test

import (
	"fmt"

	"github.com/omeyang/lockkit/pkg/util/xjson"
)

func ExamplePretty() {
	type LockState struct {
		Name   string `json:"name"`
		Locked bool   `json:"locked"`
	}
	fmt.Println(xjson.Pretty(LockState{Name: "sessions", Locked: true}))
	// Output:
	// {
	//   "name": "sessions",
	//   "locked": true
	// }
}

func ExampleCompact() {
	type AuditEntry struct {
		Command string `json:"command"`
		OK      bool   `json:"ok"`
	}
	fmt.Println(string(xjson.Compact(AuditEntry{Command: "locks", OK: true})))
	// Output:
	// {"command":"locks","ok":true}
}
